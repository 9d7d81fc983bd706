// Package spots fetches recent activator spots from the SOTA spotting API and
// keeps a periodically refreshed in-memory snapshot.
package spots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sotachaser/sotad/pkg/logging"
)

// DefaultURL is the public SOTA spot feed: the 20 most recent spots, all bands.
const DefaultURL = "https://api2.sota.org.uk/api/spots/20/%7Bfilter%7D?filter=all"

// DefaultRefreshInterval matches the feed's suggested polling cadence.
const DefaultRefreshInterval = 5 * time.Minute

// Spot is one activator spot.
type Spot struct {
	Timestamp    string  `json:"timestamp"`
	Callsign     string  `json:"callsign"`
	Summit       string  `json:"summit"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	Mode         string  `json:"mode"`
	Comments     string  `json:"comments"`
}

// Time extracts HH:MM:SS from the spot's ISO-like timestamp, falling back to
// the raw value when it has no time part.
func (s Spot) Time() string {
	ts := s.Timestamp
	tPos := strings.IndexByte(ts, 'T')
	if tPos < 0 {
		return ts
	}
	timePart := strings.TrimSuffix(ts[tPos+1:], "Z")
	if end := strings.IndexAny(timePart, ".+-"); end >= 0 {
		timePart = timePart[:end]
	}
	return timePart
}

// spotRaw mirrors the feed's JSON field names.
type spotRaw struct {
	Timestamp string `json:"timeStamp"`
	Callsign  string `json:"activatorCallsign"`
	Summit    string `json:"summitCode"`
	Frequency string `json:"frequency"`
	Mode      string `json:"mode"`
	Comments  string `json:"comments"`
}

// fromRaw converts a feed record, rejecting rows without a usable frequency.
func fromRaw(raw spotRaw) (Spot, bool) {
	freq, err := strconv.ParseFloat(strings.TrimSpace(raw.Frequency), 64)
	if err != nil || freq <= 0 {
		return Spot{}, false
	}
	return Spot{
		Timestamp:    raw.Timestamp,
		Callsign:     raw.Callsign,
		Summit:       raw.Summit,
		FrequencyMHz: freq,
		Mode:         raw.Mode,
		Comments:     raw.Comments,
	}, true
}

// Client fetches spots from the feed.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a feed client. An empty URL selects DefaultURL.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves and parses the current spot list. Records with missing or
// non-positive frequencies are skipped.
func (c *Client) Fetch(ctx context.Context) ([]Spot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build spot request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spot feed returned status %d", resp.StatusCode)
	}

	var raw []spotRaw
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse spots: %w", err)
	}

	spots := make([]Spot, 0, len(raw))
	for _, r := range raw {
		if spot, ok := fromRaw(r); ok {
			spots = append(spots, spot)
		}
	}
	return spots, nil
}

// Saver persists fetched spots. Implemented by the storage package.
type Saver interface {
	SaveSpots([]Spot) (int, error)
}

// Poller refreshes the spot list on a fixed interval and keeps the latest
// successful result. Fetch failures keep the previous list.
type Poller struct {
	client   *Client
	saver    Saver
	interval time.Duration

	mu        sync.RWMutex
	current   []Spot
	lastFetch time.Time
}

// NewPoller creates a poller. saver may be nil when persistence is disabled.
func NewPoller(client *Client, saver Saver, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller{
		client:   client,
		saver:    saver,
		interval: interval,
	}
}

// Run refreshes immediately and then on every tick until the context ends.
func (p *Poller) Run(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		logging.Warnf("spots", "Initial spot refresh failed: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				logging.Warnf("spots", "Spot refresh failed: %v", err)
			}
		}
	}
}

// Refresh fetches the feed once and replaces the snapshot on success.
func (p *Poller) Refresh(ctx context.Context) error {
	spots, err := p.client.Fetch(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.current = spots
	p.lastFetch = time.Now()
	p.mu.Unlock()

	if p.saver != nil {
		if saved, err := p.saver.SaveSpots(spots); err != nil {
			logging.Warnf("spots", "Failed to persist spots: %v", err)
		} else if saved > 0 {
			logging.Debugf("spots", "Persisted %d new spots", saved)
		}
	}

	logging.Infof("spots", "Refreshed spot list: %d spots", len(spots))
	return nil
}

// Spots returns the latest snapshot.
func (p *Poller) Spots() []Spot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Spot, len(p.current))
	copy(out, p.current)
	return out
}

// LastFetch reports when the snapshot was last replaced.
func (p *Poller) LastFetch() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastFetch
}
