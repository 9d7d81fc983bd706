// Package client speaks the sotad HTTP API. Used by sotactl and by tests.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sotachaser/sotad/pkg/spots"
)

// Status mirrors the daemon's /api/v1/status response.
type Status struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Callsign     string `json:"callsign"`
	Connected    bool   `json:"connected"`
	DrainRunning bool   `json:"drain_running"`
	Uptime       string `json:"uptime"`
	SpotCount    int    `json:"spot_count"`
}

// Prefs mirrors the daemon's /api/v1/prefs payload.
type Prefs struct {
	MinFreqMHz float64 `json:"min_freq_mhz"`
	MaxFreqMHz float64 `json:"max_freq_mhz"`
}

// Client is an HTTP client for a running sotad instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the daemon at addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		baseURL:    "http://" + addr,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// apiError mirrors the daemon's error payload.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// GetStatus returns the daemon status.
func (c *Client) GetStatus() (*Status, error) {
	var status Status
	if err := c.do(http.MethodGet, "/api/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetSpots returns the current spot list.
func (c *Client) GetSpots() ([]spots.Spot, error) {
	var resp struct {
		Spots []spots.Spot `json:"spots"`
	}
	if err := c.do(http.MethodGet, "/api/v1/spots", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Spots, nil
}

// RefreshSpots forces a feed refresh.
func (c *Client) RefreshSpots() error {
	return c.do(http.MethodPost, "/api/v1/spots/refresh", nil, nil)
}

// Connect opens the radio's serial connection. A zero baud rate uses the
// daemon's configured default.
func (c *Client) Connect(baud int) error {
	body := map[string]int{}
	if baud > 0 {
		body["baud"] = baud
	}
	return c.do(http.MethodPost, "/api/v1/radio/connect", body, nil)
}

// Disconnect closes the radio's serial connection.
func (c *Client) Disconnect() error {
	return c.do(http.MethodPost, "/api/v1/radio/disconnect", nil, nil)
}

// Tune commands the radio to the given frequency and mode.
func (c *Client) Tune(freqMHz float64, mode string) error {
	body := map[string]interface{}{
		"frequency_mhz": freqMHz,
		"mode":          mode,
	}
	return c.do(http.MethodPost, "/api/v1/radio/tune", body, nil)
}

// TestTune commands the canned 14.062 MHz CW tune.
func (c *Client) TestTune() error {
	return c.do(http.MethodPost, "/api/v1/radio/test-tune", nil, nil)
}

// SendRaw injects a raw CAT command, terminator included by the caller.
func (c *Client) SendRaw(command string) error {
	body := map[string]string{"command": command}
	return c.do(http.MethodPost, "/api/v1/radio/raw", body, nil)
}

// QueryFrequency returns the next response frame after an FA; query.
func (c *Client) QueryFrequency() (string, error) {
	var resp struct {
		Frame string `json:"frame"`
	}
	if err := c.do(http.MethodGet, "/api/v1/radio/frequency", nil, &resp); err != nil {
		return "", err
	}
	return resp.Frame, nil
}

// GetPrefs returns the allowed tune range.
func (c *Client) GetPrefs() (*Prefs, error) {
	var prefs Prefs
	if err := c.do(http.MethodGet, "/api/v1/prefs", nil, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// SetPrefs stores the allowed tune range.
func (c *Client) SetPrefs(prefs Prefs) error {
	return c.do(http.MethodPut, "/api/v1/prefs", prefs, nil)
}
