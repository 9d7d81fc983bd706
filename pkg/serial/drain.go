package serial

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDrainInterval is the pause between background reads.
const DefaultDrainInterval = 100 * time.Millisecond

// Drain keeps the receive path moving while no foreground caller is reading,
// so device output neither backs up nor disappears and the live log stays
// populated. At most one loop runs per transport; Start while running and
// Stop while stopped are both no-ops. Shutdown is cooperative: the loop
// observes cancellation at its next iteration boundary, and the sleep itself
// is interruptible so stop latency is not bounded by the full interval.
type Drain struct {
	transport *Transport
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDrain creates a drain loop for the transport. The loop does not run
// until Start.
func NewDrain(transport *Transport) *Drain {
	return &Drain{
		transport: transport,
		interval:  DefaultDrainInterval,
	}
}

// Start launches the background loop. Calling Start while the loop is
// running has no effect.
func (d *Drain) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.loop(ctx, d.done)
}

// Stop signals the loop to exit. It does not wait for the loop to finish: a
// read already in flight completes (or is interrupted by StopReader) before
// the loop observes the cancellation.
func (d *Drain) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return
	}
	d.cancel()
	d.cancel = nil
	d.done = nil
}

// Running reports whether the loop is active.
func (d *Drain) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

func (d *Drain) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer d.markStopped(done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		// Read errors are deliberately ignored: a transient I/O hiccup must
		// not kill the passive log. Losing the connection ends the loop.
		if _, err := d.transport.ReadChunk(ctx); errors.Is(err, ErrNotConnected) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// markStopped clears the running state when the loop exits on its own, e.g.
// after a disconnect. A loop superseded by a newer Start leaves the newer
// state untouched.
func (d *Drain) markStopped(done chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done == done {
		if d.cancel != nil {
			d.cancel()
		}
		d.cancel = nil
		d.done = nil
	}
}
