// Package cat encodes tune, mode and VFO intents into the Kenwood CAT
// command set (TS-570 vocabulary): ASCII command, value field, terminator ';'.
// The protocol carries no acknowledgments and no request/response tags, so
// multi-command sequences are issued from a single call site with short
// inter-command delays.
package cat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sotachaser/sotad/pkg/serial"
)

// interCommandDelay compensates for the lack of command acknowledgment: the
// radio processes one command at a time.
const interCommandDelay = 80 * time.Millisecond

// TestFrequencyHz is the canned test tune target: 14.062 MHz CW.
const TestFrequencyHz = 14062000

// modeCodes maps mode names to the MD command's one-character code. Digital
// modes run as upper-sideband audio.
var modeCodes = map[string]string{
	"LSB":   "1",
	"USB":   "2",
	"CW":    "3",
	"FM":    "4",
	"AM":    "5",
	"SSB":   "2",
	"FT8":   "2",
	"FT4":   "2",
	"PSK31": "2",
	"RTTY":  "2",
}

// Driver sends CAT commands through a serial transport.
type Driver struct {
	transport *serial.Transport
	sleep     func(time.Duration)
}

// NewDriver creates a driver bound to the transport.
func NewDriver(transport *serial.Transport) *Driver {
	return &Driver{
		transport: transport,
		sleep:     time.Sleep,
	}
}

// ModeCommand returns the MD command for a mode name. Matching is
// case-insensitive; unknown modes fall back to USB's code.
func ModeCommand(mode string) string {
	code, ok := modeCodes[strings.ToUpper(mode)]
	if !ok {
		code = modeCodes["USB"]
	}
	return "MD" + code + ";"
}

// FrequencyCommand returns the FA command for a frequency in Hz, zero-padded
// to the protocol's 11-digit field.
func FrequencyCommand(freqHz int64) string {
	return fmt.Sprintf("FA%011d;", freqHz)
}

// SetVfoA selects VFO A for both receive and transmit.
func (d *Driver) SetVfoA(ctx context.Context) error {
	if err := d.transport.Write(ctx, "FR0;"); err != nil {
		return err
	}
	return d.transport.Write(ctx, "FT0;")
}

// SetVfoB selects VFO B for both receive and transmit.
func (d *Driver) SetVfoB(ctx context.Context) error {
	if err := d.transport.Write(ctx, "FR1;"); err != nil {
		return err
	}
	return d.transport.Write(ctx, "FT1;")
}

// SetMode sets the operating mode.
func (d *Driver) SetMode(ctx context.Context, mode string) error {
	return d.transport.Write(ctx, ModeCommand(mode))
}

// Tune selects VFO A, sets the frequency, then sets the mode, pausing between
// steps so the radio keeps up.
func (d *Driver) Tune(ctx context.Context, freqHz int64, mode string) error {
	if err := d.SetVfoA(ctx); err != nil {
		return err
	}
	d.sleep(interCommandDelay)
	if err := d.transport.Write(ctx, FrequencyCommand(freqHz)); err != nil {
		return err
	}
	d.sleep(interCommandDelay)
	return d.SetMode(ctx, mode)
}

// QueryFrequency asks for VFO A's frequency and returns whatever frame the
// next read produces. The protocol has no request/response correlation, so
// with other traffic interleaved the frame may be stale or unrelated. This is
// best-effort by design of the wire protocol.
func (d *Driver) QueryFrequency(ctx context.Context) (string, error) {
	if err := d.transport.Write(ctx, "FA;"); err != nil {
		return "", err
	}
	return d.transport.ReadChunk(ctx)
}

// SendRaw passes text through to the transport verbatim. The caller is
// responsible for including the terminator.
func (d *Driver) SendRaw(ctx context.Context, text string) error {
	return d.transport.Write(ctx, text)
}

// TestTune tunes to the canned 14.062 MHz CW test target.
func (d *Driver) TestTune(ctx context.Context) error {
	return d.Tune(ctx, TestFrequencyHz, "CW")
}
