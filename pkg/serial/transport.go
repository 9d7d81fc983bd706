package serial

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sotachaser/sotad/pkg/verbose"
)

// Transport owns the lifecycle of exactly one serial connection: open,
// persistent shared reader, writer per write, close. The reader handle and
// the receive buffer are mutated only under readMu, so the drain loop and any
// foreground caller never claim the input stream at the same time. Writes
// serialize under their own lock; callers that need an ordered multi-command
// sequence must issue it from one call site.
type Transport struct {
	platform Platform

	stateMu sync.Mutex
	port    Port
	reader  Reader

	readMu sync.Mutex
	frames frameBuffer

	writeMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[string]chan string
}

// NewTransport creates a transport bound to the given platform. No port is
// opened until Connect.
func NewTransport(platform Platform) *Transport {
	return &Transport{
		platform:    platform,
		subscribers: make(map[string]chan string),
	}
}

// Connect selects and opens a port at the given baud rate. Reconnecting
// always starts with a clean read state: any stale reader is cancelled, the
// previous port closed and the receive buffer cleared.
func (t *Transport) Connect(baud int) error {
	port, err := t.platform.RequestPort()
	if err != nil {
		return err
	}
	if err := port.Open(baud); err != nil {
		return err
	}

	t.stateMu.Lock()
	stale := t.reader
	old := t.port
	t.port = port
	t.reader = nil
	t.stateMu.Unlock()

	if stale != nil {
		stale.Cancel()
	}
	if old != nil {
		old.Close()
	}

	t.readMu.Lock()
	t.frames.Reset()
	t.readMu.Unlock()

	return nil
}

// Connected reports whether a connection handle exists.
func (t *Transport) Connected() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.port != nil
}

// Write transmits the command's raw bytes. One writer acquisition per call;
// no response is awaited.
func (t *Transport) Write(ctx context.Context, command string) error {
	t.stateMu.Lock()
	port := t.port
	t.stateMu.Unlock()
	if port == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := port.Writer()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(command)); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrIO, command, err)
	}
	verbose.Printf("Serial: -> %q", command)
	return nil
}

// ReadChunk performs one read under the shared reader claim, appends the
// decoded bytes to the receive buffer and returns the oldest complete frame
// when one is available. An empty string with a nil error means no frame yet.
func (t *Transport) ReadChunk(ctx context.Context) (string, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := t.currentReader()
	if err != nil {
		return "", err
	}

	chunk, err := reader.ReadChunk()
	if err != nil {
		return "", err
	}
	if len(chunk) > 0 {
		t.frames.Append(decodeChunk(chunk))
	}

	if frame, ok := t.frames.Next(); ok {
		verbose.Printf("Serial: <- %q", frame)
		t.publish(frame)
		return frame, nil
	}
	return "", nil
}

// currentReader returns the shared reader, creating it lazily on the first
// read after connect.
func (t *Transport) currentReader() (Reader, error) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()

	if t.port == nil {
		return nil, ErrNotConnected
	}
	if t.reader == nil {
		reader, err := t.port.Reader()
		if err != nil {
			return nil, err
		}
		t.reader = reader
	}
	return t.reader, nil
}

// StopReader cancels and releases the shared reader claim, if any, and clears
// the receive buffer. The connection itself stays open.
func (t *Transport) StopReader() error {
	t.stateMu.Lock()
	reader := t.reader
	t.reader = nil
	t.stateMu.Unlock()

	var err error
	if reader != nil {
		// Cancel before taking readMu: a caller blocked inside ReadChunk
		// holds the lock until its read is interrupted.
		err = reader.Cancel()
	}

	t.readMu.Lock()
	t.frames.Reset()
	t.readMu.Unlock()

	return err
}

// Disconnect tears down the reader, closes the port and clears the handle.
// Calling it when already disconnected is a no-op.
func (t *Transport) Disconnect() error {
	readerErr := t.StopReader()

	t.stateMu.Lock()
	port := t.port
	t.port = nil
	t.stateMu.Unlock()

	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		return err
	}
	return readerErr
}

// Subscribe registers a channel that receives every frame the transport
// extracts. The returned ID identifies the channel for Unsubscribe.
func (t *Transport) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 16)
	t.subMu.Lock()
	defer t.subMu.Unlock()
	t.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscribed channel.
func (t *Transport) Unsubscribe(id string) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	if ch, ok := t.subscribers[id]; ok {
		close(ch)
		delete(t.subscribers, id)
	}
}

// publish fans a frame out to subscribers without blocking the read path.
func (t *Transport) publish(frame string) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for _, ch := range t.subscribers {
		select {
		case ch <- frame:
		default:
			// slow consumer, skip rather than stall the reader
		}
	}
}

// decodeChunk decodes a raw chunk as text. The protocol is ASCII; when the
// payload is not valid UTF-8 the bytes are rendered as a hex dump ("FF 41")
// so corruption shows up in the log instead of vanishing.
func decodeChunk(chunk []byte) string {
	if utf8.Valid(chunk) {
		return string(chunk)
	}
	parts := make([]string, len(chunk))
	for i, b := range chunk {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// randomID generates a random subscriber ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}
