package serial

import (
	"io"
	"sync"
)

// MockPlatform implements Platform with a scriptable port for testing.
type MockPlatform struct {
	mu sync.Mutex

	// Port is returned by RequestPort.
	Port *MockPort

	// RequestErr is returned by RequestPort if set.
	RequestErr error

	// RequestCalls records the number of RequestPort calls.
	RequestCalls int
}

// NewMockPlatform creates a MockPlatform with a fresh MockPort.
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{Port: NewMockPort()}
}

func (p *MockPlatform) RequestPort() (Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RequestCalls++
	if p.RequestErr != nil {
		return nil, p.RequestErr
	}
	return p.Port, nil
}

// MockPort implements Port with configurable behaviour: scripted read chunks,
// captured writes, injectable errors and claim counting.
type MockPort struct {
	mu sync.Mutex

	// OpenErr, WriterErr, ReaderErr and CloseErr are returned by the
	// corresponding methods if set.
	OpenErr   error
	WriterErr error
	ReaderErr error
	CloseErr  error

	// OpenedBaud records the baud rate passed to Open.
	OpenedBaud int

	// Closed indicates whether Close was called.
	Closed bool

	// Writes captures one entry per Write call.
	Writes []string

	// ReadErr is returned by the next ReadChunk call if set, then cleared.
	ReadErr error

	// ReaderCreations records the number of Reader calls.
	ReaderCreations int

	// CancelCalls records the number of reader Cancel calls.
	CancelCalls int

	reads [][]byte
}

// NewMockPort creates an empty MockPort.
func NewMockPort() *MockPort {
	return &MockPort{}
}

func (p *MockPort) Open(baud int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.OpenErr != nil {
		return p.OpenErr
	}
	p.OpenedBaud = baud
	p.Closed = false
	return nil
}

func (p *MockPort) Writer() (io.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriterErr != nil {
		return nil, p.WriterErr
	}
	return &mockWriter{port: p}, nil
}

func (p *MockPort) Reader() (Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReaderErr != nil {
		return nil, p.ReaderErr
	}
	p.ReaderCreations++
	return &mockReader{port: p}, nil
}

func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return p.CloseErr
}

// AddRead scripts a chunk to be returned by a subsequent read.
func (p *MockPort) AddRead(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads = append(p.reads, chunk)
}

// AddReadString scripts a text chunk to be returned by a subsequent read.
func (p *MockPort) AddReadString(chunk string) {
	p.AddRead([]byte(chunk))
}

// WrittenCommands returns all captured writes, one entry per Write call.
func (p *MockPort) WrittenCommands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Writes))
	copy(out, p.Writes)
	return out
}

type mockWriter struct {
	port *MockPort
}

func (w *mockWriter) Write(b []byte) (int, error) {
	w.port.mu.Lock()
	defer w.port.mu.Unlock()
	w.port.Writes = append(w.port.Writes, string(b))
	return len(b), nil
}

// mockReader pops scripted chunks in order; with the script exhausted it
// reports an empty chunk, the platform's signal for "no data".
type mockReader struct {
	port      *MockPort
	cancelled bool
}

func (r *mockReader) ReadChunk() ([]byte, error) {
	r.port.mu.Lock()
	defer r.port.mu.Unlock()

	if r.cancelled {
		return nil, nil
	}
	if r.port.ReadErr != nil {
		err := r.port.ReadErr
		r.port.ReadErr = nil
		return nil, err
	}
	if len(r.port.reads) > 0 {
		chunk := r.port.reads[0]
		r.port.reads = r.port.reads[1:]
		return chunk, nil
	}
	return nil, nil
}

func (r *mockReader) Cancel() error {
	r.port.mu.Lock()
	defer r.port.mu.Unlock()
	r.cancelled = true
	r.port.CancelCalls++
	return nil
}
