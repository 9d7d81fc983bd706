package serial

import "io"

// Platform abstracts the host's serial access so the transport, framing and
// drain logic never touch a concrete serial library. Production code uses
// BugstPlatform; tests use MockPlatform.
type Platform interface {
	// RequestPort selects a serial port on the host. Returns ErrUnavailable
	// when the host has no serial capability and ErrPort when selection fails.
	RequestPort() (Port, error)
}

// Port is a selected but not necessarily open serial port.
type Port interface {
	// Open opens the port at the given baud rate (8N1).
	Open(baud int) error

	// Writer returns the port's output stream. One Write call per command;
	// the transport serializes writers itself.
	Writer() (io.Writer, error)

	// Reader returns a new reader claim on the port's input stream. The
	// underlying stream permits only one claim at a time; the transport
	// guarantees it never requests a second one while the first is live.
	Reader() (Reader, error)

	// Close closes the port.
	Close() error
}

// Reader is a claim on the port's input stream.
type Reader interface {
	// ReadChunk performs one read and returns whatever bytes arrived.
	// An empty chunk with a nil error means the stream completed or the
	// reader was cancelled with nothing pending.
	ReadChunk() ([]byte, error)

	// Cancel interrupts an in-flight or idle read and releases the claim.
	Cancel() error
}
