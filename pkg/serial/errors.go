package serial

import "errors"

// Error kinds surfaced by the transport. Callers match them with errors.Is;
// wrapped variants carry the underlying cause.
var (
	// ErrUnavailable means the host exposes no serial capability at all.
	ErrUnavailable = errors.New("serial not available on this host")

	// ErrPort means port selection or the open call failed.
	ErrPort = errors.New("serial port selection or open failed")

	// ErrNotConnected means no connection handle exists.
	ErrNotConnected = errors.New("serial not connected")

	// ErrNotWritable means the connection exposes no output stream.
	ErrNotWritable = errors.New("serial port not writable")

	// ErrNotReadable means the connection exposes no input stream.
	ErrNotReadable = errors.New("serial port not readable")

	// ErrIO is a transport-level read or write failure.
	ErrIO = errors.New("serial I/O failure")
)
