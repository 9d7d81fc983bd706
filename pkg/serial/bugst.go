package serial

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	bugst "go.bug.st/serial"

	"github.com/sotachaser/sotad/pkg/verbose"
)

// readTimeout bounds each low-level read so Cancel can interrupt an idle
// reader within one timeout interval.
const readTimeout = 50 * time.Millisecond

// BugstPlatform opens real serial ports via go.bug.st/serial.
type BugstPlatform struct {
	// Device is the preferred port path (e.g. /dev/ttyUSB0). When empty the
	// first enumerated port is selected.
	Device string
}

// RequestPort enumerates the host's serial ports and selects the configured
// device, or the first port when no device is configured.
func (p *BugstPlatform) RequestPort() (Port, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ports) == 0 {
		return nil, ErrUnavailable
	}

	path := p.Device
	if path == "" {
		path = ports[0]
	} else {
		found := false
		for _, candidate := range ports {
			if candidate == path {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: device %s not present", ErrPort, path)
		}
	}

	return &bugstPort{path: path}, nil
}

type bugstPort struct {
	path string
	port bugst.Port
}

func (b *bugstPort) Open(baud int) error {
	mode := &bugst.Mode{BaudRate: baud}
	port, err := bugst.Open(b.path, mode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrPort, b.path, err)
	}
	b.port = port
	verbose.Printf("Serial: opened %s at %d baud", b.path, baud)
	return nil
}

func (b *bugstPort) Writer() (io.Writer, error) {
	if b.port == nil {
		return nil, ErrNotWritable
	}
	return b.port, nil
}

func (b *bugstPort) Reader() (Reader, error) {
	if b.port == nil {
		return nil, ErrNotReadable
	}
	if err := b.port.SetReadTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("%w: set read timeout: %v", ErrNotReadable, err)
	}
	return &bugstReader{port: b.port}, nil
}

func (b *bugstPort) Close() error {
	if b.port == nil {
		return nil
	}
	err := b.port.Close()
	b.port = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, b.path, err)
	}
	verbose.Printf("Serial: closed %s", b.path)
	return nil
}

// bugstReader waits for data in short timeout slices so a Cancel takes effect
// within one readTimeout interval instead of blocking on a silent device.
type bugstReader struct {
	port      bugst.Port
	cancelled atomic.Bool
}

func (r *bugstReader) ReadChunk() ([]byte, error) {
	buf := make([]byte, 256)
	for !r.cancelled.Load() {
		n, err := r.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: read: %v", ErrIO, err)
		}
		if n > 0 {
			return buf[:n], nil
		}
		// zero bytes: the read timeout expired with no data, poll again
	}
	return nil, nil
}

func (r *bugstReader) Cancel() error {
	r.cancelled.Store(true)
	return nil
}
