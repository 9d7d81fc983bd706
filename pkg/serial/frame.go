package serial

import "strings"

// Delimiter terminates every command and response in the radio's protocol.
const Delimiter = ';'

// frameBuffer accumulates decoded chunks and hands out complete frames in
// FIFO order. A frame split across reads is reassembled; a partial tail is
// retained until its delimiter arrives. Callers serialize access through the
// transport's read lock.
type frameBuffer struct {
	pending string
}

// Append adds a decoded chunk to the buffer.
func (f *frameBuffer) Append(chunk string) {
	f.pending += chunk
}

// Next extracts the oldest complete frame, including its delimiter.
func (f *frameBuffer) Next() (string, bool) {
	idx := strings.IndexByte(f.pending, Delimiter)
	if idx < 0 {
		return "", false
	}
	frame := f.pending[:idx+1]
	f.pending = f.pending[idx+1:]
	return frame, true
}

// Reset discards all buffered bytes.
func (f *frameBuffer) Reset() {
	f.pending = ""
}

// Len reports how many undelivered bytes the buffer holds.
func (f *frameBuffer) Len() int {
	return len(f.pending)
}
