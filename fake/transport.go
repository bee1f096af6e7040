// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the core interfaces.

package fake

import (
	"io"
	"sync"

	"github.com/momentics/wspipe/api"
)

// Transport is a controllable api.Transport recording every write.
type Transport struct {
	mu         sync.Mutex
	writes     [][]byte
	reads      [][]byte
	closed     bool
	closeCount int
	writeError error
}

// NewTransport creates a fake transport with no scripted reads.
func NewTransport() *Transport {
	return &Transport{}
}

// FailWrites makes every subsequent Write return err.
func (t *Transport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeError = err
}

// QueueRead scripts p as a future Read result.
func (t *Transport) QueueRead(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads = append(t.reads, p)
}

// Read pops the next scripted read, or io.EOF when none remain.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, api.ErrTransportClosed
	}
	if len(t.reads) == 0 {
		return 0, io.EOF
	}
	n := copy(p, t.reads[0])
	if n == len(t.reads[0]) {
		t.reads = t.reads[1:]
	} else {
		t.reads[0] = t.reads[0][n:]
	}
	return n, nil
}

// Write records p. Returns the scripted write error, if any.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, api.ErrTransportClosed
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	t.writes = append(t.writes, cp)
	if t.writeError != nil {
		return 0, t.writeError
	}
	return len(p), nil
}

// Close marks the transport closed and counts invocations.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCount++
	t.closed = true
	return nil
}

// Closed implements api.Transport.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Writes returns a snapshot of all recorded writes.
func (t *Transport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// CloseCount returns how many times Close ran.
func (t *Transport) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCount
}
