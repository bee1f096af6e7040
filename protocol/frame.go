// File: protocol/frame.go
// Package protocol implements the WebSocket frame model for wspipe.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Frame owns its payload buffer through a reference count. Handing a
// frame to a routine that consumes it asynchronously requires an explicit
// Retain first; the routine performs the matching Release.

package protocol

import (
	"sync/atomic"

	"github.com/momentics/wspipe/api"
)

// Frame is a single decoded WebSocket frame.
type Frame struct {
	Fin    bool
	Opcode byte
	Masked bool

	payload api.Buffer // nil for empty payloads
	refs    int32
}

// NewFrame builds a frame with one reference. The frame takes over the
// caller's reference on payload.
func NewFrame(opcode byte, fin bool, payload api.Buffer) *Frame {
	return &Frame{Fin: fin, Opcode: opcode, payload: payload, refs: 1}
}

// Payload returns the frame body. Empty for frames without payload.
func (f *Frame) Payload() []byte {
	if f.payload == nil {
		return nil
	}
	return f.payload.Bytes()
}

// Retain extends the frame's lifetime by one reference.
func (f *Frame) Retain() *Frame {
	if atomic.AddInt32(&f.refs, 1) <= 1 {
		panic(api.ErrBufferReleased)
	}
	return f
}

// Release drops one reference. The final release returns the payload
// buffer to its pool.
func (f *Frame) Release() {
	n := atomic.AddInt32(&f.refs, -1)
	if n < 0 {
		panic(api.ErrBufferReleased)
	}
	if n == 0 && f.payload != nil {
		f.payload.Release()
	}
}

// Refs exposes the current reference count for lifetime assertions.
func (f *Frame) Refs() int32 { return atomic.LoadInt32(&f.refs) }

// IsControl reports whether the frame is a close, ping, or pong frame.
func (f *Frame) IsControl() bool { return f.Opcode >= OpcodeClose }
