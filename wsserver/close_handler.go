// File: wsserver/close_handler.go
// Package wsserver implements the close sequence coordinator.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CloseHandler owns locally initiated close sequences: it sends the
// configured close status, waits for the peer's acknowledgment, and closes
// the transport. A forced-close deadline guarantees no connection stays
// half-closed indefinitely.

package wsserver

import (
	"sync"
	"time"

	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// CloseHandler executes the graceful close sequence with a bounded wait.
type CloseHandler struct {
	status  CloseStatus
	timeout time.Duration

	// mu guards the sequence state: OnClose may arrive from the shutdown
	// goroutine while the connection goroutine is still delivering frames.
	mu          sync.Mutex
	sent        bool
	awaitingAck bool
	timer       *time.Timer
	finishOnce  sync.Once
}

// NewCloseHandler builds the close coordinator. A zero timeout waits for
// the peer's acknowledgment indefinitely.
func NewCloseHandler(status CloseStatus, timeout time.Duration) *CloseHandler {
	return &CloseHandler{status: status, timeout: timeout}
}

// OnClose initiates the close sequence once: send the configured status,
// then wait for the acknowledgment under the forced-close deadline.
func (h *CloseHandler) OnClose(ctx *pipeline.Context) {
	h.mu.Lock()
	if h.sent {
		h.mu.Unlock()
		return
	}
	h.sent = true
	h.awaitingAck = true
	if h.timeout > 0 {
		h.timer = time.AfterFunc(h.timeout, func() { h.finish(ctx) })
	}
	h.mu.Unlock()

	ctx.WriteAndFlush(protocol.EncodeClose(h.status.Code, h.status.Reason))
}

// OnRead consumes the peer's close acknowledgment; everything else flows
// through.
func (h *CloseHandler) OnRead(ctx *pipeline.Context, msg any) {
	if f, ok := msg.(*protocol.Frame); ok && f.Opcode == protocol.OpcodeClose && h.awaiting() {
		f.Release()
		h.finish(ctx)
		return
	}
	ctx.FireRead(msg)
}

func (h *CloseHandler) awaiting() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.awaitingAck
}

// finish closes the transport exactly once, via acknowledgment or the
// forced-close deadline, whichever fires first.
func (h *CloseHandler) finish(ctx *pipeline.Context) {
	h.finishOnce.Do(func() {
		h.mu.Lock()
		if h.timer != nil {
			h.timer.Stop()
		}
		h.mu.Unlock()
		ctx.Close()
	})
}
