// File: wsserver/protocol_handler.go
// Package wsserver implements the protocol coordinator.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ProtocolHandler composes the websocket stack upstream of itself,
// classifies inbound frames so only payload frames travel further, and
// maps failures at the protocol boundary.

package wsserver

import (
	"errors"
	"net/http"

	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// Pipeline handler names. Insertion is keyed by these, which is what makes
// stack composition idempotent.
const (
	NameFrameCodec      = "ws-frame-codec"
	NameHandshake       = "ws-handshake"
	NameUTF8Validator   = "ws-utf8-validator"
	NameCloseHandler    = "ws-close"
	NameProtocolHandler = "ws-protocol"
	NameForbidden       = "http-forbidden"
)

// ProtocolHandler is the server-side websocket protocol coordinator.
type ProtocolHandler struct {
	cfg Config
}

// NewProtocolHandler builds the coordinator for cfg.
func NewProtocolHandler(cfg Config) *ProtocolHandler {
	return &ProtocolHandler{cfg: cfg}
}

// OnAdded composes the protocol stack immediately upstream of the
// coordinator. Every insertion is a no-op when a handler of that kind is
// already present, so re-attachment never duplicates a stage.
//
// The validator is inserted ahead of the close handler: invalid text
// payload is rejected even while a close sequence is in flight.
func (h *ProtocolHandler) OnAdded(ctx *pipeline.Context) {
	cp := ctx.Pipeline()
	cp.InsertBefore(ctx.Name(), NameHandshake, NewHandshakeHandler(h.cfg))
	if h.cfg.WithUTF8Validator {
		cp.InsertBefore(ctx.Name(), NameUTF8Validator, NewUtf8FrameValidator())
	}
	if h.cfg.SendCloseFrame != nil {
		cp.InsertBefore(ctx.Name(), NameCloseHandler,
			NewCloseHandler(*h.cfg.SendCloseFrame, h.cfg.ForceCloseTimeout))
	}
}

// OnRead classifies one inbound frame.
func (h *ProtocolHandler) OnRead(ctx *pipeline.Context, msg any) {
	f, ok := msg.(*protocol.Frame)
	if !ok {
		ctx.FireRead(msg)
		return
	}

	if h.cfg.HandleCloseFrames && f.Opcode == protocol.OpcodeClose {
		conn := ctx.Conn()
		if hs := HandshakerFor(conn); hs != nil {
			// Ownership of one reference moves to the close routine.
			f.Retain()
			hs.Close(conn, f)
		} else {
			// Close before a completed handshake: flush an empty buffer
			// and close once the write settles. A protocol-state
			// condition, not an error.
			ctx.WriteAndFlush(nil).OnComplete(func(error) { ctx.Close() })
		}
		f.Release()
		return
	}

	switch f.Opcode {
	case protocol.OpcodePing:
		ctx.WriteAndFlush(protocol.EncodeRaw(protocol.OpcodePong, true, f.Payload()))
		f.Release()
	case protocol.OpcodePong:
		if h.cfg.DropPongFrames {
			f.Release()
			return
		}
		ctx.FireRead(f)
	default:
		ctx.FireRead(f)
	}
}

// OnError maps failures at the protocol boundary. A handshake failure
// becomes an HTTP 400 whose body is the failure message; the connection
// closes after the response write settles, success or not. Every other
// failure is forwarded to downstream observers first, then the connection
// closes unconditionally.
func (h *ProtocolHandler) OnError(ctx *pipeline.Context, err error) {
	var he *HandshakeError
	if errors.As(err, &he) {
		resp := httpErrorResponse(ctx.Conn().ProtoVersion(), http.StatusBadRequest, []byte(he.Reason))
		ctx.WriteAndFlush(resp).OnComplete(func(error) { ctx.Close() })
		return
	}
	ctx.FireError(err)
	ctx.Close()
}
