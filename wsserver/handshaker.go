// File: wsserver/handshaker.go
// Package wsserver defines the negotiated handshake object.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver

import (
	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// Handshaker is the per-connection object produced by a successful
// upgrade. Exactly one per connection; never replaced.
type Handshaker struct {
	// Subprotocol selected during negotiation, empty when none matched.
	Subprotocol string

	// Compression reports an acknowledged permessage-deflate offer.
	Compression bool

	// RequireMask is the masking policy applied to inbound frames.
	RequireMask bool
}

// HandshakerFor reads the connection's handshaker slot. Nil before the
// upgrade completed.
func HandshakerFor(c *pipeline.Conn) *Handshaker {
	h, _ := c.Handshaker().(*Handshaker)
	return h
}

// Close performs the close handshake with the peer: the peer's close frame
// is echoed back and the connection closes once that write settles,
// whether or not it succeeded.
//
// Close consumes the caller's reference on frame; retain before calling.
func (h *Handshaker) Close(c *pipeline.Conn, frame *protocol.Frame) api.WriteFuture {
	data := protocol.EncodeFrame(frame)
	frame.Release()

	fut := c.WriteAndFlush(data)
	fut.OnComplete(func(error) { c.Close() })
	return fut
}
