// File: wsserver/frame_codec.go
// Package wsserver implements the byte-to-frame pipeline stage.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver

import (
	"bufio"
	"bytes"
	"net/http"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// FrameCodec decodes raw transport buffers into frames. Installed at the
// pipeline head by the handshake handler once the connection is upgraded.
// A plain-HTTP request head arriving instead of frame bytes is parsed and
// forwarded as *http.Request so the forbidden responder can answer it.
type FrameCodec struct {
	dec *protocol.Decoder
}

// NewFrameCodec builds a codec stage drawing payloads from pool.
func NewFrameCodec(cfg protocol.DecoderConfig, pool api.BufferPool) *FrameCodec {
	return &FrameCodec{dec: protocol.NewDecoder(cfg, pool)}
}

// OnRead decodes buffered bytes and forwards each complete frame.
func (c *FrameCodec) OnRead(ctx *pipeline.Context, msg any) {
	buf, ok := msg.(api.Buffer)
	if !ok {
		ctx.FireRead(msg)
		return
	}
	if c.dec.Buffered() == 0 {
		if req := parseStrayHTTPRequest(buf.Bytes()); req != nil {
			buf.Release()
			ctx.FireRead(req)
			return
		}
	}
	frames, err := c.dec.Decode(buf.Bytes())
	buf.Release()
	if err != nil {
		ctx.FireError(err)
		return
	}
	for _, f := range frames {
		ctx.FireRead(f)
	}
}

// Methods that can begin a plain-HTTP request. A websocket frame's first
// byte is never an ASCII method letter followed by the rest of a request
// line ending in a blank line, so the prefix test cannot claim frames.
var httpMethodPrefixes = [][]byte{
	[]byte("GET "), []byte("HEAD "), []byte("POST "), []byte("PUT "),
	[]byte("DELETE "), []byte("OPTIONS "), []byte("PATCH "),
}

// parseStrayHTTPRequest returns the parsed request when b holds a complete
// HTTP request head, nil otherwise.
func parseStrayHTTPRequest(b []byte) *http.Request {
	method := false
	for _, m := range httpMethodPrefixes {
		if bytes.HasPrefix(b, m) {
			method = true
			break
		}
	}
	if !method || !bytes.Contains(b, headerEnd) {
		return nil
	}
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(b)))
	if err != nil {
		return nil
	}
	return req
}
