// File: wsserver/handshake_handler.go
// Package wsserver implements the HTTP upgrade handler.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HandshakeHandler sits at the head of the pipeline while the connection
// still speaks HTTP. It accumulates the upgrade request, validates it,
// writes the 101 response, installs the frame codec and the handshaker,
// and replaces itself with the forbidden-request responder.

package wsserver

import (
	"bufio"
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/pipeline"
)

// maxHandshakeHeaderSize bounds the buffered upgrade request.
const maxHandshakeHeaderSize = 8192

var headerEnd = []byte("\r\n\r\n")

// HandshakeHandler performs the server side of the HTTP upgrade exchange.
type HandshakeHandler struct {
	cfg Config

	// mu guards state and timer: the handshake deadline fires off the
	// connection goroutine.
	mu     sync.Mutex
	state  HandshakeState
	timer  *time.Timer
	reqBuf []byte
}

// NewHandshakeHandler builds the upgrade handler for cfg.
func NewHandshakeHandler(cfg Config) *HandshakeHandler {
	return &HandshakeHandler{cfg: cfg}
}

// State returns the current handshake lifecycle state.
func (h *HandshakeHandler) State() HandshakeState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// OnAdded arms the handshake deadline.
func (h *HandshakeHandler) OnAdded(ctx *pipeline.Context) {
	if h.cfg.HandshakeTimeout <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		return
	}
	h.timer = time.AfterFunc(h.cfg.HandshakeTimeout, func() { h.expire(ctx) })
}

// expire fires the timeout event and closes the connection, unless the
// handshake already reached a terminal state.
func (h *HandshakeHandler) expire(ctx *pipeline.Context) {
	h.mu.Lock()
	if h.state == StateComplete || h.state == StateFailed {
		h.mu.Unlock()
		return
	}
	h.state = StateFailed
	h.mu.Unlock()

	ctx.FireEvent(HandshakeTimeout{})
	ctx.Close()
}

// OnRead accumulates raw bytes until the request head is complete, then
// runs the upgrade.
func (h *HandshakeHandler) OnRead(ctx *pipeline.Context, msg any) {
	buf, ok := msg.(api.Buffer)
	if !ok {
		ctx.FireRead(msg)
		return
	}

	h.mu.Lock()
	if h.state == StateNone {
		h.state = StateInProgress
	}
	h.reqBuf = append(h.reqBuf, buf.Bytes()...)
	over := len(h.reqBuf) > maxHandshakeHeaderSize
	idx := bytes.Index(h.reqBuf, headerEnd)
	h.mu.Unlock()
	buf.Release()

	if idx < 0 {
		if over {
			h.fail(ctx, "handshake request headers too large")
		}
		return
	}
	h.upgrade(ctx, h.reqBuf[:idx+len(headerEnd)], h.reqBuf[idx+len(headerEnd):])
}

// upgrade validates the request head and completes the exchange. rest is
// any payload received beyond the head; it is re-injected post-upgrade.
func (h *HandshakeHandler) upgrade(ctx *pipeline.Context, head, rest []byte) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(head)))
	if err != nil {
		h.fail(ctx, fmt.Sprintf("malformed upgrade request: %v", err))
		return
	}
	ctx.Conn().SetProtoVersion(req.Proto)

	if req.Method != http.MethodGet {
		h.fail(ctx, "handshake request must be a GET")
		return
	}
	if !h.pathMatches(req.URL.Path) {
		h.fail(ctx, fmt.Sprintf("no websocket endpoint at %s", req.URL.Path))
		return
	}
	if !isUpgradeRequest(req) {
		h.fail(ctx, "not a websocket upgrade request")
		return
	}
	if !strings.EqualFold(req.Header.Get("Sec-WebSocket-Version"), websocketVersion) {
		h.fail(ctx, "unsupported websocket version")
		return
	}
	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		h.fail(ctx, "missing Sec-WebSocket-Key header")
		return
	}

	subprotocol := selectSubprotocol(h.cfg.Subprotocols, req)
	compress := h.cfg.AllowExtensions && offersPermessageDeflate(req)

	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	sb.WriteString("Upgrade: websocket\r\n")
	sb.WriteString("Connection: Upgrade\r\n")
	sb.WriteString("Sec-WebSocket-Accept: " + computeAcceptKey(key) + "\r\n")
	if subprotocol != "" {
		sb.WriteString("Sec-WebSocket-Protocol: " + subprotocol + "\r\n")
	}
	if compress {
		sb.WriteString("Sec-WebSocket-Extensions: permessage-deflate\r\n")
	}
	sb.WriteString("\r\n")

	h.settle(StateComplete)

	ctx.WriteAndFlush([]byte(sb.String())).OnComplete(func(err error) {
		if err != nil {
			ctx.Close()
			return
		}
		h.install(ctx, req, subprotocol, compress, rest)
	})
}

// install switches the pipeline from HTTP to framed mode and publishes the
// completion events.
func (h *HandshakeHandler) install(ctx *pipeline.Context, req *http.Request, subprotocol string, compress bool, rest []byte) {
	// Drop the accumulated request bytes. The deadline timer keeps this
	// handler reachable after the pipeline swap, and rest aliases the same
	// array for as long as it is needed below.
	h.mu.Lock()
	h.reqBuf = nil
	h.mu.Unlock()

	conn := ctx.Conn()
	conn.SetHandshaker(&Handshaker{
		Subprotocol: subprotocol,
		Compression: compress,
		RequireMask: !h.cfg.AllowMaskMismatch,
	})

	p := ctx.Pipeline()
	p.AddFirst(NameFrameCodec, NewFrameCodec(h.cfg.decoderConfig(), conn.BufferPool()))
	p.Replace(NameHandshake, NameForbidden, ForbiddenRequestResponder{})

	ctx.FireEvent(EventHandshakeComplete)
	ctx.FireEvent(HandshakeComplete{
		RequestURI:          req.RequestURI,
		RequestHeaders:      req.Header,
		SelectedSubprotocol: subprotocol,
	})

	if len(rest) > 0 {
		b := conn.BufferPool().Get(len(rest))
		copy(b.Bytes(), rest)
		p.FireRead(b)
	}
}

// fail marks the handshake failed and raises a HandshakeError; the
// protocol handler downstream maps it to an HTTP 400.
func (h *HandshakeHandler) fail(ctx *pipeline.Context, reason string) {
	h.settle(StateFailed)
	ctx.FireError(&HandshakeError{Reason: reason})
}

// settle records a terminal state and disarms the deadline.
func (h *HandshakeHandler) settle(s HandshakeState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	if h.timer != nil {
		h.timer.Stop()
	}
}

func (h *HandshakeHandler) pathMatches(path string) bool {
	if h.cfg.CheckStartsWith {
		return strings.HasPrefix(path, h.cfg.Path)
	}
	return path == h.cfg.Path
}
