// File: wsserver/forbidden.go
// Package wsserver implements the post-upgrade HTTP responder.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver

import (
	"net/http"

	"github.com/momentics/wspipe/pipeline"
)

// ForbiddenRequestResponder rejects stray plain-HTTP traffic on an
// already-upgraded connection. Stateless: complete HTTP requests are
// released and answered with an empty 403; anything else passes through.
type ForbiddenRequestResponder struct{}

// OnRead implements the rejection.
func (ForbiddenRequestResponder) OnRead(ctx *pipeline.Context, msg any) {
	req, ok := msg.(*http.Request)
	if !ok {
		ctx.FireRead(msg)
		return
	}
	if req.Body != nil {
		_ = req.Body.Close()
	}
	ctx.WriteAndFlush(httpErrorResponse(ctx.Conn().ProtoVersion(), http.StatusForbidden, nil))
}
