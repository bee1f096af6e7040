// File: pipeline/handler.go
// Package pipeline defines the handler capability interfaces.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

// Handlers implement any subset of the capability interfaces below. The
// pipeline skips a handler for traffic kinds it does not implement.

// InboundHandler receives inbound messages. A handler that wants the
// message to continue down the chain calls ctx.FireRead.
type InboundHandler interface {
	OnRead(ctx *Context, msg any)
}

// EventHandler receives user events such as handshake notifications.
type EventHandler interface {
	OnEvent(ctx *Context, evt any)
}

// ErrorHandler receives failures traveling down the chain.
type ErrorHandler interface {
	OnError(ctx *Context, err error)
}

// AttachHandler is notified when it is linked into a pipeline. Composition
// logic (inserting collaborators upstream) lives here.
type AttachHandler interface {
	OnAdded(ctx *Context)
}

// GracefulCloser intercepts a locally initiated graceful close. The first
// handler in the chain implementing it receives Conn.CloseGracefully.
type GracefulCloser interface {
	OnClose(ctx *Context)
}
