// File: pipeline/context.go
// Package pipeline implements the per-handler context.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import "github.com/momentics/wspipe/api"

// Context is a handler's view of its position in the chain. Fire methods
// continue propagation downstream of the owning handler.
type Context struct {
	pipe  *Pipeline
	entry *entry
}

// Name returns the handler's registered name.
func (c *Context) Name() string { return c.pipe.nameOf(c.entry) }

// Conn returns the owning connection.
func (c *Context) Conn() *Conn { return c.pipe.conn }

// Pipeline returns the owning pipeline.
func (c *Context) Pipeline() *Pipeline { return c.pipe }

// FireRead passes msg to the next inbound handler.
func (c *Context) FireRead(msg any) {
	c.pipe.fireReadFrom(c.pipe.after(c.entry), msg)
}

// FireEvent passes evt to the next event handler.
func (c *Context) FireEvent(evt any) {
	c.pipe.fireEventFrom(c.pipe.after(c.entry), evt)
}

// FireError passes err to the next error handler.
func (c *Context) FireError(err error) {
	c.pipe.fireErrorFrom(c.pipe.after(c.entry), err)
}

// Write stages p for transmission.
func (c *Context) Write(p []byte) api.WriteFuture {
	return c.pipe.conn.Write(p)
}

// WriteAndFlush stages p and drains the pending queue.
func (c *Context) WriteAndFlush(p []byte) api.WriteFuture {
	return c.pipe.conn.WriteAndFlush(p)
}

// Close tears the connection down immediately.
func (c *Context) Close() {
	c.pipe.conn.Close()
}
