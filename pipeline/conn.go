// File: pipeline/conn.go
// Package pipeline implements the connection owning a handler chain.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One goroutine drives a Conn's inbound traffic. Deadline timers and
// graceful shutdown may stage writes or walk the chain from other
// goroutines, so the write queue and chain structure carry locks. The
// handshaker slot is an explicit field set at most once for the life of
// the connection.

package pipeline

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/wspipe/api"
)

// Conn is a transport session with its pipeline and protocol state.
type Conn struct {
	id   string
	tr   api.Transport
	pool api.BufferPool
	pipe *Pipeline

	// pending holds staged writes in FIFO order until Flush. wmu guards
	// it: timers and graceful shutdown stage writes off the connection
	// goroutine.
	wmu     sync.Mutex
	pending *queue.Queue

	// handshaker is the single-slot registry for the negotiated handshake
	// object. Set at most once; read for the life of the connection.
	handshaker any

	protoVersion string

	done      chan struct{}
	closeOnce sync.Once
}

type pendingWrite struct {
	p   []byte
	fut *future
}

// NewConn binds a transport to a fresh pipeline.
func NewConn(id string, tr api.Transport, pool api.BufferPool) *Conn {
	c := &Conn{
		id:           id,
		tr:           tr,
		pool:         pool,
		pending:      queue.New(),
		protoVersion: "HTTP/1.1",
		done:         make(chan struct{}),
	}
	c.pipe = newPipeline(c)
	return c
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// Pipeline returns the connection's handler chain.
func (c *Conn) Pipeline() *Pipeline { return c.pipe }

// Transport returns the underlying byte stream.
func (c *Conn) Transport() api.Transport { return c.tr }

// BufferPool returns the pool payload buffers are drawn from.
func (c *Conn) BufferPool() api.BufferPool { return c.pool }

// Handshaker returns the negotiated handshake object, or nil before the
// upgrade completed.
func (c *Conn) Handshaker() any { return c.handshaker }

// SetHandshaker stores the handshake object. A second call is ignored:
// a connection has at most one handshaker, never replaced.
func (c *Conn) SetHandshaker(h any) {
	if c.handshaker != nil {
		return
	}
	c.handshaker = h
}

// ProtoVersion returns the HTTP version the connection spoke before the
// upgrade.
func (c *Conn) ProtoVersion() string { return c.protoVersion }

// SetProtoVersion records the HTTP version observed on the upgrade request.
func (c *Conn) SetProtoVersion(v string) {
	if v != "" {
		c.protoVersion = v
	}
}

// Write stages p and returns a future settling when the write reaches the
// transport. Ordering across writes follows staging order.
func (c *Conn) Write(p []byte) api.WriteFuture {
	fut := newFuture()
	if c.IsClosed() {
		fut.complete(api.ErrTransportClosed)
		return fut
	}
	c.wmu.Lock()
	c.pending.Add(pendingWrite{p: p, fut: fut})
	c.wmu.Unlock()
	return fut
}

// Flush drains staged writes to the transport in order, settling each
// future with its outcome. The transport write and the completion run
// outside the queue lock: continuations may stage and flush more writes.
func (c *Conn) Flush() {
	for {
		c.wmu.Lock()
		if c.pending.Length() == 0 {
			c.wmu.Unlock()
			return
		}
		w := c.pending.Remove().(pendingWrite)
		c.wmu.Unlock()

		var err error
		if c.IsClosed() {
			err = api.ErrTransportClosed
		} else {
			_, err = c.tr.Write(w.p)
		}
		w.fut.complete(err)
	}
}

// WriteAndFlush stages p and flushes immediately.
func (c *Conn) WriteAndFlush(p []byte) api.WriteFuture {
	fut := c.Write(p)
	c.Flush()
	return fut
}

// Close tears down the transport. Idempotent; staged writes settle with
// api.ErrTransportClosed on the next flush.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.tr.Close()
	})
}

// CloseGracefully initiates the close sequence. The first GracefulCloser
// in the chain takes over; without one the transport closes immediately.
// Safe to call from any goroutine.
func (c *Conn) CloseGracefully() {
	for e := c.pipe.first(); e != nil; e = c.pipe.after(e) {
		if h, ok := c.pipe.handlerOf(e).(GracefulCloser); ok {
			h.OnClose(&e.ctx)
			return
		}
	}
	c.Close()
}

// IsClosed reports whether Close has run.
func (c *Conn) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done is closed when the connection closes.
func (c *Conn) Done() <-chan struct{} { return c.done }
