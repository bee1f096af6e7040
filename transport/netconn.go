// File: transport/netconn.go
// Package transport adapts net.Conn streams to the api.Transport contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/wspipe/api"
)

// NetConn wraps a net.Conn as an api.Transport. Close is idempotent and
// reads racing a close observe api.ErrTransportClosed.
type NetConn struct {
	conn      net.Conn
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewNetConn wraps c. For TCP connections Nagle's algorithm is disabled
// so small frames leave immediately.
func NewNetConn(c net.Conn) *NetConn {
	if tc, ok := c.(*net.TCPConn); ok {
		setNoDelay(tc)
	}
	return &NetConn{conn: c}
}

func (t *NetConn) Read(p []byte) (int, error) {
	if t.closed.Load() {
		return 0, api.ErrTransportClosed
	}
	n, err := t.conn.Read(p)
	if err != nil && t.closed.Load() {
		return n, api.ErrTransportClosed
	}
	return n, err
}

func (t *NetConn) Write(p []byte) (int, error) {
	if t.closed.Load() {
		return 0, api.ErrTransportClosed
	}
	return t.conn.Write(p)
}

func (t *NetConn) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *NetConn) Closed() bool { return t.closed.Load() }

// RemoteAddr exposes the peer address for logging.
func (t *NetConn) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }
