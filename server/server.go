// File: server/server.go
// Package server accepts TCP connections and runs the websocket protocol
// stack over each one.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Each accepted connection gets its own pipeline: the protocol
// coordinator composes the handshake, validation and close stages, and
// the application installer appends its handlers behind them. A single
// goroutine per connection feeds inbound bytes to the pipeline head.

package server

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/pool"
	"github.com/momentics/wspipe/transport"
	"github.com/momentics/wspipe/wsserver"
)

// readChunk is the per-read buffer size for the connection loop.
const readChunk = 4096

// Installer appends application handlers to a freshly built pipeline.
// It runs after the protocol coordinator is in place.
type Installer func(c *pipeline.Conn)

// Server owns the listener, the buffer pool and the connection registry.
type Server struct {
	cfg      wsserver.Config
	install  Installer
	pool     *pool.Pool
	registry *Registry

	ln       net.Listener
	mu       sync.Mutex
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// New builds a Server for cfg. install may be nil when the protocol
// stack alone is enough.
func New(cfg wsserver.Config, install Installer) *Server {
	return &Server{
		cfg:      cfg,
		install:  install,
		pool:     pool.New(),
		registry: NewRegistry(0),
	}
}

// Registry exposes the live connection set.
func (s *Server) Registry() *Registry { return s.registry }

// ListenAndServe binds addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln until Shutdown. It returns
// api.ErrListenerClosed after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	for {
		c, err := ln.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return api.ErrListenerClosed
			}
			return fmt.Errorf("accept: %w", err)
		}
		conn := s.newConn(c)
		s.registry.Add(conn)
		s.wg.Add(1)
		go s.readLoop(conn)
	}
}

// newConn wraps c with a transport and builds its pipeline.
func (s *Server) newConn(c net.Conn) *pipeline.Conn {
	tr := transport.NewNetConn(c)
	conn := pipeline.NewConn(uuid.NewString(), tr, s.pool)
	conn.Pipeline().AddLast(wsserver.NameProtocolHandler, wsserver.NewProtocolHandler(s.cfg))
	if s.install != nil {
		s.install(conn)
	}
	return conn
}

// readLoop feeds inbound bytes to the pipeline until the transport
// fails or the connection closes.
func (s *Server) readLoop(conn *pipeline.Conn) {
	defer s.wg.Done()
	defer s.registry.Delete(conn.ID())
	defer conn.Close()

	scratch := make([]byte, readChunk)
	for {
		n, err := conn.Transport().Read(scratch)
		if n > 0 {
			conn.Pipeline().FireRead(s.pool.Wrap(scratch[:n]))
		}
		if err != nil {
			if err != api.ErrTransportClosed && !conn.IsClosed() {
				log.Printf("wspipe: conn %s: read: %v", conn.ID(), err)
			}
			return
		}
		if conn.IsClosed() {
			return
		}
	}
}

// Shutdown stops accepting, closes every connection gracefully and
// waits for the read loops to drain.
func (s *Server) Shutdown() error {
	s.shutdown.Store(true)
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.registry.Range(func(c *pipeline.Conn) { c.CloseGracefully() })
	s.wg.Wait()
	return err
}
