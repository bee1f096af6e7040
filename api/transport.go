// File: api/transport.go
// Package api defines the byte transport contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Transport is a full-duplex byte stream under a connection.
type Transport interface {
	// Read fills p with inbound bytes, blocking until data or error.
	Read(p []byte) (int, error)

	// Write sends p, blocking until accepted by the stream or error.
	Write(p []byte) (int, error)

	// Close tears down the stream. Safe to call more than once.
	Close() error

	// Closed reports whether the stream has been closed.
	Closed() bool
}
