// File: wsserver/events.go
// Package wsserver defines handshake lifecycle state and events.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsserver

import "net/http"

// HandshakeState is the per-connection handshake lifecycle.
type HandshakeState int32

const (
	StateNone HandshakeState = iota
	StateInProgress
	StateComplete
	StateFailed
)

func (s HandshakeState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateInProgress:
		return "in-progress"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HandshakeComplete is fired into the pipeline once the connection has
// been upgraded. Immutable snapshot of the upgrade request.
type HandshakeComplete struct {
	RequestURI          string
	RequestHeaders      http.Header
	SelectedSubprotocol string
}

// HandshakeTimeout is fired when the upgrade exchange did not finish
// within the configured handshake deadline.
type HandshakeTimeout struct{}

// HandshakeStateEvent is the legacy completion notification, fired
// immediately before HandshakeComplete.
//
// Deprecated: consume HandshakeComplete instead; it carries the request
// URI, headers, and selected subprotocol.
type HandshakeStateEvent int

// EventHandshakeComplete is the only legacy event value still emitted.
const EventHandshakeComplete HandshakeStateEvent = iota
