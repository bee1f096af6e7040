// Package wsserver
// Author: momentics <momentics@gmail.com>
//
// Server-side WebSocket protocol coordination for wspipe.
//
// ProtocolHandler is the entry point: added to a connection's pipeline, it
// composes the handshake handler, the UTF-8 frame validator, and the close
// handler upstream of itself, then classifies inbound frames so that only
// text and binary payload frames reach application handlers. Control
// traffic (close, ping, pong) is consumed here; handshake failures are
// answered with an HTTP 400 before the connection closes.
package wsserver
