// Package pipeline
// Author: momentics <momentics@gmail.com>
//
// Per-connection handler chain for wspipe.
//
// A Conn owns a transport and a Pipeline: a named, ordered chain of
// handlers driven by a single goroutine per connection. Inbound messages,
// user events, and failures travel head to tail; writes are asynchronous
// and settle through api.WriteFuture continuations.
//
// Handler insertion is keyed by name and idempotent, so composing the same
// protocol stack twice never duplicates a component.
package pipeline
