// File: api/future.go
// Package api defines asynchronous write completion.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// WriteFuture tracks an asynchronous write.
//
// The only sequencing primitive in wspipe: a continuation registered with
// OnComplete runs after the write settles, whether it succeeded or failed.
// An action chained on a future never runs before the write is observed.
type WriteFuture interface {
	// Done is closed once the write settles.
	Done() <-chan struct{}

	// Err returns the write error, or nil. Valid after Done is closed.
	Err() error

	// OnComplete registers fn to run once the write settles. If the future
	// already settled, fn runs immediately.
	OnComplete(fn func(err error))
}
