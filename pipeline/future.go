// File: pipeline/future.go
// Package pipeline implements write completion futures.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import "sync"

// future implements api.WriteFuture. Completion may be observed from a
// timer goroutine, so settling is guarded.
type future struct {
	mu      sync.Mutex
	done    chan struct{}
	err     error
	settled bool
	cbs     []func(error)
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) Done() <-chan struct{} { return f.done }

func (f *future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *future) OnComplete(fn func(err error)) {
	f.mu.Lock()
	if f.settled {
		err := f.err
		f.mu.Unlock()
		fn(err)
		return
	}
	f.cbs = append(f.cbs, fn)
	f.mu.Unlock()
}

// complete settles the future exactly once and runs continuations in
// registration order.
func (f *future) complete(err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.err = err
	cbs := f.cbs
	f.cbs = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(err)
	}
}
