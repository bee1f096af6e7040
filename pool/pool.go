// File: pool/pool.go
// Package pool provides reference-counted, size-classed payload buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Frames borrow their payload storage from a Pool. Buffers carry an atomic
// reference count; the final Release returns the region to its size class.

package pool

import (
	"sync/atomic"

	"github.com/momentics/wspipe/api"
)

// Size classes for pooled regions. Requests above the largest class are
// allocated directly and never recycled.
var classes = []int{256, 1 << 10, 4 << 10, 16 << 10, 64 << 10}

const classCapacity = 1024

// Pool implements api.BufferPool with per-class free lists.
type Pool struct {
	lists []chan *buffer
}

// New constructs an empty pool.
func New() *Pool {
	p := &Pool{lists: make([]chan *buffer, len(classes))}
	for i := range p.lists {
		p.lists[i] = make(chan *buffer, classCapacity)
	}
	return p
}

// Get returns a buffer of exactly size bytes with one reference.
func (p *Pool) Get(size int) api.Buffer {
	ci := classIndex(size)
	if ci >= 0 {
		select {
		case b := <-p.lists[ci]:
			b.data = b.data[:size]
			atomic.StoreInt32(&b.refs, 1)
			return b
		default:
		}
		b := &buffer{data: make([]byte, size, classes[ci]), class: ci, pool: p, refs: 1}
		return b
	}
	return &buffer{data: make([]byte, size), class: -1, pool: p, refs: 1}
}

// Put returns a fully released buffer's region to its free list.
func (p *Pool) Put(b api.Buffer) {
	pb, ok := b.(*buffer)
	if !ok || pb.class < 0 {
		return
	}
	select {
	case p.lists[pb.class] <- pb:
	default:
	}
}

func classIndex(size int) int {
	for i, c := range classes {
		if size <= c {
			return i
		}
	}
	return -1
}

// buffer is the pooled api.Buffer implementation.
type buffer struct {
	data  []byte
	refs  int32
	class int
	pool  *Pool
}

func (b *buffer) Bytes() []byte {
	if atomic.LoadInt32(&b.refs) <= 0 {
		panic(api.ErrBufferReleased)
	}
	return b.data
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Retain() {
	if atomic.AddInt32(&b.refs, 1) <= 1 {
		panic(api.ErrBufferReleased)
	}
}

func (b *buffer) Release() {
	n := atomic.AddInt32(&b.refs, -1)
	if n < 0 {
		panic(api.ErrBufferReleased)
	}
	if n == 0 {
		b.pool.Put(b)
	}
}

// Wrap copies p into a pooled buffer. Convenience for callers holding a
// transient slice whose backing storage they do not own.
func (p *Pool) Wrap(src []byte) api.Buffer {
	b := p.Get(len(src))
	copy(b.Bytes(), src)
	return b
}
