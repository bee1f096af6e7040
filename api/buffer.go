// File: api/buffer.go
// Package api defines the buffer contracts for wspipe.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Buffer describes a pool-owned, reference-counted memory region.
//
// A buffer starts with one reference. Retain extends its lifetime before
// handing it to a routine that consumes it asynchronously; Release drops a
// reference and returns the region to its pool when the last one is gone.
// Exactly one owner performs the final release.
type Buffer interface {
	// Bytes returns the current buffer contents.
	Bytes() []byte

	// Len returns the length of the buffer contents.
	Len() int

	// Retain increments the reference count.
	Retain()

	// Release decrements the reference count. After the final Release the
	// buffer must not be used.
	Release()
}

// BufferPool hands out buffers and takes them back once fully released.
type BufferPool interface {
	// Get returns a buffer of exactly 'size' bytes with one reference.
	Get(size int) Buffer

	// Put returns a region to the pool. Called by buffers on final release;
	// callers normally use Buffer.Release instead.
	Put(b Buffer)
}
