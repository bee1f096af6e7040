// File: server/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sharded, thread-safe connection registry for high concurrency.

package server

import (
	"hash/fnv"
	"sync"

	"github.com/momentics/wspipe/pipeline"
)

// Registry tracks live connections by id across shards.
type Registry struct {
	shards []*registryShard
	mask   uint32
}

type registryShard struct {
	mu    sync.RWMutex
	conns map[string]*pipeline.Conn
}

// NewRegistry constructs a registry with shardCount shards, rounded up to
// a power of two for bitmasking.
func NewRegistry(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*registryShard, m)
	for i := range shards {
		shards[i] = &registryShard{conns: make(map[string]*pipeline.Conn)}
	}
	return &Registry{shards: shards, mask: m - 1}
}

func (r *Registry) shard(id string) *registryShard {
	return r.shards[fnv32(id)&r.mask]
}

// Add registers a connection under its id.
func (r *Registry) Add(c *pipeline.Conn) {
	sh := r.shard(c.ID())
	sh.mu.Lock()
	sh.conns[c.ID()] = c
	sh.mu.Unlock()
}

// Get fetches a connection if present.
func (r *Registry) Get(id string) (*pipeline.Conn, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	c, ok := sh.conns[id]
	return c, ok
}

// Delete removes a connection.
func (r *Registry) Delete(id string) {
	sh := r.shard(id)
	sh.mu.Lock()
	delete(sh.conns, id)
	sh.mu.Unlock()
}

// Range calls fn for every registered connection.
func (r *Registry) Range(fn func(*pipeline.Conn)) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		conns := make([]*pipeline.Conn, 0, len(sh.conns))
		for _, c := range sh.conns {
			conns = append(conns, c)
		}
		sh.mu.RUnlock()
		for _, c := range conns {
			fn(c)
		}
	}
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.conns)
		sh.mu.RUnlock()
	}
	return n
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	if v == 0 {
		return 1
	}
	return v
}
