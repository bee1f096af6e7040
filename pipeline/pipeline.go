// File: pipeline/pipeline.go
// Package pipeline implements the named handler chain.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"log"
	"sync"
)

// Pipeline is an ordered chain of named handlers bound to one Conn.
// The connection's goroutine drives normal traffic, but deadline timers
// and graceful shutdown enter from other goroutines, so list structure
// and entry fields are guarded. Handler callbacks run outside the lock.
type Pipeline struct {
	conn *Conn

	mu   sync.Mutex
	head *entry
	tail *entry
}

type entry struct {
	name    string
	handler any
	prev    *entry
	next    *entry
	ctx     Context
}

func newPipeline(c *Conn) *Pipeline {
	return &Pipeline{conn: c}
}

// Conn returns the owning connection.
func (p *Pipeline) Conn() *Conn { return p.conn }

// Contains reports whether a handler with the given name is present.
func (p *Pipeline) Contains(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.find(name) != nil
}

// Get returns the handler registered under name, or nil.
func (p *Pipeline) Get(name string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(name); e != nil {
		return e.handler
	}
	return nil
}

// Names returns handler names in chain order.
func (p *Pipeline) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for e := p.head; e != nil; e = e.next {
		names = append(names, e.name)
	}
	return names
}

// AddLast appends a handler. No-op when name is already present.
func (p *Pipeline) AddLast(name string, h any) bool {
	p.mu.Lock()
	e := p.addLast(name, h)
	p.mu.Unlock()
	if e == nil {
		return false
	}
	p.attached(e)
	return true
}

func (p *Pipeline) addLast(name string, h any) *entry {
	if p.find(name) != nil {
		return nil
	}
	e := p.newEntry(name, h)
	if p.tail == nil {
		p.head, p.tail = e, e
	} else {
		e.prev = p.tail
		p.tail.next = e
		p.tail = e
	}
	return e
}

// AddFirst prepends a handler. No-op when name is already present.
func (p *Pipeline) AddFirst(name string, h any) bool {
	p.mu.Lock()
	if p.find(name) != nil {
		p.mu.Unlock()
		return false
	}
	e := p.newEntry(name, h)
	if p.head == nil {
		p.head, p.tail = e, e
	} else {
		e.next = p.head
		p.head.prev = e
		p.head = e
	}
	p.mu.Unlock()
	p.attached(e)
	return true
}

// InsertBefore links a handler immediately upstream of mark. Idempotent:
// a no-op when a handler named name already exists anywhere in the chain.
// Falls back to appending when mark is absent.
func (p *Pipeline) InsertBefore(mark, name string, h any) bool {
	p.mu.Lock()
	if p.find(name) != nil {
		p.mu.Unlock()
		return false
	}
	var e *entry
	if m := p.find(mark); m == nil {
		e = p.addLast(name, h)
	} else {
		e = p.newEntry(name, h)
		e.prev = m.prev
		e.next = m
		if m.prev != nil {
			m.prev.next = e
		} else {
			p.head = e
		}
		m.prev = e
	}
	p.mu.Unlock()
	if e == nil {
		return false
	}
	p.attached(e)
	return true
}

// Replace swaps the handler under oldName for a new named handler in place.
// The entry is reused, so contexts captured by the old handler stay linked
// into the chain.
func (p *Pipeline) Replace(oldName, newName string, h any) bool {
	p.mu.Lock()
	e := p.find(oldName)
	if e == nil {
		p.mu.Unlock()
		return false
	}
	e.name = newName
	e.handler = h
	p.mu.Unlock()
	p.attached(e)
	return true
}

// Remove unlinks the handler under name.
func (p *Pipeline) Remove(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.find(name)
	if e == nil {
		return false
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		p.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		p.tail = e.prev
	}
	return true
}

// FireRead delivers msg to the first inbound handler.
func (p *Pipeline) FireRead(msg any) {
	p.fireReadFrom(p.first(), msg)
}

// FireEvent delivers evt to the first event handler.
func (p *Pipeline) FireEvent(evt any) {
	p.fireEventFrom(p.first(), evt)
}

// FireError delivers err to the first error handler. An error falling off
// the tail is logged; failure handling must not be silent.
func (p *Pipeline) FireError(err error) {
	p.fireErrorFrom(p.first(), err)
}

// find requires p.mu held.
func (p *Pipeline) find(name string) *entry {
	for e := p.head; e != nil; e = e.next {
		if e.name == name {
			return e
		}
	}
	return nil
}

func (p *Pipeline) newEntry(name string, h any) *entry {
	e := &entry{name: name, handler: h}
	e.ctx = Context{pipe: p, entry: e}
	return e
}

func (p *Pipeline) first() *entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.head
}

func (p *Pipeline) after(e *entry) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.next
}

func (p *Pipeline) handlerOf(e *entry) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.handler
}

func (p *Pipeline) nameOf(e *entry) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.name
}

func (p *Pipeline) attached(e *entry) {
	if ah, ok := p.handlerOf(e).(AttachHandler); ok {
		ah.OnAdded(&e.ctx)
	}
}

func (p *Pipeline) fireReadFrom(from *entry, msg any) {
	for e := from; e != nil; e = p.after(e) {
		if h, ok := p.handlerOf(e).(InboundHandler); ok {
			h.OnRead(&e.ctx, msg)
			return
		}
	}
}

func (p *Pipeline) fireEventFrom(from *entry, evt any) {
	for e := from; e != nil; e = p.after(e) {
		if h, ok := p.handlerOf(e).(EventHandler); ok {
			h.OnEvent(&e.ctx, evt)
			return
		}
	}
}

func (p *Pipeline) fireErrorFrom(from *entry, err error) {
	for e := from; e != nil; e = p.after(e) {
		if h, ok := p.handlerOf(e).(ErrorHandler); ok {
			h.OnError(&e.ctx, err)
			return
		}
	}
	log.Printf("wspipe: conn %s: unhandled pipeline error: %v", p.conn.ID(), err)
}
