package ecs

import "sync"

// EventQueue is a double-buffered FIFO safe for concurrent Push. Producers on any goroutine
// push events; the tick goroutine drains them all at once at the tick boundary.
type EventQueue[E any] struct {
	mu      sync.Mutex
	pending []E
	spare   []E
}

// NewEventQueue creates an empty queue with room for capacity events before growing.
func NewEventQueue[E any](capacity int) *EventQueue[E] {
	return &EventQueue[E]{
		pending: make([]E, 0, capacity),
		spare:   make([]E, 0, capacity),
	}
}

// Push appends an event.
func (q *EventQueue[E]) Push(event E) {
	q.mu.Lock()
	q.pending = append(q.pending, event)
	q.mu.Unlock()
}

// Drain removes and returns every queued event in arrival order.
// The returned slice is only valid until the next call to Drain.
func (q *EventQueue[E]) Drain() []E {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	clear(q.spare)
	q.pending = q.spare[:0]
	q.spare = out
	return out
}

// Len returns the number of queued events.
func (q *EventQueue[E]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
