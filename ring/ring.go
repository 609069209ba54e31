// Package ring provides typed counterparts of the byte queues: a bounded
// FIFO over values of any type, and a variant that drops duplicates.
//
// Values are stored by assignment, so no element size or byte copying is
// involved. Like the byte queues, a Ring is NOT safe for concurrent use.
package ring

import "iter"

// Ring is a bounded FIFO of T.
type Ring[T any] struct {
	// head counts pushes and tail counts pops; they only grow, and the
	// slot of a counter is counter % capacity.
	head uint64
	tail uint64

	capacity uint64

	buffer []T
}

// New returns a ring holding up to capacity values.
// It panics if capacity is not positive.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}

	return &Ring[T]{
		capacity: uint64(capacity),

		buffer: make([]T, capacity),
	}
}

func (r *Ring[T]) index(counter uint64) uint64 {
	return counter % r.capacity
}

// Push appends item and returns false if the ring is full.
func (r *Ring[T]) Push(item T) bool {
	if r.head-r.tail >= r.capacity {
		return false
	}

	r.buffer[r.index(r.head)] = item
	r.head++

	return true
}

// Pop removes and returns the oldest item.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	if r.head == r.tail {
		return zero, false
	}

	idx := r.index(r.tail)
	item := r.buffer[idx]
	r.buffer[idx] = zero
	r.tail++

	return item, true
}

// Peek returns the oldest item without removing it.
func (r *Ring[T]) Peek() (T, bool) {
	if r.head == r.tail {
		var zero T
		return zero, false
	}

	return r.buffer[r.index(r.tail)], true
}

func (r *Ring[T]) Len() int {
	return int(r.head - r.tail)
}

func (r *Ring[T]) Cap() int {
	return int(r.capacity)
}

func (r *Ring[T]) IsEmpty() bool {
	return r.head == r.tail
}

func (r *Ring[T]) IsFull() bool {
	return r.head-r.tail == r.capacity
}

// All iterates over the stored items from the oldest to the newest.
func (r *Ring[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for c := r.tail; c != r.head; c++ {
			if !yield(r.buffer[r.index(c)]) {
				return
			}
		}
	}
}

// Find reports whether match holds for any stored item.
func (r *Ring[T]) Find(match func(T) bool) bool {
	for item := range r.All() {
		if match(item) {
			return true
		}
	}
	return false
}

// Flush removes every item.
func (r *Ring[T]) Flush() {
	clear(r.buffer)
	r.head = 0
	r.tail = 0
}
