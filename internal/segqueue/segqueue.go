// Package segqueue provides the append-only ordered queue backing a
// playback session. Items arrive incrementally while a consumer awaits
// them by index, or get replaced wholesale for batch playback.
package segqueue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when appending to a closed queue.
var ErrClosed = errors.New("segqueue: queue is closed")

// Queue is a thread-safe ordered queue. Append never blocks; Await
// blocks until the requested index exists, the stream ends, or the
// context is done.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	change chan struct{}
}

// New creates an empty open queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{change: make(chan struct{})}
}

// Append adds one item to the tail.
func (q *Queue[T]) Append(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.broadcast()
	return nil
}

// Replace swaps the entire contents and reopens the queue.
func (q *Queue[T]) Replace(items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = make([]T, len(items))
	copy(q.items, items)
	q.closed = false
	q.broadcast()
}

// Get returns the item at index i if present.
func (q *Queue[T]) Get(i int) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if i < 0 || i >= len(q.items) {
		return zero, false
	}
	return q.items[i], true
}

// Len returns the current number of items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the end of the stream. Awaiters past the tail unblock.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.broadcast()
}

// Closed reports whether the stream has ended.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Await blocks until index i is available. ok is false when the queue
// closed before i arrived or ctx finished.
func (q *Queue[T]) Await(ctx context.Context, i int) (T, bool) {
	var zero T
	for {
		q.mu.Lock()
		if i >= 0 && i < len(q.items) {
			item := q.items[i]
			q.mu.Unlock()
			return item, true
		}
		if q.closed {
			q.mu.Unlock()
			return zero, false
		}
		ch := q.change
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// broadcast wakes all awaiters; caller holds the lock.
func (q *Queue[T]) broadcast() {
	close(q.change)
	q.change = make(chan struct{})
}
