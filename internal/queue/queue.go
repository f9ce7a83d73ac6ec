// Package queue provides the ordered track queue shared between a playback
// session's public API and its background playback loop.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sonroyaalmerol/torabot/internal/utils"
)

// ErrOutOfRange is returned by RemoveAt for an index outside [0, Len()).
var ErrOutOfRange = errors.New("queue index out of range")

// Queue is an ordered collection of values of type T. All methods are safe
// for concurrent use: any number of mutators may interleave with a single
// waiter blocked in DequeueWait.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T

	// wake unblocks the (at most one) DequeueWait caller. Buffered so that
	// Enqueue never blocks when nobody is waiting.
	wake chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{wake: make(chan struct{}, 1)}
}

// Enqueue appends t to the end of the queue and wakes a waiter if one is
// blocked in DequeueWait.
func (q *Queue[T]) Enqueue(t T) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// DequeueWait removes and returns the head of the queue, blocking until an
// item is available or ctx is done. The lock is not held while suspended.
func (q *Queue[T]) DequeueWait(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			head := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return head, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.wake:
			// re-check under lock; the item may have been removed or
			// cleared between the wake and re-acquiring the lock
		}
	}
}

// RemoveAt removes and discards the item at 0-based position i in current
// order. Returns ErrOutOfRange without modifying the queue if i is invalid.
func (q *Queue[T]) RemoveAt(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.items) {
		return ErrOutOfRange
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	return nil
}

// Shuffle rearranges the pending items into a uniformly random permutation.
func (q *Queue[T]) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) < 2 {
		return
	}
	utils.ShuffleSlice(q.items)
}

// Clear discards all pending items.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Len reports the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Slice returns a copy of the items in [start, end), clamped to the current
// bounds. An empty slice is returned when start is past the end.
func (q *Queue[T]) Slice(start, end int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end > len(q.items) {
		end = len(q.items)
	}
	if start >= end {
		return []T{}
	}
	out := make([]T, end-start)
	copy(out, q.items[start:end])
	return out
}
