// Package queue provides the bounded FIFO that couples the parser to the
// worker pool: producers block while it is full instead of growing it.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Enqueue after Close, and by Dequeue once a closed
// queue has been drained.
var ErrClosed = errors.New("queue is closed")

// Queue is a fixed-capacity, blocking FIFO safe for concurrent use.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf    []T
	head   int
	size   int
	closed bool
}

// New creates a queue holding at most capacity items (minimum 1).
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends v, blocking while the queue is full. It fails only when the
// queue is closed or ctx is done; a full queue is never an error.
func (q *Queue[T]) Enqueue(ctx context.Context, v T) error {
	stop := q.wakeOnDone(ctx, q.notFull)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if q.size < len(q.buf) {
			break
		}
		q.notFull.Wait()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = v
	q.size++
	// Broadcast, not Signal: a waiter whose ctx just ended must not swallow the wakeup.
	q.notEmpty.Broadcast()
	return nil
}

// Dequeue removes the oldest item, blocking while the queue is empty. After
// Close it keeps handing out the remaining items, then returns ErrClosed.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	stop := q.wakeOnDone(ctx, q.notEmpty)
	defer stop()

	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size == 0 {
		if q.closed {
			return zero, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.notEmpty.Wait()
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.notFull.Broadcast()
	return v, nil
}

// Close stops intake and wakes every waiter. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len is the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap is the fixed capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// wakeOnDone broadcasts c when ctx ends so a waiter can notice cancellation.
func (q *Queue[T]) wakeOnDone(ctx context.Context, c *sync.Cond) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		c.Broadcast()
		q.mu.Unlock()
	})
	return func() { stop() }
}
