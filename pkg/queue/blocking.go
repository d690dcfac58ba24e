// Package queue provides a blocking FIFO queue shared by producers and worker goroutines
package queue

import (
	"sync"

	"github.com/jzx17/taskpool/pkg/types"
)

const initialCapacity = 64

// Stats contains queue counters
type Stats struct {
	// Enqueued is the number of items accepted so far
	Enqueued uint64
	// Dequeued is the number of items handed to consumers so far
	Dequeued uint64
	// Length is the number of items currently waiting
	Length int
	// Accepting reports whether Shutdown has not been called yet
	Accepting bool
}

// Blocking is an unbounded FIFO queue safe for concurrent producers and consumers.
//
// Items live in a growable circular buffer guarded by a single mutex.
// Consumers wait on a condition variable that is signaled on Enqueue
// and broadcast on Shutdown.
type Blocking[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	buf        []T
	head, tail int
	size       int

	accepting bool

	enqueued uint64
	dequeued uint64
}

// New creates an empty queue that accepts items
func New[T any]() *Blocking[T] {
	q := &Blocking[T]{
		buf:       make([]T, initialCapacity),
		accepting: true,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends item at the tail and wakes one waiting consumer.
// It never blocks. After Shutdown it returns types.ErrQueueClosed and
// the item is not stored.
func (q *Blocking[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.accepting {
		return types.ErrQueueClosed
	}

	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	q.enqueued++

	q.notEmpty.Signal()
	return nil
}

// Dequeue removes and returns the head item, blocking while the queue is
// empty and still accepting. The boolean is false only at end of stream:
// Shutdown was called and every item has been handed out.
func (q *Blocking[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && q.accepting {
		q.notEmpty.Wait()
	}

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// TryDequeue is the non-blocking form of Dequeue.
// It reports false whenever the queue is empty, closed or not.
func (q *Blocking[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Shutdown stops accepting items and wakes every waiting consumer so each
// can drain the remaining items or observe end of stream. Calling it more
// than once has no further effect.
func (q *Blocking[T]) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.accepting {
		return
	}
	q.accepting = false
	q.notEmpty.Broadcast()
}

// Len returns the number of waiting items
func (q *Blocking[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// IsEmpty reports whether no items are waiting
func (q *Blocking[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Accepting reports whether Shutdown has not been called
func (q *Blocking[T]) Accepting() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.accepting
}

// Stats returns a point-in-time snapshot of the queue counters
func (q *Blocking[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Enqueued:  q.enqueued,
		Dequeued:  q.dequeued,
		Length:    q.size,
		Accepting: q.accepting,
	}
}

// pop must be called with mu held and size > 0
func (q *Blocking[T]) pop() T {
	var zero T
	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.dequeued++
	return item
}

// grow doubles the buffer, unwrapping the ring so head starts at 0.
// Must be called with mu held.
func (q *Blocking[T]) grow() {
	next := make([]T, len(q.buf)*2)
	n := copy(next, q.buf[q.head:])
	copy(next[n:], q.buf[:q.head])
	q.buf = next
	q.head = 0
	q.tail = q.size
}
