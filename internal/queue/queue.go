// Package queue implements the bounded FIFO task queue that sits between
// the dispatcher and the worker pool: ready client descriptors go in one
// end, workers pull them out the other. Enqueue blocks while the queue is
// full; Dequeue blocks while it is empty.
package queue

import "sync"

// Queue is a fixed-capacity, thread-safe FIFO of strings.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []string
	capacity int
	closed   bool
}

// New returns a Queue with room for capacity items. capacity must be > 0.
func New(capacity int) *Queue {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}

	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)

	return q
}

// Enqueue appends v to the tail of the queue, blocking while the queue is
// at capacity. It returns false without enqueuing if the queue has been
// closed.
func (q *Queue) Enqueue(v string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == q.capacity && !q.closed {
		q.notFull.Wait()
	}

	if q.closed {
		return false
	}

	q.items = append(q.items, v)
	q.notEmpty.Signal()

	return true
}

// Dequeue removes and returns the item at the head of the queue, blocking
// while the queue is empty. It returns ok=false once the queue is closed
// and drained.
func (q *Queue) Dequeue() (v string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if len(q.items) == 0 {
		return "", false
	}

	v = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()

	return v, true
}

// Len reports the current number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Close unblocks every pending and future Enqueue/Dequeue call. Queued
// items that have not yet been dequeued remain available to Dequeue until
// drained; after that Dequeue returns ok=false. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
