package engine

import (
	"context"
	"sync"

	"github.com/roach88/modelsync/internal/ir"
)

// request is one submitted operation waiting for the run loop.
type request struct {
	ctx   context.Context
	op    ir.Operation
	reply chan result // buffered, size 1
}

type result struct {
	snap ir.Snapshot
	err  error
}

// opQueue is a thread-safe unbounded FIFO queue of requests.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type opQueue struct {
	mu     sync.Mutex
	items  []request
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newOpQueue() *opQueue {
	return &opQueue{
		items:  make([]request, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *opQueue) Enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, r)

	// Non-blocking; the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front request without blocking.
func (q *opQueue) TryDequeue() (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return request{}, false
	}

	r := q.items[0]
	// Release the slot so the backing array does not pin finished requests.
	q.items[0] = request{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return r, true
}

// Wait returns a channel that signals when requests may be available.
// It is closed when the queue is closed.
func (q *opQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close signals that no more requests will be enqueued.
func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
