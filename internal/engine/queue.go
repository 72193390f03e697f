package engine

import "sync"

// request is a command waiting for the Run loop, with the channel its
// result is delivered on.
type request struct {
	cmd   Command
	reply chan response
}

type response struct {
	result Result
	err    error
}

// commandQueue is a thread-safe, unbounded FIFO of pending requests.
//
// Any goroutine may enqueue; only the Run loop dequeues. The signal channel
// lets the loop wait for work and for context cancellation in one select.
type commandQueue struct {
	mu       sync.Mutex
	requests []*request
	closed   bool
	signal   chan struct{} // buffered, size 1
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		requests: make([]*request, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue appends r. Returns false if the queue is closed.
func (q *commandQueue) Enqueue(r *request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)

	// Non-blocking: the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front request without blocking.
func (q *commandQueue) TryDequeue() (*request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return nil, false
	}
	r := q.requests[0]
	q.requests[0] = nil
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return r, true
}

// Wait returns a channel that fires when requests may be available. It is
// closed by Close.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending requests.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// closedAndEmpty reports whether the queue is closed with nothing left.
func (q *commandQueue) closedAndEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.requests) == 0
}

// Close stops further enqueues and wakes the waiter.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Drain closes the queue and returns every pending request.
func (q *commandQueue) Drain() []*request {
	q.Close()

	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.requests
	q.requests = nil
	return pending
}
