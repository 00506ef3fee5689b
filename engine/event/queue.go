package event

import "sync"

// Queue is an unbounded multi-producer, single-consumer queue of App events.
// Producers call Push from any goroutine; the render loop calls Drain once per iteration.
type Queue struct {
	mu     sync.Mutex
	events []App
	closed bool
}

// NewQueue creates an empty Queue.
//
// Returns:
//   - *Queue: the new queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event. Events pushed after Close are dropped.
//
// Parameters:
//   - e: the event to enqueue
//
// Returns:
//   - bool: false if the queue has been closed
func (q *Queue) Push(e App) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.events = append(q.events, e)
	return true
}

// Drain removes and returns every pending event in push order.
//
// Returns:
//   - []App: the pending events, or nil if none
func (q *Queue) Drain() []App {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Sink is the producer side of a Queue handed to plugins.
type Sink interface {
	Push(e App) bool
}

var _ Sink = &Queue{}
