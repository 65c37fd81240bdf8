package ccid

import (
	"sync"
)

// eventQueue carries events from the worker goroutines to the dispatcher. It
// is unbounded; the wakeup channel only signals that a batch is pending, it
// never carries the events themselves, so a missed send loses nothing.
type eventQueue struct {
	mu      sync.Mutex
	pending []*Event
	wakeup  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		wakeup: make(chan struct{}, 1),
	}
}

// push appends the event and nudges the consumer. Safe from any goroutine.
func (q *eventQueue) push(e *Event) {
	q.mu.Lock()
	q.pending = append(q.pending, e)
	q.mu.Unlock()
	select {
	case q.wakeup <- struct{}{}:
	default:
		// a wakeup is already pending, the consumer will see this event too
	}
}

// detach swaps out the whole pending batch in one step, so the caller can
// iterate it without holding the lock across callbacks.
func (q *eventQueue) detach() []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}
