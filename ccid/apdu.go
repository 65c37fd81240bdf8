package ccid

import (
	"sync"
)

// apduQueue holds guest commands waiting for the APDU worker. The condition
// variable wakes the worker on submit and on quit; the wait loop re-checks
// both predicates on every wake.
type apduQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*Event
	quit    bool
}

func newAPDUQueue() *apduQueue {
	q := &apduQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// submit never blocks beyond the append itself; backpressure is implicit in
// the unbounded queue.
func (q *apduQueue) submit(e *Event) {
	q.mu.Lock()
	q.pending = append(q.pending, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// next blocks until a request is available or quit is flagged. It returns
// nil exactly once the queue is quitting.
func (q *apduQueue) next() *Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.quit {
		q.cond.Wait()
	}
	if q.quit {
		return nil
	}
	e := q.pending[0]
	q.pending = q.pending[1:]
	return e
}

func (q *apduQueue) stop() {
	q.mu.Lock()
	q.quit = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
