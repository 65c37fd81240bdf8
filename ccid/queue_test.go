package ccid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventQueueFIFO(t *testing.T) {
	q := newEventQueue()
	for i := 0; i < 100; i++ {
		q.push(newErrorEvent(uint64(i)))
	}

	batch := q.detach()
	if len(batch) != 100 {
		t.Fatalf("expected 100 events, got %v", len(batch))
	}
	for i, e := range batch {
		assert.Equal(t, uint64(i), e.Code)
	}
}

func TestEventQueueDetachEmpties(t *testing.T) {
	q := newEventQueue()
	q.push(newEvent(ReaderInsert))

	assert.Equal(t, 1, len(q.detach()))
	assert.Equal(t, 0, len(q.detach()))
}

func TestEventQueueWakeupCoalesces(t *testing.T) {
	q := newEventQueue()
	q.push(newEvent(ReaderInsert))
	q.push(newEvent(CardInsert))
	q.push(newEvent(CardRemove))

	// one pending wakeup covers the whole batch
	select {
	case <-q.wakeup:
	case <-time.After(time.Second):
		t.Fatal("no wakeup after push")
	}
	select {
	case <-q.wakeup:
		t.Fatal("wakeup tokens should coalesce")
	default:
	}
	assert.Equal(t, 3, len(q.detach()))
}

func TestEventQueueConcurrentPushes(t *testing.T) {
	const producers = 4
	const perProducer = 250

	q := newEventQueue()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.push(newErrorEvent(uint64(p*perProducer + i)))
			}
		}(p)
	}

	got := make([]*Event, 0, producers*perProducer)
	deadline := time.After(5 * time.Second)
	for len(got) < producers*perProducer {
		select {
		case <-q.wakeup:
			got = append(got, q.detach()...)
		case <-deadline:
			t.Fatalf("timed out, only drained %v events", len(got))
		}
	}
	wg.Wait()
	got = append(got, q.detach()...)

	// no loss, no duplication, and per-producer FIFO order
	assert.Equal(t, producers*perProducer, len(got))
	seen := make(map[uint64]bool)
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for _, e := range got {
		if seen[e.Code] {
			t.Fatalf("event %v delivered twice", e.Code)
		}
		seen[e.Code] = true
		p := int(e.Code) / perProducer
		i := int(e.Code) % perProducer
		if i <= last[p] {
			t.Fatalf("producer %v events reordered: %v after %v", p, i, last[p])
		}
		last[p] = i
	}
}

func TestAPDUQueueOrder(t *testing.T) {
	q := newAPDUQueue()
	for i := 0; i < 10; i++ {
		q.submit(newDataEvent(GuestAPDU, []byte{byte(i)}, MaxAPDUSize))
	}
	for i := 0; i < 10; i++ {
		e := q.next()
		if e == nil {
			t.Fatal("queue quit unexpectedly")
		}
		assert.Equal(t, []byte{byte(i)}, e.Data)
	}
}

func TestAPDUQueueStopUnblocksWaiter(t *testing.T) {
	q := newAPDUQueue()
	done := make(chan *Event, 1)
	go func() {
		done <- q.next()
	}()

	// let the goroutine get as far as the cond wait
	time.Sleep(10 * time.Millisecond)
	q.stop()

	select {
	case e := <-done:
		assert.Nil(t, e)
	case <-time.After(time.Second):
		t.Fatal("stop did not wake the waiter")
	}
}
