package session

import (
	"sync"

	"github.com/agnivade/voicerouter/providers"
)

// item is one entry of the event queue. open marks the OnOpen callback,
// which has no Event variant.
type item struct {
	open bool
	ev   providers.Event
}

// eventQueue is an unbounded FIFO drained by a single dispatcher goroutine.
// Once end has been called, further pushes are dropped, so terminal events
// are delivered at most once and always last.
type eventQueue struct {
	mu      sync.Mutex
	items   []item
	ended   bool
	notify  chan struct{}
	drained chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		notify:  make(chan struct{}, 1),
		drained: make(chan struct{}),
	}
}

func (q *eventQueue) pushOpen() bool {
	return q.append(false, item{open: true})
}

func (q *eventQueue) push(ev providers.Event) bool {
	return q.append(false, item{ev: ev})
}

// end appends the terminal events and closes the queue.
func (q *eventQueue) end(evs ...providers.Event) bool {
	items := make([]item, 0, len(evs))
	for _, ev := range evs {
		items = append(items, item{ev: ev})
	}
	return q.append(true, items...)
}

func (q *eventQueue) append(final bool, items ...item) bool {
	q.mu.Lock()
	if q.ended {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, items...)
	q.ended = final
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

func (q *eventQueue) next() (item, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item{}, false, q.ended
	}
	it := q.items[0]
	q.items[0] = item{}
	q.items = q.items[1:]
	return it, true, false
}

// run delivers queued items in order until the queue has ended and is empty.
func (q *eventQueue) run(deliver func(item)) {
	defer close(q.drained)
	for {
		it, ok, done := q.next()
		if done {
			return
		}
		if !ok {
			<-q.notify
			continue
		}
		deliver(it)
	}
}
