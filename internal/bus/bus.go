// Package bus provides the process-wide broadcast of domain events to an
// arbitrary number of subscribers. Emission is non-blocking: each subscriber
// owns a bounded queue and, when it falls behind, loses its oldest pending
// events while other subscribers are unaffected. There is no replay; a
// subscriber only sees events emitted after it attached.
package bus

import (
	"sync"
	"time"

	"github.com/xvierd/mootimer/internal/domain"
)

// queueCapacity bounds each subscriber's pending events.
const queueCapacity = 256

// Event is one of the four domain event families: *domain.TimerEvent,
// *domain.TaskEvent, *domain.EntryEvent, or *domain.ProfileEvent.
type Event any

// Subscriber receives broadcast events on C until Unsubscribe is called.
type Subscriber struct {
	C  <-chan Event
	ch chan Event

	id  uint64
	bus *Bus
}

// Unsubscribe detaches the subscriber and closes its channel.
func (s *Subscriber) Unsubscribe() {
	s.bus.remove(s.id)
}

// Bus fans events out to all current subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]*Subscriber
	nextID      uint64
	closed      bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[uint64]*Subscriber)}
}

// Subscribe attaches a new subscriber with a fresh bounded queue.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan Event, queueCapacity)
	sub := &Subscriber{C: ch, ch: ch, id: b.nextID, bus: b}
	if !b.closed {
		b.subscribers[sub.id] = sub
	} else {
		close(ch)
	}
	return sub
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(sub.ch)
	}
}

// Close detaches every subscriber. Subsequent emits are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		close(sub.ch)
	}
}

// publish delivers to every subscriber, dropping the subscriber's oldest
// pending event when its queue is full. Events emitted from one goroutine
// arrive in emission order.
func (b *Bus) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- ev:
		default:
			// Queue full: evict the oldest pending event and retry once.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// EmitTimer broadcasts a timer event, stamping it if unstamped.
func (b *Bus) EmitTimer(ev domain.TimerEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b.publish(&ev)
}

// EmitTask broadcasts a task event, stamping it if unstamped.
func (b *Bus) EmitTask(ev domain.TaskEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b.publish(&ev)
}

// EmitEntry broadcasts an entry event, stamping it if unstamped.
func (b *Bus) EmitEntry(ev domain.EntryEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b.publish(&ev)
}

// EmitProfile broadcasts a profile event, stamping it if unstamped.
func (b *Bus) EmitProfile(ev domain.ProfileEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b.publish(&ev)
}
