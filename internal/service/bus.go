package service

import (
	"sync"

	"github.com/joeblew999/plat-geo-widgets/internal/metrics"
)

// Event represents a page mutation.
type Event struct {
	Resource string // "pages"
	Action   string // "created", "deleted", "field", "zoom", "popup", ...
	ID       string // page ID
	Widget   int    // widget index, -1 for page-wide events
}

// EventBus is a simple fan-out pub/sub for page change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	metrics.EventSubscribers.Inc()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
		metrics.EventSubscribers.Dec()
	}
}
