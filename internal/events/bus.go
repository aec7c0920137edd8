// Package events is the in-process event bus for session lifecycle events.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Each subscriber receives events
// in publish order on its own goroutine.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case SessionStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ProducerExitedEvent:
		event.Publish(b.dispatcher, e)
	case StaleProcessesReapedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a typed handler, e.g. func(SessionStateChangedEvent).
// Returns an unsubscribe function; unknown handler types get a no-op.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SessionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProducerExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StaleProcessesReapedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
