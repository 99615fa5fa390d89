package souko

import "reflect"

// EventBus is a synchronous typed publish/subscribe channel between systems.
// Handlers run in subscription order, on the publisher's goroutine, before
// Publish returns. The systems container publishes its debug diagnostics
// here; user systems are free to define their own event types.
type EventBus struct {
	handlers map[reflect.Type][]any
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[reflect.Type][]any, 8),
	}
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](b *EventBus, handler func(T)) {
	if handler == nil {
		panicf("souko: Subscribe with nil handler for %s", reflect.TypeFor[T]())
	}
	t := reflect.TypeFor[T]()
	b.handlers[t] = append(b.handlers[t], handler)
}

// Publish delivers ev to every handler subscribed to T, in order.
func Publish[T any](b *EventBus, ev T) {
	for _, h := range b.handlers[reflect.TypeFor[T]()] {
		h.(func(T))(ev)
	}
}

// Reset drops all subscriptions.
func (b *EventBus) Reset() {
	clear(b.handlers)
}
