package shared

import "context"

// EventPublisher is what services hold to announce committed changes, such
// as a completed sale or a deleted product. Publishing happens after the
// change is stored, so an error here never undoes it.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler is a side effect driven by events: the low-stock alert, the
// Redis counter eviction. EventTypes names the events it reacts to, or none
// for all of them.
type EventHandler interface {
	EventTypes() []string
	Handle(ctx context.Context, event DomainEvent) error
}

// EventBus is the in-process dispatcher wired up at startup. Handlers are
// subscribed before Start; Stop waits for deliveries still in flight.
type EventBus interface {
	EventPublisher

	// Subscribe registers handler for eventTypes, or for its own
	// EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
