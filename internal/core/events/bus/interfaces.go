package bus

import "time"

// EventBus is a synchronous in-process pub/sub bus.
//
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish/PublishBatch.
// - Observers see every publish and its outcome; counters are kept regardless.
//
// The session publishes from its tick loop; handlers should be quick.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// PublishBatch publishes events in order and aggregates errors across them.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler and returns a handle to cancel it later.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the counters.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, durationMicros int64)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
