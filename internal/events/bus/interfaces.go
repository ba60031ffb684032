package bus

import "time"

// Event types published by the dispatch feed.
const (
	TypeRegistration = "dispatch.registration"
	TypeDispatch     = "dispatch.call"
)

// EventBus is a thread-safe, in-process pub/sub bus carrying dispatch
// trace events.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Optional topics: one topic per base family; the default topic is "".
// - Synchronous delivery: Publish calls handlers in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
//
// Handlers should be quick or offload heavy work to avoid blocking
// publishers. All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers
	// of event.Type() in the default topic.
	Publish(event Event) error
	// PublishToTopic publishes to a specific topic.
	PublishToTopic(topic string, event Event) error
	// Subscribe registers a handler for an event type in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeTopic registers a handler for eventType within a topic.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Safe to call with nil.
	Unsubscribe(Subscription) error

	// Metrics returns a snapshot of accumulated counters.
	Metrics() Metrics
	// Topics returns a snapshot list of known topics.
	Topics() []string
}

// Event is an immutable trace message. Implementations should treat
// Event values as read-only.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

// EventHandler is a user callback invoked per delivered event. Returned
// errors are aggregated by Publish.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to one event type.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// EventType returns the event type this subscription listens to.
	EventType() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Metrics is a minimal set of delivery counters.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
