package bus

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Delivery is synchronous and happens in the publisher's goroutine, in
// subscription order, so a single-threaded simulation observes events
// deterministically. Handler errors are joined and returned from Publish.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type() and
	// to wildcard subscribers.
	Publish(event Event) error
	// PublishBatch publishes events in order and joins all handler errors.
	PublishBatch(events ...Event) error

	// Subscribe registers a handler for one event type. The empty type
	// subscribes to every event.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	// Subscribers reports how many active handlers would receive eventType;
	// for the empty type, how many receive everything.
	Subscribers(eventType string) int
}

// Event is an immutable message transported by the EventBus. Time is the
// simulation time at which the event was raised, in seconds.
type Event interface {
	Type() string
	Source() string
	Time() float64
	Data() any
}

// EventHandler is invoked per delivered event.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}
