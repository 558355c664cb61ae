package pool

import "swapEngine/internal/model"

// Sink receives pool notifications. Publish runs after the state commit,
// still inside the operation's exclusive section; implementations must not
// call back into state-modifying pool operations.
type Sink interface {
	Publish(event model.Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(model.Event) {}
