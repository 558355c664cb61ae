package storage

import "swapEngine/internal/model"

// EventSink is a sink for emitted pool events.
type EventSink interface {
	PutEventBatch(events []model.Event) error
}
