package mia

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events, and graceful completion is
// signaled by Next() returning io.EOF.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents an incremental text delta to append.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// Interface compliance check.
var _ Event = EventTextDelta{}
