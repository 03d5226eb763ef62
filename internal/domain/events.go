// Package domain defines the events exchanged between host elements and components.
package domain

import (
	"time"
)

// Event is the base interface for all events dispatched by host elements.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Media element events.
const (
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventLoadedMetadata EventType = "loadedmetadata"
	EventTimeUpdate     EventType = "timeupdate"
	EventEnded          EventType = "ended"
)

// Pointer events on a container.
const (
	EventClick       EventType = "click"
	EventDoubleClick EventType = "dblclick"
	EventMouseDown   EventType = "mousedown"
	EventMouseMove   EventType = "mousemove"
	EventMouseUp     EventType = "mouseup"
	EventMouseOut    EventType = "mouseout"
)

// PointerEventTypes lists every pointer event a container can dispatch.
var PointerEventTypes = []EventType{
	EventClick, EventDoubleClick, EventMouseDown, EventMouseMove, EventMouseUp, EventMouseOut,
}

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event listener.
type SubscriptionID string

// baseEvent provides common event functionality.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// MediaEvent is dispatched by a media element.
type MediaEvent struct {
	baseEvent
	kind        EventType
	CurrentTime float64 // playback position in seconds when dispatched
}

// Type implements Event.
func (e MediaEvent) Type() EventType { return e.kind }

// NewMediaEvent creates a media event of the given type.
func NewMediaEvent(t EventType, currentTime float64) MediaEvent {
	return MediaEvent{baseEvent: newBaseEvent(), kind: t, CurrentTime: currentTime}
}

// PointerEvent is dispatched by a container. X and Y are relative to the
// container's top-left corner.
type PointerEvent struct {
	baseEvent
	kind EventType
	X, Y float64
}

// Type implements Event.
func (e PointerEvent) Type() EventType { return e.kind }

// NewPointerEvent creates a pointer event of the given type.
func NewPointerEvent(t EventType, x, y float64) PointerEvent {
	return PointerEvent{baseEvent: newBaseEvent(), kind: t, X: x, Y: y}
}
