package ports

import (
	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// EventBus is the listener registry behind every host element. Elements embed
// one and publish their events through it.
//
// Thread-safety: implementations must be safe for concurrent use, since
// listeners may be added from the UI goroutine while audio goroutines publish.
//
// Example usage:
//
//	id := bus.AddEventListener(domain.EventPlay, func(event domain.Event) {
//	    e := event.(domain.MediaEvent)
//	    startRendering(e.CurrentTime)
//	})
//	bus.Publish(domain.NewMediaEvent(domain.EventPlay, 0))
//	bus.RemoveEventListener(id)
type EventBus interface {
	EventTarget

	// Publish delivers event to the listeners of its type.
	Publish(event domain.Event)

	// HasListeners reports whether anyone listens to events of type t.
	HasListeners(t domain.EventType) bool

	// ListenerCount returns the number of registered listeners.
	ListenerCount() int

	// Close removes every listener. Publishing to a closed bus does nothing.
	Close() error
}
