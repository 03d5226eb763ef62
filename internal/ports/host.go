package ports

import (
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// EventTarget dispatches events to registered listeners.
type EventTarget interface {
	// AddEventListener registers handler for events of type t.
	AddEventListener(t domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// RemoveEventListener removes a listener. Unknown IDs are ignored.
	RemoveEventListener(id domain.SubscriptionID)
}

// MediaElement is a playable audio source. It dispatches play, pause,
// loadedmetadata and timeupdate events.
type MediaElement interface {
	EventTarget

	// Src identifies the loaded track, empty when nothing is loaded.
	Src() string

	// CurrentTime is the playback position in seconds.
	CurrentTime() float64
	SetCurrentTime(t float64)

	// Duration in seconds, 0 when unknown.
	Duration() float64

	Paused() bool
	Play() error
	Pause()
}

// Container is the host element a component renders into. It dispatches
// pointer events (domain.PointerEventTypes).
type Container interface {
	EventTarget

	// Size is the content-box size in pixels.
	Size() domain.Size

	Style() domain.Style
	SetStyle(s domain.Style)

	// Mount attaches a canvas, stacking canvases in mount order.
	Mount(c Canvas)

	// Unmount detaches a canvas. Unknown canvases are ignored.
	Unmount(c Canvas)
}

// FrameID identifies a pending frame request.
type FrameID uint64

// FrameCallback receives the host's frame timestamp.
type FrameCallback func(ts time.Duration)

// FrameScheduler runs callbacks before the next repaint.
type FrameScheduler interface {
	RequestFrame(cb FrameCallback) FrameID
	CancelFrame(id FrameID)
}

// ResizeCallback receives the observed container size.
type ResizeCallback func(size domain.Size)

// ResizeObserver watches containers for size changes.
type ResizeObserver interface {
	Observe(target Container)
	Unobserve(target Container)
	Disconnect()
}

// Fullscreen controls the host's fullscreen state.
type Fullscreen interface {
	IsFullscreen() bool
	RequestFullscreen(target Container) error
	ExitFullscreen() error
}

// Host bundles the primitives of the UI environment. Every callback the host
// makes (frames, resize, dispatched tasks, events) runs on its single UI goroutine.
type Host interface {
	FrameScheduler
	Fullscreen

	NewResizeObserver(cb ResizeCallback) ResizeObserver

	// NewCanvas creates a detached canvas.
	NewCanvas(width, height int) (Canvas, error)

	// Dispatch queues fn on the UI goroutine. Safe to call from any goroutine.
	Dispatch(fn func())
}
