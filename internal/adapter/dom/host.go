// Package dom provides a headless host: containers, a manually driven frame
// scheduler, resize observers, fullscreen and a task queue. It stands in for
// a UI toolkit in tests and in headless rendering.
//
// The goroutine that calls Tick, RunPending and RunNext is the host's UI
// goroutine. Dispatch may be called from any goroutine.
package dom

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// DefaultScreenSize is the size a container takes in fullscreen.
var DefaultScreenSize = domain.Size{Width: 1920, Height: 1080}

// CanvasFactory creates detached canvases.
type CanvasFactory func(width, height int) (ports.Canvas, error)

// Host is a headless implementation of ports.Host.
type Host struct {
	// Dependencies
	logger      *slog.Logger
	newCanvas   CanvasFactory
	canvasCount int

	// Frame scheduling
	nextFrame ports.FrameID
	frames    map[ports.FrameID]ports.FrameCallback
	clock     time.Duration

	// Task queue
	tasks  []func()
	wakeup chan struct{}

	// Resize observation
	observers []*ResizeObserver

	// Fullscreen
	screen     domain.Size
	fullscreen *Container
	windowed   domain.Size

	mu sync.Mutex
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithScreenSize sets the size containers take in fullscreen.
func WithScreenSize(size domain.Size) Option {
	return func(h *Host) {
		h.screen = size
	}
}

// WithCanvasFactory replaces the default raster canvases.
func WithCanvasFactory(f CanvasFactory) Option {
	return func(h *Host) {
		h.newCanvas = f
	}
}

// NewHost creates a host drawing into raster canvases.
func NewHost(opts ...Option) *Host {
	h := &Host{
		frames: make(map[ports.FrameID]ports.FrameCallback),
		wakeup: make(chan struct{}, 1),
		screen: DefaultScreenSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Discard()
	}
	if h.newCanvas == nil {
		h.newCanvas = func(width, height int) (ports.Canvas, error) {
			return raster.New(width, height), nil
		}
	}
	return h
}

// RequestFrame schedules cb for the next Tick.
func (h *Host) RequestFrame(cb ports.FrameCallback) ports.FrameID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextFrame++
	h.frames[h.nextFrame] = cb
	return h.nextFrame
}

// CancelFrame removes a pending frame. Unknown IDs are ignored.
func (h *Host) CancelFrame(id ports.FrameID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.frames, id)
}

// PendingFrames returns the number of scheduled frame callbacks.
func (h *Host) PendingFrames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

// Tick advances the clock by dt and runs every callback pending at the time
// of the call, in request order. Callbacks requested while ticking run on the
// next Tick. Returns the number of callbacks run.
func (h *Host) Tick(dt time.Duration) int {
	h.mu.Lock()
	h.clock += dt
	now := h.clock
	ids := make([]ports.FrameID, 0, len(h.frames))
	for id := range h.frames {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	callbacks := make([]ports.FrameCallback, len(ids))
	for i, id := range ids {
		callbacks[i] = h.frames[id]
		delete(h.frames, id)
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		cb(now)
	}
	return len(callbacks)
}

// Dispatch queues fn for RunPending or RunNext.
func (h *Host) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.tasks = append(h.tasks, fn)
	h.mu.Unlock()

	select {
	case h.wakeup <- struct{}{}:
	default:
	}
}

// RunPending runs the queued tasks, including tasks they queue, and returns
// how many ran.
func (h *Host) RunPending() int {
	ran := 0
	for {
		h.mu.Lock()
		tasks := h.tasks
		h.tasks = nil
		h.mu.Unlock()

		if len(tasks) == 0 {
			return ran
		}
		for _, fn := range tasks {
			fn()
		}
		ran += len(tasks)
	}
}

// RunNext waits for one task and runs it.
func (h *Host) RunNext(ctx context.Context) error {
	for {
		h.mu.Lock()
		if len(h.tasks) > 0 {
			fn := h.tasks[0]
			h.tasks = h.tasks[1:]
			h.mu.Unlock()
			fn()
			return nil
		}
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.wakeup:
		}
	}
}

// NewCanvas creates a detached canvas.
func (h *Host) NewCanvas(width, height int) (ports.Canvas, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("canvas %dx%d: %w", width, height, domain.ErrInvalidOption)
	}
	c, err := h.newCanvas(width, height)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.canvasCount++
	h.mu.Unlock()
	return c, nil
}

// CanvasesCreated returns how many canvases NewCanvas returned.
func (h *Host) CanvasesCreated() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canvasCount
}

// NewContainer creates a container of the given size.
func (h *Host) NewContainer(width, height int) *Container {
	return newContainer(h, domain.Size{Width: width, Height: height})
}

// IsFullscreen reports whether a container is fullscreen.
func (h *Host) IsFullscreen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fullscreen != nil
}

// RequestFullscreen resizes target to the screen. A container of another host
// is rejected.
func (h *Host) RequestFullscreen(target ports.Container) error {
	c, ok := target.(*Container)
	if !ok || c.host != h {
		return fmt.Errorf("request fullscreen: %w", domain.ErrInvalidOption)
	}

	h.mu.Lock()
	if h.fullscreen != nil {
		h.mu.Unlock()
		return nil
	}
	h.fullscreen = c
	h.windowed = c.Size()
	screen := h.screen
	h.mu.Unlock()

	h.logger.Debug("fullscreen entered", slog.Int("width", screen.Width), slog.Int("height", screen.Height))
	c.Resize(screen.Width, screen.Height)
	return nil
}

// ExitFullscreen restores the fullscreen container's windowed size.
func (h *Host) ExitFullscreen() error {
	h.mu.Lock()
	c := h.fullscreen
	if c == nil {
		h.mu.Unlock()
		return domain.ErrNotFullscreen
	}
	h.fullscreen = nil
	size := h.windowed
	h.mu.Unlock()

	h.logger.Debug("fullscreen exited")
	c.Resize(size.Width, size.Height)
	return nil
}

var _ ports.Host = (*Host)(nil)
