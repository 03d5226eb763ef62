// Package fyne hosts visualizer components in a Fyne window: a widget that
// acts as the component container, a frame clock driven through fyne.Do and
// window fullscreen.
package fyne

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// DefaultFrameRate is the number of frames per second the clock runs at.
const DefaultFrameRate = 60

// Host implements ports.Host on top of a Fyne window. The Fyne main goroutine
// is the UI goroutine: frames, dispatched tasks and widget events all run there.
type Host struct {
	// Dependencies
	logger *slog.Logger
	window fyneapp.Window
	do     func(func())

	// Frame clock
	interval  time.Duration
	nextFrame ports.FrameID
	frames    map[ports.FrameID]ports.FrameCallback
	started   time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup

	observers []*resizeObserver
	surfaces  []*Surface

	mu sync.Mutex
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// WithFrameRate sets the frame clock rate.
func WithFrameRate(fps int) Option {
	return func(h *Host) {
		if fps > 0 {
			h.interval = time.Second / time.Duration(fps)
		}
	}
}

// withDo replaces fyne.Do. Tests use it to run tasks inline.
func withDo(do func(func())) Option {
	return func(h *Host) {
		h.do = do
	}
}

// NewHost creates a host for window. The frame clock is stopped until Start.
func NewHost(window fyneapp.Window, opts ...Option) *Host {
	h := &Host{
		window:   window,
		do:       fyneapp.Do,
		interval: time.Second / DefaultFrameRate,
		frames:   make(map[ports.FrameID]ports.FrameCallback),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Discard()
	}
	return h
}

// Start runs the frame clock until Stop.
func (h *Host) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopChan != nil {
		return
	}
	h.stopChan = make(chan struct{})
	h.started = time.Now()

	h.wg.Add(1)
	go h.clock(h.stopChan)
	h.logger.Debug("frame clock started", slog.Duration("interval", h.interval))
}

// Stop halts the frame clock and waits for it to exit. Pending frames stay
// scheduled.
func (h *Host) Stop() {
	h.mu.Lock()
	stop := h.stopChan
	h.stopChan = nil
	h.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	h.wg.Wait()
	h.logger.Debug("frame clock stopped")
}

func (h *Host) clock(stop <-chan struct{}) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			h.mu.Lock()
			ts := now.Sub(h.started)
			h.mu.Unlock()
			h.do(func() { h.tick(ts) })
		}
	}
}

// RequestFrame schedules cb for the next clock tick.
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

// tick runs the pending frames and repaints every surface.
func (h *Host) tick(ts time.Duration) {
	h.runFrames(ts)

	h.mu.Lock()
	surfaces := slices.Clone(h.surfaces)
	h.mu.Unlock()
	for _, s := range surfaces {
		s.Refresh()
	}
}

// runFrames runs the callbacks pending at the time of the call, in request order.
func (h *Host) runFrames(ts time.Duration) int {
	h.mu.Lock()
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
		cb(ts)
	}
	return len(callbacks)
}

// Dispatch runs fn on the Fyne main goroutine.
func (h *Host) Dispatch(fn func()) {
	if fn != nil {
		h.do(fn)
	}
}

// NewCanvas creates a raster canvas.
func (h *Host) NewCanvas(width, height int) (ports.Canvas, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("canvas %dx%d: %w", width, height, domain.ErrInvalidOption)
	}
	return raster.New(width, height), nil
}

// IsFullscreen reports whether the window is fullscreen.
func (h *Host) IsFullscreen() bool {
	return h.window.FullScreen()
}

// RequestFullscreen makes the window fullscreen. Only containers of this
// package can be shown.
func (h *Host) RequestFullscreen(target ports.Container) error {
	if _, ok := target.(*Container); !ok {
		return fmt.Errorf("request fullscreen: %w", domain.ErrInvalidOption)
	}
	h.window.SetFullScreen(true)
	h.logger.Debug("fullscreen entered")
	return nil
}

// ExitFullscreen restores the windowed mode.
func (h *Host) ExitFullscreen() error {
	if !h.window.FullScreen() {
		return domain.ErrNotFullscreen
	}
	h.window.SetFullScreen(false)
	h.logger.Debug("fullscreen exited")
	return nil
}

var _ ports.Host = (*Host)(nil)
