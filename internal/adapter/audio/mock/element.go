// Package mock provides an in-memory media element.
// This is used for testing components without decoding or playing real audio.
package mock

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// ErrPlayFailed is returned by Play when the mock is configured to fail.
var ErrPlayFailed = errors.New("mock play failed")

// Element is a mock implementation of the MediaElement interface.
// Time only moves when a test calls Advance or when the optional signal is
// streamed through a source node.
//
// Thread-safety: This implementation is thread-safe. Events are published
// without holding the lock, so listeners may call back into the element.
type Element struct {
	*eventbus.SyncEventBus

	// Dependencies
	logger *slog.Logger

	// Playback state
	src         string
	currentTime float64
	duration    float64
	paused      bool

	// signal is streamed while playing; nil streams silence
	signal     beep.Streamer
	sampleRate float64

	// Behavior configuration (for testing error scenarios)
	failPlay bool

	mu sync.RWMutex
}

// NewElement creates a paused element with nothing loaded.
func NewElement() *Element {
	return &Element{
		SyncEventBus: eventbus.NewSyncEventBus(),
		paused:       true,
	}
}

// SetLogger sets the logger for this element.
// This should be called after construction before using the element.
func (m *Element) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
	m.SyncEventBus.SetLogger(logger)
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Element) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetSignal sets the streamer played while the element is not paused.
func (m *Element) SetSignal(s beep.Streamer, sampleRate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signal = s
	m.sampleRate = sampleRate
}

// Load sets the source and duration, rewinds and fires loadedmetadata.
func (m *Element) Load(src string, duration float64) {
	m.mu.Lock()
	m.src = src
	m.duration = duration
	m.currentTime = 0
	m.mu.Unlock()

	m.Publish(domain.NewMediaEvent(domain.EventLoadedMetadata, 0))
}

// Src returns the loaded source.
func (m *Element) Src() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.src
}

// CurrentTime returns the playback position in seconds.
func (m *Element) CurrentTime() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// SetCurrentTime seeks, clamping to the duration when known, and fires timeupdate.
func (m *Element) SetCurrentTime(t float64) {
	m.mu.Lock()
	t = max(t, 0)
	if m.duration > 0 {
		t = min(t, m.duration)
	}
	m.currentTime = t
	m.mu.Unlock()

	m.Publish(domain.NewMediaEvent(domain.EventTimeUpdate, t))
}

// Duration returns the duration in seconds.
func (m *Element) Duration() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

// Paused reports whether playback is paused.
func (m *Element) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Play starts playback and fires play. Playing an element that is already
// playing fires nothing.
func (m *Element) Play() error {
	m.mu.Lock()
	if m.failPlay {
		m.mu.Unlock()
		return ErrPlayFailed
	}
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	m.paused = false
	t := m.currentTime
	m.mu.Unlock()

	m.Publish(domain.NewMediaEvent(domain.EventPlay, t))
	return nil
}

// Pause stops playback and fires pause. Pausing twice fires once.
func (m *Element) Pause() {
	m.mu.Lock()
	if m.paused {
		m.mu.Unlock()
		return
	}
	m.paused = true
	t := m.currentTime
	m.mu.Unlock()

	m.Publish(domain.NewMediaEvent(domain.EventPause, t))
}

// Advance moves the clock forward by seconds and fires timeupdate. Reaching
// the duration pauses the element and fires ended.
func (m *Element) Advance(seconds float64) {
	m.mu.Lock()
	m.currentTime += seconds
	ended := m.duration > 0 && m.currentTime >= m.duration
	if ended {
		m.currentTime = m.duration
	}
	t := m.currentTime
	m.mu.Unlock()

	m.Publish(domain.NewMediaEvent(domain.EventTimeUpdate, t))
	if ended {
		m.Pause()
		m.Publish(domain.NewMediaEvent(domain.EventEnded, t))
	}
}

// Stream implements beep.Streamer. A paused element, or one without a
// signal, streams silence.
func (m *Element) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.signal == nil {
		clear(samples)
		return len(samples), true
	}

	n, ok := m.signal.Stream(samples)
	clear(samples[n:])
	if m.sampleRate > 0 {
		m.currentTime += float64(n) / m.sampleRate
	}
	if !ok {
		m.signal = nil
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (m *Element) Err() error {
	return nil
}

var (
	_ ports.MediaElement = (*Element)(nil)
	_ beep.Streamer      = (*Element)(nil)
)
