// Package media provides a playable media element backed by a decoded track
// held in a beep buffer. The element is itself a beep.Streamer: whoever pulls
// samples from it (an audio context source node, the speaker) drives its clock.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

const (
	// DefaultTimeUpdateInterval is the played time between timeupdate events.
	DefaultTimeUpdateInterval = 0.25

	resampleQuality = 4
)

// Element plays a whole decoded track.
//
// Thread-safety: Stream runs on the audio goroutine, everything else on the
// UI goroutine. Events raised while streaming are handed to the dispatcher so
// listeners run where the UI expects them.
type Element struct {
	*eventbus.SyncEventBus

	// Dependencies
	logger   *slog.Logger
	fetcher  ports.Fetcher
	decoder  ports.TrackDecoder
	dispatch func(func())

	outputRate beep.SampleRate
	interval   float64

	// Loaded track
	src      string
	format   beep.Format
	buffer   *beep.Buffer
	seeker   beep.StreamSeeker
	streamer beep.Streamer

	paused     bool
	lastUpdate float64

	mu sync.Mutex
}

// Option configures an Element.
type Option func(*Element)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Element) {
		e.logger = l
	}
}

// WithDispatcher sets the function used to deliver events raised on the
// audio goroutine, typically a host's Dispatch. The default runs them inline.
func WithDispatcher(dispatch func(func())) Option {
	return func(e *Element) {
		e.dispatch = dispatch
	}
}

// WithOutputRate sets the rate Stream produces samples at. Tracks at another
// rate are resampled.
func WithOutputRate(sr beep.SampleRate) Option {
	return func(e *Element) {
		e.outputRate = sr
	}
}

// WithTimeUpdateInterval sets the played seconds between timeupdate events.
func WithTimeUpdateInterval(seconds float64) Option {
	return func(e *Element) {
		e.interval = seconds
	}
}

// NewElement creates a paused element with nothing loaded. The fetcher and
// decoder are used by Load.
func NewElement(fetcher ports.Fetcher, decoder ports.TrackDecoder, opts ...Option) *Element {
	e := &Element{
		SyncEventBus: eventbus.NewSyncEventBus(),
		fetcher:      fetcher,
		decoder:      decoder,
		dispatch:     func(fn func()) { fn() },
		outputRate:   44100,
		interval:     DefaultTimeUpdateInterval,
		paused:       true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Discard()
	}
	e.logger = e.logger.With(slog.String("component", "media"))
	e.SyncEventBus.SetLogger(e.logger)
	return e
}

// Load fetches and decodes src, then makes it the current track.
func (e *Element) Load(ctx context.Context, src string) error {
	if e.fetcher == nil || e.decoder == nil {
		return fmt.Errorf("load %s: element has no fetcher or decoder", src)
	}
	data, err := e.fetcher.Fetch(ctx, src)
	if err != nil {
		return err
	}
	track, err := e.decoder.Decode(ctx, data)
	if err != nil {
		return err
	}
	return e.LoadBuffer(src, track.Buffer)
}

// LoadBuffer makes buf the current track, pauses and rewinds, then fires
// loadedmetadata.
func (e *Element) LoadBuffer(src string, buf domain.AudioBuffer) error {
	if buf.Frames() == 0 || buf.SampleRate <= 0 {
		return domain.NewDecodeError("load", src, domain.ErrEmptyTrack)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(buf.SampleRate),
		NumChannels: min(len(buf.Channels), 2),
		Precision:   4,
	}
	buffer := beep.NewBuffer(format)
	buffer.Append(&planarStreamer{buf: buf})

	e.mu.Lock()
	wasPlaying := !e.paused
	e.src = src
	e.format = format
	e.buffer = buffer
	e.seeker = buffer.Streamer(0, buffer.Len())
	e.streamer = e.seeker
	if format.SampleRate != e.outputRate {
		e.streamer = beep.Resample(resampleQuality, format.SampleRate, e.outputRate, e.seeker)
	}
	e.paused = true
	e.lastUpdate = 0
	e.mu.Unlock()

	e.logger.Debug("track loaded",
		slog.String("src", src),
		slog.Int("sample_rate", buf.SampleRate),
		slog.Float64("duration", buf.Seconds()))

	if wasPlaying {
		e.Publish(domain.NewMediaEvent(domain.EventPause, 0))
	}
	e.Publish(domain.NewMediaEvent(domain.EventLoadedMetadata, 0))
	return nil
}

// Src returns the loaded source.
func (e *Element) Src() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// CurrentTime returns the playback position in seconds.
func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position()
}

func (e *Element) position() float64 {
	if e.seeker == nil {
		return 0
	}
	return float64(e.seeker.Position()) / float64(e.format.SampleRate)
}

// SetCurrentTime seeks to t seconds, clamped to the track, and fires timeupdate.
func (e *Element) SetCurrentTime(t float64) {
	e.mu.Lock()
	if e.seeker == nil {
		e.mu.Unlock()
		return
	}
	pos := int(max(t, 0) * float64(e.format.SampleRate))
	pos = min(pos, e.seeker.Len())
	if err := e.seeker.Seek(pos); err != nil {
		e.mu.Unlock()
		e.logger.Warn("seek failed", slog.Float64("time", t), slog.String("error", err.Error()))
		return
	}
	if e.streamer != e.seeker {
		// drop samples buffered by the resampler
		e.streamer = beep.Resample(resampleQuality, e.format.SampleRate, e.outputRate, e.seeker)
	}
	now := e.position()
	e.lastUpdate = now
	e.mu.Unlock()

	e.Publish(domain.NewMediaEvent(domain.EventTimeUpdate, now))
}

// Duration returns the track length in seconds, 0 when nothing is loaded.
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer == nil {
		return 0
	}
	return float64(e.buffer.Len()) / float64(e.format.SampleRate)
}

// Paused reports whether playback is paused.
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Play starts playback and fires play. An element at the end of its track
// restarts from the beginning.
func (e *Element) Play() error {
	e.mu.Lock()
	if e.seeker == nil {
		e.mu.Unlock()
		return domain.ErrMissingSource
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	if e.seeker.Position() >= e.seeker.Len() {
		if err := e.seeker.Seek(0); err != nil {
			e.mu.Unlock()
			return err
		}
		e.lastUpdate = 0
	}
	e.paused = false
	now := e.position()
	e.mu.Unlock()

	e.Publish(domain.NewMediaEvent(domain.EventPlay, now))
	return nil
}

// Pause stops playback and fires pause. Pausing twice fires once.
func (e *Element) Pause() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	now := e.position()
	e.mu.Unlock()

	e.Publish(domain.NewMediaEvent(domain.EventPause, now))
}

// Stream implements beep.Streamer. It never drains: silence is produced
// while paused or once the track has ended.
func (e *Element) Stream(samples [][2]float64) (int, bool) {
	var events []domain.MediaEvent

	e.mu.Lock()
	if e.paused || e.streamer == nil {
		e.mu.Unlock()
		clear(samples)
		return len(samples), true
	}

	n, ok := e.streamer.Stream(samples)
	clear(samples[n:])
	now := e.position()
	if now-e.lastUpdate >= e.interval {
		e.lastUpdate = now
		events = append(events, domain.NewMediaEvent(domain.EventTimeUpdate, now))
	}
	if !ok || e.seeker.Position() >= e.seeker.Len() {
		e.paused = true
		events = append(events,
			domain.NewMediaEvent(domain.EventTimeUpdate, now),
			domain.NewMediaEvent(domain.EventPause, now),
			domain.NewMediaEvent(domain.EventEnded, now))
	}
	e.mu.Unlock()

	if len(events) > 0 {
		e.dispatch(func() {
			for _, ev := range events {
				e.Publish(ev)
			}
		})
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (e *Element) Err() error {
	return nil
}

// planarStreamer streams a domain.AudioBuffer once. Mono buffers play on
// both channels.
type planarStreamer struct {
	buf domain.AudioBuffer
	pos int
}

func (p *planarStreamer) Stream(samples [][2]float64) (int, bool) {
	left, right := p.buf.Channel(0), p.buf.Channel(1)
	n := 0
	for n < len(samples) && p.pos < len(left) {
		samples[n][0] = float64(left[p.pos])
		samples[n][1] = float64(right[p.pos])
		n++
		p.pos++
	}
	return n, n > 0
}

func (p *planarStreamer) Err() error { return nil }

var (
	_ ports.MediaElement = (*Element)(nil)
	_ beep.Streamer      = (*Element)(nil)
)
