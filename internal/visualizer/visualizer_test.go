package visualizer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audiomock "github.com/tejashwikalptaru/audiovis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/audio/soft"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/dom"
	canvasmock "github.com/tejashwikalptaru/audiovis/internal/adapter/surface/mock"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// fixture wires a component to a headless host, a mock player and recording
// canvases.
type fixture struct {
	host      *dom.Host
	container *dom.Container
	player    *audiomock.Element
	tracks    *fakeTracks

	// audio is the last context created through the factory
	audio    *soft.Context
	contexts int
}

func newFixture(t *testing.T, width, height int) *fixture {
	t.Helper()
	h := dom.NewHost(dom.WithCanvasFactory(canvasmock.Factory), dom.WithLogger(logger.NewTestLogger()))
	return &fixture{
		host:      h,
		container: h.NewContainer(width, height),
		player:    audiomock.NewElement(),
		tracks:    newFakeTracks(),
	}
}

func (f *fixture) config(kind domain.Kind) Config {
	return Config{
		Kind:     kind,
		Player:   f.player,
		RenderTo: f.container,
		Host:     f.host,
		NewAudioContext: func() (ports.AudioContext, error) {
			f.audio = soft.NewContext()
			f.contexts++
			return f.audio, nil
		},
		Logger:  logger.NewTestLogger(),
		Fetcher: f.tracks,
		Decoder: f.tracks,
	}
}

func (f *fixture) build(t *testing.T, cfg Config) *Component {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

// canvas returns mounted canvas i as a recording canvas.
func (f *fixture) canvas(t *testing.T, i int) *canvasmock.Canvas {
	t.Helper()
	canvases := f.container.Canvases()
	require.Greater(t, len(canvases), i)
	c, ok := canvases[i].(*canvasmock.Canvas)
	require.True(t, ok)
	return c
}

// waitTrack runs dispatched tasks until the whole-track decode is ready.
func (f *fixture) waitTrack(t *testing.T, state func() domain.TrackState) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for state() != domain.TrackReady {
		require.NoError(t, f.host.RunNext(ctx), "track never became ready")
	}
}

// fakeTracks serves synthetic decoded tracks by source name.
type fakeTracks struct {
	tracks map[string]domain.DecodedTrack
	gates  map[string]chan struct{}
	failed map[string]error

	// stubborn gates ignore cancellation
	stubborn bool
}

func newFakeTracks() *fakeTracks {
	return &fakeTracks{
		tracks: make(map[string]domain.DecodedTrack),
		gates:  make(map[string]chan struct{}),
		failed: make(map[string]error),
	}
}

// add registers a stereo track of the given length whose amplitude ramps up
// from silence.
func (f *fakeTracks) add(src string, seconds, bpm float64) {
	const rate = 1000
	n := int(seconds * rate)
	left, right := make([]float32, n), make([]float32, n)
	for i := range n {
		amp := float32(i) / float32(n)
		s := amp * float32(math.Sin(float64(i)*0.3))
		left[i], right[i] = s, -s
	}
	f.tracks[src] = domain.DecodedTrack{
		Buffer: domain.AudioBuffer{SampleRate: rate, Channels: [][]float32{left, right}},
		Tags:   domain.TrackTags{Title: src, BPM: bpm},
	}
}

// gate makes fetching src block until the returned channel is closed.
func (f *fakeTracks) gate(src string) chan struct{} {
	ch := make(chan struct{})
	f.gates[src] = ch
	return ch
}

func (f *fakeTracks) Fetch(ctx context.Context, src string) ([]byte, error) {
	if ch, ok := f.gates[src]; ok && f.stubborn {
		<-ch
	} else if ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.failed[src]; err != nil {
		return nil, err
	}
	return []byte(src), nil
}

func (f *fakeTracks) Decode(_ context.Context, data []byte) (*domain.DecodedTrack, error) {
	track, ok := f.tracks[string(data)]
	if !ok {
		return nil, domain.ErrUnsupportedFormat
	}
	return &track, nil
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *fixture, cfg *Config)
		field  string
		want   error
	}{
		{"unknown kind", func(_ *fixture, cfg *Config) { cfg.Kind = "sparkles" }, "Kind", domain.ErrUnknownKind},
		{"fft not a power of two", func(_ *fixture, cfg *Config) { cfg.FFTSize = 1000 }, "FFTSize", domain.ErrInvalidFFTSize},
		{"fft too large", func(_ *fixture, cfg *Config) { cfg.FFTSize = 65536 }, "FFTSize", domain.ErrInvalidFFTSize},
		{"missing player", func(_ *fixture, cfg *Config) { cfg.Player = nil }, "Player", domain.ErrMissingSource},
		{"missing container", func(_ *fixture, cfg *Config) { cfg.RenderTo = nil }, "RenderTo", domain.ErrMissingContainer},
		{"missing host", func(_ *fixture, cfg *Config) { cfg.Host = nil }, "Host", domain.ErrMissingHost},
		{"no audio context", func(_ *fixture, cfg *Config) { cfg.NewAudioContext = nil }, "NewAudioContext", domain.ErrMissingAudioContext},
		{"context without input", func(_ *fixture, cfg *Config) { cfg.AudioContext = soft.NewContext() }, "InputNode", domain.ErrMissingSource},
		{"stereo bars", func(_ *fixture, cfg *Config) { cfg.ChannelMode = domain.ChannelStereo }, "ChannelMode", domain.ErrInvalidChannelMode},
		{"negative border", func(_ *fixture, cfg *Config) { cfg.Border = -1 }, "Border", domain.ErrInvalidOption},
		{"timeline without decoder", func(_ *fixture, cfg *Config) {
			cfg.Kind = domain.KindTimeline
			cfg.Decoder = nil
		}, "Decoder", domain.ErrMissingDecoder},
		{"spectrum scale", func(_ *fixture, cfg *Config) {
			cfg.Kind = domain.KindSpectrum
			cfg.Spectrum.Scale = "cubic"
		}, "Spectrum.Scale", domain.ErrInvalidOption},
		{"mono peak meter", func(_ *fixture, cfg *Config) {
			cfg.Kind = domain.KindPeakMeter
			cfg.ChannelMode = domain.ChannelMono
		}, "ChannelMode", domain.ErrInvalidChannelMode},
		{"timeline speed", func(_ *fixture, cfg *Config) {
			cfg.Kind = domain.KindTimeline
			cfg.Timeline.Speed = -2
		}, "Timeline.Speed", domain.ErrInvalidOption},
		{"timeline beat", func(_ *fixture, cfg *Config) {
			cfg.Kind = domain.KindTimeline
			cfg.Timeline.Beat = domain.BeatInfo{BPM: -120, TimeSignature: 4}
		}, "Timeline.Beat", domain.ErrInvalidOption},
		{"waveform animation", func(_ *fixture, cfg *Config) {
			cfg.Kind = domain.KindWaveform
			cfg.Waveform.Animation = "bounce"
		}, "Waveform.Animation", domain.ErrInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 400, 200)
			cfg := f.config(domain.KindBars)
			tt.modify(f, &cfg)

			c, err := New(cfg)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)

			// nothing was created
			assert.Zero(t, f.host.CanvasesCreated())
			assert.Zero(t, f.contexts)
			assert.Zero(t, f.player.ListenerCount())
			assert.Zero(t, f.container.ListenerCount())
			assert.Zero(t, f.host.ActiveObservers())
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	f := newFixture(t, 400, 200)
	c := f.build(t, f.config(domain.KindSpectrum))
	defer func() { _ = c.Destroy() }()

	assert.Equal(t, domain.DefaultFFTSize, c.FFTSize())
	assert.Equal(t, domain.ChannelStereo, c.ChannelMode())
	assert.Equal(t, domain.KindSpectrum, c.Kind())
	assert.Equal(t, domain.StateBuilt, c.State())
	assert.Equal(t, domain.ColorBlack, c.s.Colors.Background)

	s, ok := c.Spectrum()
	require.True(t, ok)
	assert.Equal(t, domain.ScaleLinear, s.Scale())
	_, ok = c.Timeline()
	assert.False(t, ok)
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 7)

	byKind := make(map[domain.Kind]KindInfo)
	for i, k := range kinds {
		if i > 0 {
			assert.Less(t, kinds[i-1].Kind, k.Kind)
		}
		byKind[k.Kind] = k
	}
	assert.Equal(t, domain.ChannelStereo, byKind[domain.KindPeakMeter].DefaultMode)
	assert.Equal(t, domain.ChannelMono, byKind[domain.KindBars].DefaultMode)
	assert.False(t, byKind[domain.KindTimeline].Fullscreen)
	assert.False(t, byKind[domain.KindWaveform].Fullscreen)
	assert.True(t, byKind[domain.KindCircle].Fullscreen)
}

func TestConfiguredHotCuesAreCopied(t *testing.T) {
	f := newFixture(t, 400, 200)
	cfg := f.config(domain.KindTimeline)
	cfg.Timeline.HotCues = []domain.HotCue{{BeatIndex: 4}}

	s, err := resolve(cfg)
	require.NoError(t, err)
	cfg.Timeline.HotCues[0].BeatIndex = 9

	assert.Equal(t, 4, s.Timeline.HotCues[0].BeatIndex)
	assert.Equal(t, DefaultTimelineSpeed, s.Timeline.Speed)
	assert.Equal(t, domain.AlignCenter, s.Timeline.Align)
	assert.Equal(t, domain.ColorDarkPrimary, s.Colors.Track)
}
