package visualizer

import (
	"image/color"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Config is the construction input of a Component.
//
// The audio source is either Player alone, in which case the component creates
// its own audio context with NewAudioContext, or Player together with a shared
// AudioContext and the InputNode to analyse. Player always drives playback
// state through its play and pause events.
type Config struct {
	Kind     domain.Kind
	Player   ports.MediaElement
	RenderTo ports.Container
	Host     ports.Host

	// FFTSize must be a power of two in [32, 32768]. Zero selects 1024.
	FFTSize int

	AudioContext    ports.AudioContext
	InputNode       ports.AudioNode
	NewAudioContext ports.AudioContextFactory

	// ChannelMode defaults to the natural mode of the kind.
	ChannelMode domain.ChannelMode

	// Border is the width in pixels of the frame drawn around each canvas by
	// the host, subtracted on every side when sizing canvases.
	Border int

	Colors Colors
	Logger *slog.Logger

	// Fetcher and Decoder load whole tracks for Timeline and Waveform.
	Fetcher ports.Fetcher
	Decoder ports.TrackDecoder

	Circle    CircleOptions
	Spectrum  SpectrumOptions
	PeakMeter PeakMeterOptions
	Timeline  TimelineOptions
	Waveform  WaveformOptions
}

// Colors overrides the default palette. Zero colors keep the default.
type Colors struct {
	Background color.RGBA
	Signal     color.RGBA // oscilloscope trace
	Track      color.RGBA // timeline and waveform body
	Progress   color.RGBA // played part of a waveform
	MainBeat   color.RGBA
	SubBeat    color.RGBA
	Loop       color.RGBA
	LoopAlpha  color.RGBA
	Text       color.RGBA // peak meter legend

	// Gradient colors bars, bottom to top.
	Gradient []color.RGBA
}

// CircleOptions configures the Circle kind.
type CircleOptions struct {
	// Seed makes the star field reproducible. Zero seeds from the clock.
	Seed uint64

	// Image is drawn at the centre of the circle, over the visualization.
	Image ports.Canvas
}

// SpectrumOptions configures the Spectrum kind.
type SpectrumOptions struct {
	Scale          domain.Scale // linear by default
	ColorSmoothing bool
}

// PeakMeterOptions configures the PeakMeter kind.
type PeakMeterOptions struct {
	Orientation  domain.Orientation // horizontal by default
	DBScaleMin   float64            // dB floor as a positive number, 60 by default
	DBScaleTicks float64            // dB between legend ticks, 15 by default
	PeakHold     time.Duration      // 1s by default
}

// TimelineOptions configures the Timeline kind.
type TimelineOptions struct {
	// Speed is the number of seconds shown across the canvas width, 5 by default.
	Speed float64

	Align domain.Align // center by default
	Scale float64      // wave height share of the canvas, 0.95 by default

	// Beat sets the beat grid. When zero the BPM tag of the track is used with
	// no offset and four beats per measure.
	Beat domain.BeatInfo

	HotCues []domain.HotCue
}

// WaveformOptions configures the Waveform kind.
type WaveformOptions struct {
	BarWidth       float64 // 1 by default
	BarMarginScale float64 // share of a bar left empty, in [0, 1], 0.25 by default
	Split          bool    // draw left up and right down instead of merged channels
	Align          domain.Align
	Animation      Animation
	NoSignalLine   bool
}

// Animation is how the bar under the playhead shows progress.
type Animation string

const (
	AnimationGradient Animation = "gradient"
	AnimationFade     Animation = "fade"
)

// Default option values.
const (
	DefaultBorder         = 0
	DefaultDBScaleMin     = 60
	DefaultDBScaleTicks   = 15
	DefaultPeakHold       = time.Second
	DefaultTimelineSpeed  = 5.0
	DefaultTimelineScale  = 0.95
	DefaultTimeSignature  = 4
	DefaultBarWidth       = 1.0
	DefaultBarMarginScale = 0.25
)

// settings is a validated Config with defaults applied.
type settings struct {
	Config
	logger *slog.Logger
	traits traits
	shared bool
}

func resolve(cfg Config) (*settings, error) {
	tr, ok := kindTraits[cfg.Kind]
	if !ok {
		return nil, domain.NewConfigurationError("Kind", cfg.Kind, domain.ErrUnknownKind)
	}
	if cfg.Player == nil {
		return nil, domain.NewConfigurationError("Player", nil, domain.ErrMissingSource)
	}
	if cfg.RenderTo == nil {
		return nil, domain.NewConfigurationError("RenderTo", nil, domain.ErrMissingContainer)
	}
	if cfg.Host == nil {
		return nil, domain.NewConfigurationError("Host", nil, domain.ErrMissingHost)
	}

	if cfg.FFTSize == 0 {
		cfg.FFTSize = domain.DefaultFFTSize
	}
	if !domain.ValidFFTSize(cfg.FFTSize) {
		return nil, domain.NewConfigurationError("FFTSize", cfg.FFTSize, domain.ErrInvalidFFTSize)
	}

	s := &settings{traits: tr}
	switch {
	case cfg.AudioContext != nil && cfg.InputNode == nil:
		return nil, domain.NewConfigurationError("InputNode", nil, domain.ErrMissingSource)
	case cfg.AudioContext == nil && cfg.InputNode != nil:
		return nil, domain.NewConfigurationError("AudioContext", nil, domain.ErrMissingAudioContext)
	case cfg.AudioContext != nil:
		s.shared = true
	case cfg.NewAudioContext == nil:
		return nil, domain.NewConfigurationError("NewAudioContext", nil, domain.ErrMissingAudioContext)
	}

	if cfg.ChannelMode == domain.ChannelDefault {
		cfg.ChannelMode = tr.modes[0]
	}
	if !slices.Contains(tr.modes, cfg.ChannelMode) {
		return nil, domain.NewConfigurationError("ChannelMode", cfg.ChannelMode.String(), domain.ErrInvalidChannelMode)
	}
	if cfg.Border < 0 {
		return nil, domain.NewConfigurationError("Border", cfg.Border, domain.ErrInvalidOption)
	}
	if tr.track && (cfg.Fetcher == nil || cfg.Decoder == nil) {
		return nil, domain.NewConfigurationError("Decoder", nil, domain.ErrMissingDecoder)
	}

	cfg.Colors = resolveColors(cfg.Colors, cfg.Kind)

	var err error
	switch cfg.Kind {
	case domain.KindSpectrum:
		cfg.Spectrum, err = resolveSpectrum(cfg.Spectrum)
	case domain.KindPeakMeter:
		cfg.PeakMeter, err = resolvePeakMeter(cfg.PeakMeter)
	case domain.KindTimeline:
		cfg.Timeline, err = resolveTimeline(cfg.Timeline)
	case domain.KindWaveform:
		cfg.Waveform, err = resolveWaveform(cfg.Waveform)
	}
	if err != nil {
		return nil, err
	}

	l := cfg.Logger
	if l == nil {
		l = logger.Discard()
	}
	s.logger = l.With(slog.String("component", "visualizer"), slog.String("kind", string(cfg.Kind)))
	s.Config = cfg
	return s, nil
}

func resolveColors(c Colors, kind domain.Kind) Colors {
	background := domain.ColorBackground
	track := domain.ColorText
	switch kind {
	case domain.KindSpectrum:
		background = domain.ColorBlack
	case domain.KindTimeline:
		track = domain.ColorDarkPrimary
	}

	c.Background = domain.Or(c.Background, background)
	c.Signal = domain.Or(c.Signal, domain.ColorPrimary)
	c.Track = domain.Or(c.Track, track)
	c.Progress = domain.Or(c.Progress, domain.ColorPrimary)
	c.MainBeat = domain.Or(c.MainBeat, domain.ColorPrimary)
	c.SubBeat = domain.Or(c.SubBeat, domain.ColorAntiPrimary)
	c.Loop = domain.Or(c.Loop, domain.ColorLoop)
	c.LoopAlpha = domain.Or(c.LoopAlpha, domain.ColorLoopAlpha)
	c.Text = domain.Or(c.Text, domain.ColorText)
	if len(c.Gradient) == 0 {
		c.Gradient = domain.AudioGradient
	}
	return c
}

func resolveSpectrum(o SpectrumOptions) (SpectrumOptions, error) {
	if o.Scale == "" {
		o.Scale = domain.ScaleLinear
	}
	if o.Scale != domain.ScaleLinear && o.Scale != domain.ScaleLogarithmic {
		return o, domain.NewConfigurationError("Spectrum.Scale", o.Scale, domain.ErrInvalidOption)
	}
	return o, nil
}

func resolvePeakMeter(o PeakMeterOptions) (PeakMeterOptions, error) {
	if o.Orientation == "" {
		o.Orientation = domain.Horizontal
	}
	if o.Orientation != domain.Horizontal && o.Orientation != domain.Vertical {
		return o, domain.NewConfigurationError("PeakMeter.Orientation", o.Orientation, domain.ErrInvalidOption)
	}
	if o.DBScaleMin == 0 {
		o.DBScaleMin = DefaultDBScaleMin
	}
	if o.DBScaleTicks == 0 {
		o.DBScaleTicks = DefaultDBScaleTicks
	}
	if o.PeakHold == 0 {
		o.PeakHold = DefaultPeakHold
	}
	if !(o.DBScaleMin > 0) || math.IsInf(o.DBScaleMin, 0) {
		return o, domain.NewConfigurationError("PeakMeter.DBScaleMin", o.DBScaleMin, domain.ErrInvalidOption)
	}
	if !(o.DBScaleTicks > 0) || o.DBScaleTicks > o.DBScaleMin {
		return o, domain.NewConfigurationError("PeakMeter.DBScaleTicks", o.DBScaleTicks, domain.ErrInvalidOption)
	}
	if o.PeakHold < 0 {
		return o, domain.NewConfigurationError("PeakMeter.PeakHold", o.PeakHold, domain.ErrInvalidOption)
	}
	return o, nil
}

func resolveAlign(field string, a domain.Align) (domain.Align, error) {
	switch a {
	case "":
		return domain.AlignCenter, nil
	case domain.AlignCenter, domain.AlignTop, domain.AlignBottom:
		return a, nil
	}
	return a, domain.NewConfigurationError(field, a, domain.ErrInvalidOption)
}

func resolveTimeline(o TimelineOptions) (TimelineOptions, error) {
	var err error
	if o.Speed == 0 {
		o.Speed = DefaultTimelineSpeed
	}
	if o.Scale == 0 {
		o.Scale = DefaultTimelineScale
	}
	if !(o.Speed > 0) || math.IsInf(o.Speed, 0) {
		return o, domain.NewConfigurationError("Timeline.Speed", o.Speed, domain.ErrInvalidOption)
	}
	if !(o.Scale > 0 && o.Scale <= 1) {
		return o, domain.NewConfigurationError("Timeline.Scale", o.Scale, domain.ErrInvalidOption)
	}
	if o.Align, err = resolveAlign("Timeline.Align", o.Align); err != nil {
		return o, err
	}
	if o.Beat != (domain.BeatInfo{}) && !o.Beat.Valid() {
		return o, domain.NewConfigurationError("Timeline.Beat", o.Beat, domain.ErrInvalidOption)
	}
	o.HotCues = slices.Clone(o.HotCues)
	return o, nil
}

func resolveWaveform(o WaveformOptions) (WaveformOptions, error) {
	var err error
	if o.BarWidth == 0 {
		o.BarWidth = DefaultBarWidth
	}
	if o.BarMarginScale == 0 {
		o.BarMarginScale = DefaultBarMarginScale
	}
	if o.Animation == "" {
		o.Animation = AnimationGradient
	}
	if !(o.BarWidth > 0) || math.IsInf(o.BarWidth, 0) {
		return o, domain.NewConfigurationError("Waveform.BarWidth", o.BarWidth, domain.ErrInvalidOption)
	}
	if !(o.BarMarginScale >= 0 && o.BarMarginScale <= 1) {
		return o, domain.NewConfigurationError("Waveform.BarMarginScale", o.BarMarginScale, domain.ErrInvalidOption)
	}
	if o.Animation != AnimationGradient && o.Animation != AnimationFade {
		return o, domain.NewConfigurationError("Waveform.Animation", o.Animation, domain.ErrInvalidOption)
	}
	if o.Align, err = resolveAlign("Waveform.Align", o.Align); err != nil {
		return o, err
	}
	return o, nil
}
