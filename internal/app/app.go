// Package app wires the demo application: a Fyne window hosting one
// visualizer component fed by a media element, the software audio context and
// the speaker.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/audio/soft"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/decode"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/media"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/audiovis/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
	"github.com/tejashwikalptaru/audiovis/internal/visualizer"
)

// Application holds the window, the audio chain and the component.
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	config  Config
	fyneApp fyne.App
	window  fyne.Window

	// Repositories
	prefs ports.PreferencesRepository
	cues  ports.CueRepository

	// Infrastructure
	host    *fyneui.Host
	surface *fyneui.Surface
	audio   *soft.Context
	source  ports.AudioNode
	gain    ports.GainNode
	volume  float64
	element *media.Element
	fetcher *decode.Fetcher
	decoder *decode.Decoder

	component  *visualizer.Component
	playButton *widget.Button
	title      *widget.Label

	speakerOn bool
	shutdown  bool
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the window title
	AppName string

	// Kind is the visualization shown. Empty selects the kind shown last.
	Kind domain.Kind

	// Src is loaded before the component is built, so saved timeline cues apply to it
	Src string

	// FFTSize and ChannelMode are passed to the component; zero values use its defaults
	FFTSize     int
	ChannelMode domain.ChannelMode

	// SampleRate of the audio context and the speaker
	SampleRate int

	// Width and Height of the window
	Width, Height float32

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// Headless skips the speaker. Tests set it.
	Headless bool

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:      "com.audiovis.app",
		AppName:    "AudioVis",
		SampleRate: 44100,
		Width:      800,
		Height:     450,
		LogLevel:   loggerCfg.Level,
	}
}

// speakerBuffer is the speaker latency.
const speakerBuffer = 100 * time.Millisecond

// NewApplication creates the application with all dependencies wired.
func NewApplication(config Config) (*Application, error) {
	a := &Application{config: config}

	if config.TestFyneApp != nil {
		a.fyneApp = config.TestFyneApp
	} else {
		a.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	loggerCfg := logger.DefaultConfig()
	loggerCfg.Level = config.LogLevel
	a.logger = logger.NewLogger(loggerCfg)
	a.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("kind", string(config.Kind)),
		slog.String("version", GetVersionInfo().FullString()))

	prefs := a.fyneApp.Preferences()
	a.prefs = memory.NewPreferencesRepository(prefs)
	a.cues = memory.NewCueRepository(prefs)
	if a.config.Kind == "" {
		kind, err := a.prefs.LoadKind(domain.KindBars)
		if err != nil {
			return nil, fmt.Errorf("failed to load preferences: %w", err)
		}
		a.config.Kind = kind
	}

	a.window = a.fyneApp.NewWindow(config.AppName)
	a.window.Resize(fyne.NewSize(config.Width, config.Height))
	a.host = fyneui.NewHost(a.window, fyneui.WithLogger(a.logger.With(slog.String("component", "host"))))
	a.surface = a.host.NewSurface()

	a.fetcher = decode.NewFetcher(decode.WithFetchLogger(a.logger))
	a.decoder = decode.NewDecoder(a.logger)

	a.audio = soft.NewContext(
		soft.WithSampleRate(float64(config.SampleRate)),
		soft.WithLogger(a.logger.With(slog.String("component", "audio"))),
	)
	a.element = media.NewElement(a.fetcher, a.decoder,
		media.WithLogger(a.logger),
		media.WithDispatcher(a.host.Dispatch),
		media.WithOutputRate(beep.SampleRate(config.SampleRate)),
	)

	if err := a.wireAudio(); err != nil {
		a.Shutdown()
		return nil, err
	}
	if config.Src != "" {
		if err := a.element.Load(context.Background(), config.Src); err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("failed to load %s: %w", config.Src, err)
		}
	}
	if err := a.buildComponent(); err != nil {
		a.Shutdown()
		return nil, err
	}
	a.buildUI()
	return a, nil
}

// wireAudio routes the element through the volume gain to the speaker.
func (a *Application) wireAudio() error {
	src, err := a.audio.CreateMediaElementSource(a.element)
	if err != nil {
		return fmt.Errorf("failed to create media source: %w", err)
	}
	gain, err := a.audio.CreateGain()
	if err != nil {
		return fmt.Errorf("failed to create gain: %w", err)
	}
	if err := src.Connect(gain, 0, 0); err != nil {
		return fmt.Errorf("failed to connect media source: %w", err)
	}
	if err := gain.Connect(a.audio.Destination(), 0, 0); err != nil {
		return fmt.Errorf("failed to connect gain: %w", err)
	}
	a.source, a.gain = src, gain

	volume, err := a.prefs.LoadVolume()
	if err != nil {
		a.logger.Warn("failed to load volume", slog.Any("error", err))
		volume = 1
	}
	a.applyVolume(volume)

	if a.config.Headless {
		return nil
	}
	sr := beep.SampleRate(a.config.SampleRate)
	if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	speaker.Play(a.audio.Output())
	a.speakerOn = true
	return nil
}

func (a *Application) buildComponent() error {
	cfg := visualizer.Config{
		Kind:         a.config.Kind,
		Player:       a.element,
		RenderTo:     a.surface.Container(),
		Host:         a.host,
		FFTSize:      a.config.FFTSize,
		AudioContext: a.audio,
		InputNode:    a.source,
		ChannelMode:  a.config.ChannelMode,
		Logger:       a.logger.With(slog.String("component", "visualizer")),
		Fetcher:      a.fetcher,
		Decoder:      a.decoder,
	}
	if a.config.Kind == domain.KindTimeline {
		a.restoreCues(&cfg.Timeline)
	}

	c, err := visualizer.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s visualizer: %w", a.config.Kind, err)
	}
	a.component = c
	return nil
}

func (a *Application) buildUI() {
	a.title = widget.NewLabel("")
	a.title.Truncation = fyne.TextTruncateClip
	a.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.TogglePlay)

	update := func(domain.Event) { a.updateControls() }
	a.element.AddEventListener(domain.EventPlay, update)
	a.element.AddEventListener(domain.EventPause, update)
	a.element.AddEventListener(domain.EventLoadedMetadata, update)

	controls := container.NewBorder(nil, nil, a.playButton, nil, a.title)
	a.window.SetContent(container.NewBorder(nil, controls, nil, nil, a.surface))
	a.updateControls()
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) { a.HandleKey(ev.Name) })
}

// loopBeats is the length of a loop started from the keyboard.
const loopBeats = 4

// HandleKey runs the action bound to key:
//
//	Space    play or pause
//	Up/Down  volume
//	F        fullscreen
//	H        hot cue on the closest beat (Timeline)
//	L        start a loop at the closest beat, or leave it (Timeline)
//	S        linear or logarithmic scale (Spectrum)
//	C        colour smoothing (Spectrum)
func (a *Application) HandleKey(key fyne.KeyName) {
	var err error
	switch key {
	case fyne.KeySpace:
		a.TogglePlay()
	case fyne.KeyUp:
		a.SetVolume(a.volume + volumeStep)
	case fyne.KeyDown:
		a.SetVolume(a.volume - volumeStep)
	case fyne.KeyF:
		err = a.component.ToggleFullscreen()
	case fyne.KeyH:
		if tl, ok := a.component.Timeline(); ok {
			if _, err = tl.SetHotCuePoint("", color.RGBA{}); err == nil {
				a.saveCues()
			}
		}
	case fyne.KeyL:
		if tl, ok := a.component.Timeline(); ok {
			err = toggleLoop(tl)
		}
	case fyne.KeyS:
		if s, ok := a.component.Spectrum(); ok {
			scale := domain.ScaleLogarithmic
			if s.Scale() == domain.ScaleLogarithmic {
				scale = domain.ScaleLinear
			}
			err = s.SetScale(scale)
		}
	case fyne.KeyC:
		if s, ok := a.component.Spectrum(); ok {
			err = s.SetColorSmoothing(!s.ColorSmoothing())
		}
	}
	if err != nil {
		a.logger.Debug("key ignored", slog.String("key", string(key)), slog.Any("error", err))
	}
}

func toggleLoop(tl *visualizer.Timeline) error {
	if _, _, ok := tl.Loop(); ok {
		return tl.ExitLoop()
	}
	if err := tl.SetLoopEntryPoint(); err != nil {
		return err
	}
	return tl.SetLoopEndPoint(loopBeats)
}

func (a *Application) updateControls() {
	if a.element.Paused() {
		a.playButton.SetIcon(theme.MediaPlayIcon())
	} else {
		a.playButton.SetIcon(theme.MediaPauseIcon())
	}
	a.title.SetText(a.element.Src())
}

// restoreCues applies the cues saved for the startup track.
func (a *Application) restoreCues(opts *visualizer.TimelineOptions) {
	src := a.element.Src()
	if src == "" {
		return
	}
	saved, ok, err := a.cues.LoadCues(src)
	if err != nil {
		a.logger.Warn("failed to load cues", slog.String("src", src), slog.Any("error", err))
		return
	}
	if !ok {
		return
	}
	if saved.Beat.Valid() {
		opts.Beat = saved.Beat
	}
	opts.HotCues = saved.HotCues
	a.logger.Debug("cues restored", slog.String("src", src), slog.Int("hot_cues", len(saved.HotCues)))
}

// saveCues stores the timeline beat info and hot cues of the current track.
func (a *Application) saveCues() {
	tl, ok := a.component.Timeline()
	src := a.element.Src()
	if !ok || src == "" || tl.TrackState() != domain.TrackReady || !tl.BeatInfo().Valid() {
		return
	}
	cues := domain.TrackCues{Beat: tl.BeatInfo(), HotCues: tl.HotCues()}
	if err := a.cues.SaveCues(src, cues); err != nil {
		a.logger.Warn("failed to save cues", slog.String("src", src), slog.Any("error", err))
	}
}

// volumeStep is the change per volume key press.
const volumeStep = 0.1

func (a *Application) applyVolume(v float64) {
	a.volume = min(max(v, 0), 1)
	a.gain.SetGain(a.volume)
}

// SetVolume sets the output gain in [0, 1] and saves it.
func (a *Application) SetVolume(v float64) {
	a.applyVolume(v)
	if err := a.prefs.SaveVolume(a.volume); err != nil {
		a.logger.Warn("failed to save volume", slog.Any("error", err))
	}
}

// Volume returns the output gain.
func (a *Application) Volume() float64 {
	return a.volume
}

// Load loads src into the media element. Timeline cues of the previous track
// are saved first.
func (a *Application) Load(ctx context.Context, src string) error {
	a.saveCues()
	if err := a.element.Load(ctx, src); err != nil {
		return fmt.Errorf("failed to load %s: %w", src, err)
	}
	a.logger.Info("track loaded", slog.String("src", src), slog.Float64("duration", a.element.Duration()))
	return nil
}

// TogglePlay plays a paused track or pauses a playing one.
func (a *Application) TogglePlay() {
	if !a.element.Paused() {
		a.element.Pause()
		return
	}
	if err := a.element.Play(); err != nil {
		a.logger.Warn("failed to play", slog.Any("error", err))
	}
}

// Component returns the visualizer.
func (a *Application) Component() *visualizer.Component {
	return a.component
}

// Element returns the media element.
func (a *Application) Element() *media.Element {
	return a.element
}

// Run starts playback and shows the window. It blocks until the window is closed.
func (a *Application) Run() {
	a.logger.Info("application started")
	a.host.Start()
	if a.element.Src() != "" {
		a.TogglePlay()
	}
	a.window.ShowAndRun()
}

// Shutdown releases the component, the audio chain and the speaker. Calling
// it twice is a no-op.
func (a *Application) Shutdown() {
	if a.shutdown {
		return
	}
	a.shutdown = true
	a.logger.Info("shutting down application")

	if a.host != nil {
		a.host.Stop()
	}
	if a.element != nil {
		a.element.Pause()
	}
	if a.component != nil {
		a.saveCues()
		if err := a.prefs.SaveKind(a.component.Kind()); err != nil {
			a.logger.Warn("failed to save kind", slog.Any("error", err))
		}
		if err := a.component.Destroy(); err != nil {
			a.logger.Warn("failed to destroy visualizer", slog.Any("error", err))
		}
	}
	if a.speakerOn {
		speaker.Close()
	}
	if a.audio != nil {
		if err := a.audio.Close(); err != nil && !errors.Is(err, domain.ErrContextClosed) {
			a.logger.Warn("failed to close audio context", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}
