package visualizer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Component is a live visualization bound to a media element and a container.
//
// Thread-safety: not safe for concurrent use. Every method, and every host
// callback it registers, must run on the host UI goroutine.
type Component struct {
	s         *settings
	logger    *slog.Logger
	host      ports.Host
	player    ports.MediaElement
	container ports.Container

	strategy Strategy
	surface  *surface
	graph    *graph
	frame    Frame

	state    domain.State
	playing  bool
	disposed bool

	// Render loop
	frameID      ports.FrameID
	framePending bool
	lastFrame    time.Duration
	drawn        int

	// Subscriptions
	observer      ports.ResizeObserver
	playerSubs    []domain.SubscriptionID
	containerSubs []domain.SubscriptionID

	// Fullscreen
	fullscreen bool
	savedStyle domain.Style
}

// build runs the construction sequence: surface, audio graph, events.
func build(s *settings) (*Component, error) {
	c := &Component{
		s:         s,
		logger:    s.logger,
		host:      s.Host,
		player:    s.Player,
		container: s.RenderTo,
		state:     domain.StateUnbuilt,
	}
	c.strategy = s.traits.build(&env{
		settings: s,
		host:     s.Host,
		player:   s.Player,
		logger:   s.logger,
		redraw:   c.redraw,
	})

	content := s.RenderTo.Size().Shrink(2*s.Border, 2*s.Border)
	surf, err := buildSurface(c.host, c.container, s.Border, c.strategy.Layout(content))
	if err != nil {
		c.strategy.Close()
		return nil, err
	}
	c.surface = surf
	if err := c.strategy.Resize(surf.canvases); err != nil {
		c.logger.Warn("initial layout failed", slog.Any("error", err))
	}

	g, err := bindGraph(s)
	if err != nil {
		c.strategy.Close()
		surf.unmount()
		return nil, err
	}
	c.graph = g
	c.allocFrame()

	c.bindEvents()
	c.state = domain.StateBuilt
	c.logger.Debug("component built",
		slog.Int("fft_size", s.FFTSize),
		slog.String("channel_mode", s.ChannelMode.String()),
		slog.Int("canvases", len(surf.canvases)))

	if st, ok := c.strategy.(starter); ok {
		st.Start()
	}
	if c.player.Paused() {
		c.draw(c.lastFrame)
	} else {
		c.onPlay()
	}
	return c, nil
}

func (c *Component) bindEvents() {
	c.observer = c.host.NewResizeObserver(c.onResize)
	c.observer.Observe(c.container)

	c.listenPlayer(domain.EventPlay, func(domain.Event) { c.onPlay() })
	c.listenPlayer(domain.EventPause, func(domain.Event) { c.onPause() })

	if h, ok := c.strategy.(mediaHandler); ok {
		forward := func(e domain.Event) {
			if me, ok := e.(domain.MediaEvent); ok && !c.disposed {
				h.HandleMedia(me)
			}
		}
		for _, t := range []domain.EventType{
			domain.EventPlay, domain.EventPause, domain.EventTimeUpdate, domain.EventLoadedMetadata, domain.EventEnded,
		} {
			c.listenPlayer(t, forward)
		}
	}

	if c.s.traits.fullscreen {
		c.listenContainer(domain.EventDoubleClick, func(domain.Event) {
			if err := c.ToggleFullscreen(); err != nil {
				c.logger.Warn("fullscreen toggle failed", slog.Any("error", err))
			}
		})
	}
	if h, ok := c.strategy.(pointerHandler); ok {
		forward := func(e domain.Event) {
			if pe, ok := e.(domain.PointerEvent); ok && !c.disposed {
				// canvas coordinates
				b := float64(c.s.Border)
				h.HandlePointer(domain.NewPointerEvent(pe.Type(), pe.X-b, pe.Y-b))
			}
		}
		for _, t := range domain.PointerEventTypes {
			if t == domain.EventDoubleClick {
				continue
			}
			c.listenContainer(t, forward)
		}
	}
}

func (c *Component) listenPlayer(t domain.EventType, h domain.EventHandler) {
	if id := c.player.AddEventListener(t, h); id != "" {
		c.playerSubs = append(c.playerSubs, id)
	}
}

func (c *Component) listenContainer(t domain.EventType, h domain.EventHandler) {
	if id := c.container.AddEventListener(t, h); id != "" {
		c.containerSubs = append(c.containerSubs, id)
	}
}

func (c *Component) onPlay() {
	if c.disposed || c.playing {
		return
	}
	c.playing = true
	c.state = domain.StatePlaying
	c.graph.resume()
	c.logger.Debug("playback started")

	c.draw(c.lastFrame)
	c.schedule()
}

func (c *Component) onPause() {
	if c.disposed || !c.playing {
		return
	}
	c.playing = false
	c.state = domain.StatePaused
	c.graph.suspend()
	c.logger.Debug("playback paused")
}

func (c *Component) onResize(domain.Size) {
	if c.disposed {
		return
	}
	if c.fullscreen && !c.host.IsFullscreen() {
		// left fullscreen through the host
		c.fullscreen = false
		c.container.SetStyle(c.savedStyle)
	}
	c.surface.resize(c.strategy.Layout(c.surface.content()))
	if err := c.strategy.Resize(c.surface.canvases); err != nil {
		c.logger.Warn("resize failed", slog.Any("error", err))
	}
	if !c.playing {
		c.draw(c.lastFrame)
	}
}

// redraw draws one frame outside the render loop. While playing the next
// frame is drawn soon anyway.
func (c *Component) redraw() {
	if c.disposed || c.playing {
		return
	}
	c.draw(c.lastFrame)
}

// ToggleFullscreen enters fullscreen on the container, or leaves it when the
// host is already fullscreen. The container style is restored on exit.
func (c *Component) ToggleFullscreen() error {
	if c.disposed {
		return domain.ErrDisposed
	}
	if !c.s.traits.fullscreen {
		return fmt.Errorf("fullscreen on %s: %w", c.s.Kind, domain.ErrInvalidOption)
	}
	if c.host.IsFullscreen() {
		return c.exitFullscreen()
	}

	c.savedStyle = c.container.Style()
	c.container.SetStyle(domain.FullscreenStyle)
	c.fullscreen = true
	if err := c.host.RequestFullscreen(c.container); err != nil {
		c.fullscreen = false
		c.container.SetStyle(c.savedStyle)
		return fmt.Errorf("request fullscreen: %w", err)
	}
	return nil
}

func (c *Component) exitFullscreen() error {
	ours := c.fullscreen
	c.fullscreen = false
	if ours {
		c.container.SetStyle(c.savedStyle)
	}
	if err := c.host.ExitFullscreen(); err != nil {
		return fmt.Errorf("exit fullscreen: %w", err)
	}
	return nil
}

// Destroy releases the render loop, listeners, observer, strategy state,
// audio nodes and canvases. A second call returns domain.ErrDisposed.
func (c *Component) Destroy() error {
	if c.disposed {
		return domain.ErrDisposed
	}
	c.disposed = true
	c.playing = false

	if c.framePending {
		c.host.CancelFrame(c.frameID)
		c.framePending = false
	}
	for _, id := range c.playerSubs {
		c.player.RemoveEventListener(id)
	}
	for _, id := range c.containerSubs {
		c.container.RemoveEventListener(id)
	}
	c.playerSubs, c.containerSubs = nil, nil

	c.observer.Unobserve(c.container)
	c.observer.Disconnect()

	var errs []error
	if c.fullscreen {
		c.fullscreen = false
		c.container.SetStyle(c.savedStyle)
		if err := c.host.ExitFullscreen(); err != nil {
			errs = append(errs, fmt.Errorf("exit fullscreen: %w", err))
		}
	}

	c.strategy.Close()
	c.graph.teardown()
	c.surface.unmount()
	c.frame = Frame{}
	c.state = domain.StateDestroyed
	c.logger.Debug("component destroyed", slog.Int("frames_drawn", c.drawn))
	return errors.Join(errs...)
}

// Redraw draws one frame now with the latest analysis data.
func (c *Component) Redraw() error {
	if c.disposed {
		return domain.ErrDisposed
	}
	c.draw(c.lastFrame)
	return nil
}

// Kind returns the visualization kind.
func (c *Component) Kind() domain.Kind { return c.s.Kind }

// State returns the lifecycle state.
func (c *Component) State() domain.State { return c.state }

// IsPlaying reports whether the render loop runs.
func (c *Component) IsPlaying() bool { return c.playing }

// FFTSize returns the analysis size.
func (c *Component) FFTSize() int { return c.s.FFTSize }

// ChannelMode returns the resolved channel mode.
func (c *Component) ChannelMode() domain.ChannelMode { return c.s.ChannelMode }

// IsFullscreen reports whether this component put its container in fullscreen.
func (c *Component) IsFullscreen() bool { return c.fullscreen }

// FramesDrawn returns the number of frames rendered so far.
func (c *Component) FramesDrawn() int { return c.drawn }

// Canvases returns the mounted canvases. Empty after Destroy.
func (c *Component) Canvases() []ports.Canvas {
	if c.surface == nil {
		return nil
	}
	return append([]ports.Canvas(nil), c.surface.canvases...)
}

// Strategy returns the kind-specific strategy, for example *Timeline.
func (c *Component) Strategy() Strategy { return c.strategy }

// Timeline returns the strategy of a timeline component.
func (c *Component) Timeline() (*Timeline, bool) {
	t, ok := c.strategy.(*Timeline)
	return t, ok
}

// Spectrum returns the strategy of a spectrum component.
func (c *Component) Spectrum() (*Spectrum, bool) {
	s, ok := c.strategy.(*Spectrum)
	return s, ok
}

// PeakMeter returns the strategy of a peak meter component.
func (c *Component) PeakMeter() (*PeakMeter, bool) {
	p, ok := c.strategy.(*PeakMeter)
	return p, ok
}

// Waveform returns the strategy of a waveform component.
func (c *Component) Waveform() (*Waveform, bool) {
	w, ok := c.strategy.(*Waveform)
	return w, ok
}
