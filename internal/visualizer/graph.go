package visualizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// graph is the audio routing of one component:
//
//	source -> analyser -> sink                                 (mono, merged)
//	source -> splitter -> analyser L/R -> merger -> sink      (stereo)
//
// The sink is the context destination when the context is owned. With a
// shared context it is a zero gain node feeding the destination, so the
// caller's own routing alone decides what is heard.
type graph struct {
	logger *slog.Logger

	ctx    ports.AudioContext
	owned  bool
	source ports.AudioNode

	// entry is the first node after source; the only edge this graph adds
	// to a node it does not own.
	entry ports.AudioNode

	analysers []ports.AnalyserNode
	mute      ports.GainNode

	// nodes created by this graph, in creation order
	nodes []ports.AudioNode
}

func bindGraph(s *settings) (g *graph, err error) {
	g = &graph{logger: s.logger}
	defer func() {
		if err != nil {
			g.teardown()
			g = nil
		}
	}()

	if s.shared {
		g.ctx, g.source = s.AudioContext, s.InputNode
	} else {
		g.ctx, err = s.NewAudioContext()
		if err != nil {
			return g, fmt.Errorf("create audio context: %w", err)
		}
		if g.ctx == nil {
			return g, domain.NewConfigurationError("NewAudioContext", nil, domain.ErrMissingAudioContext)
		}
		g.owned = true
		g.source, err = g.ctx.CreateMediaElementSource(s.Player)
		if err != nil {
			return g, fmt.Errorf("create media source: %w", err)
		}
		g.nodes = append(g.nodes, g.source)
	}

	var out ports.AudioNode
	if s.ChannelMode == domain.ChannelStereo {
		out, err = g.bindStereo(s.FFTSize)
	} else {
		out, err = g.bindMono(s.FFTSize)
	}
	if err != nil {
		return g, err
	}

	sink := g.ctx.Destination()
	if !g.owned {
		g.mute, err = g.ctx.CreateGain()
		if err != nil {
			return g, fmt.Errorf("create mute gain: %w", err)
		}
		g.nodes = append(g.nodes, g.mute)
		g.mute.SetGain(0)
		if err = out.Connect(g.mute, 0, 0); err != nil {
			return g, fmt.Errorf("connect mute gain: %w", err)
		}
		out = g.mute
	}
	if err = out.Connect(sink, 0, 0); err != nil {
		return g, fmt.Errorf("connect destination: %w", err)
	}

	g.logger.Debug("audio graph bound",
		slog.Bool("owned_context", g.owned),
		slog.Int("analysers", len(g.analysers)),
		slog.Int("nodes", len(g.nodes)))
	return g, nil
}

func (g *graph) analyser(fftSize int) (ports.AnalyserNode, error) {
	a, err := g.ctx.CreateAnalyser()
	if err != nil {
		return nil, fmt.Errorf("create analyser: %w", err)
	}
	g.nodes = append(g.nodes, a)
	if err := a.SetFFTSize(fftSize); err != nil {
		return nil, domain.NewConfigurationError("FFTSize", fftSize, err)
	}
	g.analysers = append(g.analysers, a)
	return a, nil
}

func (g *graph) bindMono(fftSize int) (ports.AudioNode, error) {
	a, err := g.analyser(fftSize)
	if err != nil {
		return nil, err
	}
	if err := g.source.Connect(a, 0, 0); err != nil {
		return nil, fmt.Errorf("connect analyser: %w", err)
	}
	g.entry = a
	return a, nil
}

func (g *graph) bindStereo(fftSize int) (ports.AudioNode, error) {
	splitter, err := g.ctx.CreateChannelSplitter(2)
	if err != nil {
		return nil, fmt.Errorf("create splitter: %w", err)
	}
	g.nodes = append(g.nodes, splitter)
	if err := g.source.Connect(splitter, 0, 0); err != nil {
		return nil, fmt.Errorf("connect splitter: %w", err)
	}
	g.entry = splitter

	merger, err := g.ctx.CreateChannelMerger(2)
	if err != nil {
		return nil, fmt.Errorf("create merger: %w", err)
	}
	g.nodes = append(g.nodes, merger)

	for ch := range 2 {
		a, err := g.analyser(fftSize)
		if err != nil {
			return nil, err
		}
		if err := splitter.Connect(a, ch, 0); err != nil {
			return nil, fmt.Errorf("connect analyser %d: %w", ch, err)
		}
		if err := a.Connect(merger, 0, ch); err != nil {
			return nil, fmt.Errorf("connect merger input %d: %w", ch, err)
		}
	}
	return merger, nil
}

// resume wakes a suspended context.
func (g *graph) resume() {
	if g.ctx.State() != ports.ContextSuspended {
		return
	}
	if err := g.ctx.Resume(context.Background()); err != nil {
		g.logger.Warn("failed to resume audio context", slog.Any("error", err))
	}
}

// suspend pauses an owned context. A shared context belongs to the caller.
func (g *graph) suspend() {
	if !g.owned || g.ctx.State() != ports.ContextRunning {
		return
	}
	if err := g.ctx.Suspend(context.Background()); err != nil {
		g.logger.Warn("failed to suspend audio context", slog.Any("error", err))
	}
}

// teardown disconnects every node this graph created and closes an owned
// context. A shared input node only loses the edge this graph added.
func (g *graph) teardown() {
	if g.ctx == nil {
		return
	}
	if !g.owned && g.source != nil && g.entry != nil {
		if err := g.source.Disconnect(g.entry); err != nil && !errors.Is(err, domain.ErrNodeNotConnected) {
			g.logger.Warn("failed to disconnect input node", slog.Any("error", err))
		}
	}
	for _, n := range g.nodes {
		n.DisconnectAll()
	}
	if g.owned {
		if err := g.ctx.Close(); err != nil {
			g.logger.Warn("failed to close audio context", slog.Any("error", err))
		}
	}
	g.nodes, g.analysers, g.entry, g.mute = nil, nil, nil, nil
	g.ctx = nil
	g.logger.Debug("audio graph released")
}
