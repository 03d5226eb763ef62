// Package soft provides an in-process audio context. It implements the audio
// routing graph of ports.AudioContext in pure Go: a media element source, an
// FFT analyser, gain, channel splitter and merger, and a destination that is a
// beep.Streamer and can be handed to the speaker.
//
// Rendering is pull based. The consumer of the destination (the speaker
// goroutine, or a test calling Render) pulls one render quantum at a time and
// every node computes its output at most once per quantum.
//
// Thread-safety: all methods are safe for concurrent use. A single mutex
// guards the graph, so analyser snapshots taken on the UI goroutine never
// observe a half-rendered quantum.
package soft

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

const (
	// RenderQuantum is the number of frames a node processes per pull.
	RenderQuantum = 128

	// DefaultSampleRate is used when no sample rate option is given.
	DefaultSampleRate = 44100

	// outputChannels of the destination.
	outputChannels = 2
)

// Context is a software audio context.
type Context struct {
	// Dependencies
	logger *slog.Logger

	sampleRate float64
	state      ports.ContextState

	// quantum counts rendered quanta; node output caches are keyed by it
	quantum uint64

	nodes map[*node]struct{}
	dest  *Destination

	// pending holds the last rendered quantum; pendingPos is the next frame
	// Stream hands out, RenderQuantum when the quantum is used up
	pending    [RenderQuantum][2]float64
	pendingPos int

	mu sync.Mutex
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(c *Context) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

// NewContext creates a running context with an unconnected destination.
func NewContext(opts ...Option) *Context {
	c := &Context{
		sampleRate: DefaultSampleRate,
		state:      ports.ContextRunning,
		nodes:      make(map[*node]struct{}),
		pendingPos: RenderQuantum,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Discard()
	}
	c.logger = c.logger.With(slog.String("component", "audio-context"))

	d := &Destination{}
	d.node = c.newNode("destination", 1, 0, outputChannels, d)
	c.dest = d

	return c
}

// Factory returns an AudioContextFactory creating contexts with opts.
func Factory(opts ...Option) ports.AudioContextFactory {
	return func() (ports.AudioContext, error) {
		return NewContext(opts...), nil
	}
}

func (c *Context) newNode(kind string, inputs, outputs, channels int, proc processor) *node {
	n := &node{
		ctx:      c,
		kind:     kind,
		inputs:   inputs,
		outputs:  outputs,
		channels: channels,
		proc:     proc,
		in:       make([][]edge, inputs),
	}
	c.nodes[n] = struct{}{}
	return n
}

// create registers a node unless the context is closed.
func (c *Context) create(kind string, inputs, outputs, channels int, proc processor) (*node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ports.ContextClosed {
		return nil, fmt.Errorf("create %s: %w", kind, domain.ErrContextClosed)
	}
	n := c.newNode(kind, inputs, outputs, channels, proc)
	c.logger.Debug("node created", slog.String("kind", kind))
	return n, nil
}

// CreateMediaElementSource wraps el as a stereo source node. Elements that
// implement beep.Streamer are pulled for samples; any other element yields
// silence.
func (c *Context) CreateMediaElementSource(el ports.MediaElement) (ports.AudioNode, error) {
	if el == nil {
		return nil, fmt.Errorf("create media source: %w", domain.ErrMissingSource)
	}
	s := newMediaSource(el)
	n, err := c.create("media-source", 0, 1, outputChannels, s)
	if err != nil {
		return nil, err
	}
	s.node = n
	return s, nil
}

// CreateAnalyser creates an analyser with the default FFT size.
func (c *Context) CreateAnalyser() (ports.AnalyserNode, error) {
	a := newAnalyser()
	n, err := c.create("analyser", 1, 1, 0, a)
	if err != nil {
		return nil, err
	}
	a.node = n
	return a, nil
}

// CreateGain creates a unity gain node.
func (c *Context) CreateGain() (ports.GainNode, error) {
	g := &Gain{gain: 1}
	n, err := c.create("gain", 1, 1, 0, g)
	if err != nil {
		return nil, err
	}
	g.node = n
	return g, nil
}

// CreateChannelSplitter creates a node routing input channel i to mono output i.
func (c *Context) CreateChannelSplitter(outputs int) (ports.AudioNode, error) {
	if outputs < 1 || outputs > 32 {
		return nil, fmt.Errorf("create splitter with %d outputs: %w", outputs, domain.ErrInvalidPort)
	}
	s := &Splitter{}
	n, err := c.create("splitter", 1, outputs, 1, s)
	if err != nil {
		return nil, err
	}
	s.node = n
	return s, nil
}

// CreateChannelMerger creates a node combining each mono input i into output channel i.
func (c *Context) CreateChannelMerger(inputs int) (ports.AudioNode, error) {
	if inputs < 1 || inputs > 32 {
		return nil, fmt.Errorf("create merger with %d inputs: %w", inputs, domain.ErrInvalidPort)
	}
	m := &Merger{}
	n, err := c.create("merger", inputs, 1, inputs, m)
	if err != nil {
		return nil, err
	}
	m.node = n
	return m, nil
}

// Destination returns the context output.
func (c *Context) Destination() ports.AudioNode {
	return c.dest
}

// Output returns the destination as a streamer for the speaker.
func (c *Context) Output() *Destination {
	return c.dest
}

// SampleRate returns the rate in Hz.
func (c *Context) SampleRate() float64 {
	return c.sampleRate
}

// CurrentTime returns the seconds rendered while running.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.quantum*RenderQuantum) / c.sampleRate
}

// State returns the context state.
func (c *Context) State() ports.ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts rendering. Resuming a running context is a no-op.
func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case ports.ContextClosed:
		return fmt.Errorf("resume: %w", domain.ErrContextClosed)
	case ports.ContextSuspended:
		c.state = ports.ContextRunning
		c.logger.Debug("context resumed")
	}
	return nil
}

// Suspend stops the clock. The destination streams silence until Resume.
func (c *Context) Suspend(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case ports.ContextClosed:
		return fmt.Errorf("suspend: %w", domain.ErrContextClosed)
	case ports.ContextRunning:
		c.state = ports.ContextSuspended
		c.logger.Debug("context suspended")
	}
	return nil
}

// Close disconnects and releases every node. Closing twice returns an error.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ports.ContextClosed {
		return fmt.Errorf("close: %w", domain.ErrContextClosed)
	}
	for n := range c.nodes {
		n.in = make([][]edge, n.inputs)
		n.out = nil
	}
	c.nodes = make(map[*node]struct{})
	c.pendingPos = RenderQuantum
	c.state = ports.ContextClosed
	c.logger.Debug("context closed")
	return nil
}

// LiveNodes returns the number of nodes, other than the destination, that
// still take part in a connection.
func (c *Context) LiveNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for n := range c.nodes {
		if n == c.dest.node {
			continue
		}
		if len(n.out) > 0 || n.connectedInputs() > 0 {
			count++
		}
	}
	return count
}

// ConnectionCount returns the number of connections in the graph.
func (c *Context) ConnectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for n := range c.nodes {
		count += len(n.out)
	}
	return count
}

// Render pulls frames from the destination and returns them. It is the
// synchronous equivalent of the speaker streaming the destination.
func (c *Context) Render(frames int) [][2]float64 {
	out := make([][2]float64, frames)
	c.dest.Stream(out)
	return out
}

// renderQuantum advances the clock by one quantum and stores the mixed
// destination output in c.pending. Caller holds c.mu.
func (c *Context) renderQuantum() {
	c.quantum++
	q := c.quantum

	out := c.dest.node.pullInput(q, 0)
	for i := range RenderQuantum {
		c.pending[i] = [2]float64{float64(out[0][i]), float64(out[1][i])}
	}
	c.pendingPos = 0

	// Analysers keep analysing even when nothing downstream pulls them.
	for n := range c.nodes {
		if _, ok := n.proc.(*Analyser); ok && n.lastQuantum != q && n.connectedInputs() > 0 {
			n.pull(q)
		}
	}
}
