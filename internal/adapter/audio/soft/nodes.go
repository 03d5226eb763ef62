package soft

import (
	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// MediaSource is a stereo source node fed by a media element.
type MediaSource struct {
	*node

	element  ports.MediaElement
	streamer beep.Streamer
	buf      [][2]float64
}

func newMediaSource(el ports.MediaElement) *MediaSource {
	s := &MediaSource{
		element: el,
		buf:     make([][2]float64, RenderQuantum),
	}
	if streamer, ok := el.(beep.Streamer); ok {
		s.streamer = streamer
	}
	return s
}

// Element returns the wrapped media element.
func (s *MediaSource) Element() ports.MediaElement {
	return s.element
}

func (s *MediaSource) process(_ [][][]float32) [][][]float32 {
	out := silence(outputChannels)
	if s.streamer == nil {
		return [][][]float32{out}
	}

	n, _ := s.streamer.Stream(s.buf)
	for i := range n {
		out[0][i] = float32(s.buf[i][0])
		out[1][i] = float32(s.buf[i][1])
	}
	return [][][]float32{out}
}

// Gain scales its input by a factor.
type Gain struct {
	*node

	gain float64
}

// Gain returns the factor.
func (g *Gain) Gain() float64 {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	return g.gain
}

// SetGain sets the factor. 0 mutes.
func (g *Gain) SetGain(v float64) {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	g.gain = v
}

func (g *Gain) process(in [][][]float32) [][][]float32 {
	src := in[0]
	out := make([][]float32, len(src))
	factor := float32(g.gain)
	for ch, samples := range src {
		out[ch] = make([]float32, len(samples))
		if factor == 0 {
			continue
		}
		for i, v := range samples {
			out[ch][i] = v * factor
		}
	}
	return [][][]float32{out}
}

// Splitter routes input channel i to mono output i. Missing channels are silent.
type Splitter struct {
	*node
}

func (s *Splitter) process(in [][][]float32) [][][]float32 {
	src := in[0]
	out := make([][][]float32, s.outputs)
	for i := range out {
		if i < len(src) {
			out[i] = [][]float32{src[i]}
			continue
		}
		out[i] = silence(1)
	}
	return out
}

// Merger downmixes each input to mono and places input i in output channel i.
type Merger struct {
	*node
}

func (m *Merger) inputChannels() int { return 1 }

func (m *Merger) process(in [][][]float32) [][][]float32 {
	out := make([][]float32, len(in))
	for i, channels := range in {
		out[i] = channels[0]
	}
	return [][][]float32{out}
}

// Destination is the context output. It implements beep.Streamer so it can
// be played by the speaker.
type Destination struct {
	*node
}

func (d *Destination) inputChannels() int { return outputChannels }

func (d *Destination) process(_ [][][]float32) [][][]float32 { return nil }

// Stream fills samples with the rendered graph output. While the context is
// suspended it streams silence without advancing the clock. A closed context
// reports the end of the stream.
func (d *Destination) Stream(samples [][2]float64) (int, bool) {
	c := d.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case ports.ContextClosed:
		return 0, false
	case ports.ContextSuspended:
		clear(samples)
		return len(samples), true
	}

	filled := 0
	for filled < len(samples) {
		if c.pendingPos >= RenderQuantum {
			c.renderQuantum()
		}
		k := copy(samples[filled:], c.pending[c.pendingPos:])
		c.pendingPos += k
		filled += k
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (d *Destination) Err() error { return nil }

var (
	_ ports.AudioNode    = (*MediaSource)(nil)
	_ ports.GainNode     = (*Gain)(nil)
	_ ports.AudioNode    = (*Splitter)(nil)
	_ ports.AudioNode    = (*Merger)(nil)
	_ beep.Streamer      = (*Destination)(nil)
	_ ports.AudioContext = (*Context)(nil)
)
