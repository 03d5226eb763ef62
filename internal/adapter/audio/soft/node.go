package soft

import (
	"fmt"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// processor computes the outputs of a node for one render quantum. in holds,
// per input port, the mixed channels of everything connected to it.
type processor interface {
	process(in [][][]float32) [][][]float32
}

// inputMixer is implemented by processors that need a fixed channel count on
// their inputs. Other nodes take the widest connected source.
type inputMixer interface {
	inputChannels() int
}

type edge struct {
	src, dst      *node
	output, input int
}

// node is the graph vertex shared by every node type. Its exported methods
// are promoted into the public node types.
type node struct {
	ctx  *Context
	kind string

	inputs   int
	outputs  int
	channels int // 0 follows the input

	proc processor

	in  [][]edge // incoming per input port
	out []edge

	// output cache for the current quantum
	lastQuantum uint64
	cache       [][][]float32
	visiting    bool
}

type graphNode interface {
	base() *node
}

func (n *node) base() *node { return n }

// Connect routes output of n into input of dst. Connecting the same ports
// twice is a no-op.
func (n *node) Connect(dst ports.AudioNode, output, input int) error {
	gn, ok := dst.(graphNode)
	if !ok || gn.base().ctx != n.ctx {
		return fmt.Errorf("connect %s: %w", n.kind, domain.ErrForeignNode)
	}
	d := gn.base()

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if n.ctx.state == ports.ContextClosed {
		return fmt.Errorf("connect %s: %w", n.kind, domain.ErrContextClosed)
	}
	if output < 0 || output >= n.outputs {
		return fmt.Errorf("connect %s output %d: %w", n.kind, output, domain.ErrInvalidPort)
	}
	if input < 0 || input >= d.inputs {
		return fmt.Errorf("connect %s to %s input %d: %w", n.kind, d.kind, input, domain.ErrInvalidPort)
	}

	e := edge{src: n, dst: d, output: output, input: input}
	for _, existing := range n.out {
		if existing == e {
			return nil
		}
	}
	n.out = append(n.out, e)
	d.in[input] = append(d.in[input], e)
	return nil
}

// Disconnect removes every connection from n to dst.
func (n *node) Disconnect(dst ports.AudioNode) error {
	gn, ok := dst.(graphNode)
	if !ok || gn.base().ctx != n.ctx {
		return fmt.Errorf("disconnect %s: %w", n.kind, domain.ErrForeignNode)
	}
	d := gn.base()

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	removed := 0
	kept := n.out[:0]
	for _, e := range n.out {
		if e.dst == d {
			d.removeIncoming(e)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	n.out = kept

	if removed == 0 {
		return fmt.Errorf("disconnect %s from %s: %w", n.kind, d.kind, domain.ErrNodeNotConnected)
	}
	return nil
}

// DisconnectAll removes every outgoing connection of n.
func (n *node) DisconnectAll() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	for _, e := range n.out {
		e.dst.removeIncoming(e)
	}
	n.out = nil
}

func (n *node) removeIncoming(e edge) {
	list := n.in[e.input]
	for i, existing := range list {
		if existing == e {
			n.in[e.input] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// NumberOfInputs returns the input port count.
func (n *node) NumberOfInputs() int { return n.inputs }

// NumberOfOutputs returns the output port count.
func (n *node) NumberOfOutputs() int { return n.outputs }

// ChannelCount returns the channels the node outputs.
func (n *node) ChannelCount() int {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return n.outputChannelCount(0)
}

// maxGraphDepth bounds channel count resolution on cyclic graphs.
const maxGraphDepth = 64

func (n *node) outputChannelCount(depth int) int {
	if n.channels > 0 {
		return n.channels
	}
	if n.inputs == 0 || depth > maxGraphDepth {
		return 1
	}
	return n.mixChannels(0, depth+1)
}

func (n *node) connectedInputs() int {
	count := 0
	for _, list := range n.in {
		count += len(list)
	}
	return count
}

// mixChannels is the channel count of input port i once mixed.
func (n *node) mixChannels(i, depth int) int {
	if m, ok := n.proc.(inputMixer); ok {
		return m.inputChannels()
	}
	widest := 1
	for _, e := range n.in[i] {
		if c := e.src.outputChannelCount(depth); c > widest {
			widest = c
		}
	}
	return widest
}

// pull returns the outputs of n for quantum q, computing them once.
func (n *node) pull(q uint64) [][][]float32 {
	if n.lastQuantum == q {
		return n.cache
	}
	if n.visiting {
		// cycle: the node feeds itself silence for this quantum
		out := make([][][]float32, n.outputs)
		for i := range out {
			out[i] = silence(1)
		}
		return out
	}

	n.visiting = true
	in := make([][][]float32, n.inputs)
	for i := range in {
		in[i] = n.pullInput(q, i)
	}
	n.cache = n.proc.process(in)
	n.lastQuantum = q
	n.visiting = false

	return n.cache
}

// pullInput sums every source connected to input port i, up or down mixing
// each to the port's channel count.
func (n *node) pullInput(q uint64, i int) [][]float32 {
	want := n.mixChannels(i, 0)
	mix := silence(want)

	for _, e := range n.in[i] {
		outs := e.src.pull(q)
		if e.output >= len(outs) {
			continue
		}
		src := outs[e.output]
		switch {
		case len(src) == want:
			for ch := range want {
				addInto(mix[ch], src[ch])
			}
		case len(src) == 1:
			for ch := range want {
				addInto(mix[ch], src[0])
			}
		case want == 1:
			scale := 1 / float32(len(src))
			for _, s := range src {
				for k, v := range s {
					mix[0][k] += v * scale
				}
			}
		default:
			for ch := range min(want, len(src)) {
				addInto(mix[ch], src[ch])
			}
		}
	}
	return mix
}

func silence(channels int) [][]float32 {
	out := make([][]float32, channels)
	for i := range out {
		out[i] = make([]float32, RenderQuantum)
	}
	return out
}

func addInto(dst, src []float32) {
	for i := range min(len(dst), len(src)) {
		dst[i] += src[i]
	}
}
