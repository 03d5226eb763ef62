// Package ports defines the interfaces between the visualization core and its host.
// Every collaborator the core consumes (audio engine, media element, container,
// frame scheduler, canvas, decoder) is described here and injected at construction.
package ports

import (
	"context"
)

// ContextState is the running state of an audio context.
type ContextState string

const (
	ContextRunning   ContextState = "running"
	ContextSuspended ContextState = "suspended"
	ContextClosed    ContextState = "closed"
)

// AudioNode is a vertex of an audio routing graph.
type AudioNode interface {
	// Connect routes output of this node into input of dst.
	Connect(dst AudioNode, output, input int) error

	// Disconnect removes every connection from this node to dst.
	// Returns an error wrapping domain.ErrNodeNotConnected when there is none.
	Disconnect(dst AudioNode) error

	// DisconnectAll removes every outgoing connection of this node.
	DisconnectAll()

	NumberOfInputs() int
	NumberOfOutputs() int

	// ChannelCount returns the number of channels the node outputs.
	ChannelCount() int
}

// AnalyserNode exposes pull-based frequency and time-domain snapshots of the
// signal passing through it, without altering that signal.
type AnalyserNode interface {
	AudioNode

	FFTSize() int
	SetFFTSize(n int) error

	// FrequencyBinCount is FFTSize()/2.
	FrequencyBinCount() int

	// GetByteFrequencyData fills dst with up to FrequencyBinCount magnitudes in [0, 255].
	GetByteFrequencyData(dst []byte)

	// GetByteTimeDomainData fills dst with up to FFTSize samples, 128 being silence.
	GetByteTimeDomainData(dst []byte)

	// GetFloatTimeDomainData fills dst with up to FFTSize samples in [-1, 1].
	GetFloatTimeDomainData(dst []float32)
}

// GainNode scales its input.
type GainNode interface {
	AudioNode

	Gain() float64
	SetGain(v float64)
}

// AudioContext creates audio nodes and owns the audio output.
type AudioContext interface {
	// CreateMediaElementSource wraps a media element as a graph source.
	CreateMediaElementSource(el MediaElement) (AudioNode, error)
	CreateAnalyser() (AnalyserNode, error)
	CreateGain() (GainNode, error)
	CreateChannelSplitter(outputs int) (AudioNode, error)
	CreateChannelMerger(inputs int) (AudioNode, error)

	// Destination is the real audio output.
	Destination() AudioNode

	SampleRate() float64

	// CurrentTime is the context clock in seconds.
	CurrentTime() float64

	State() ContextState
	Resume(ctx context.Context) error
	Suspend(ctx context.Context) error

	// Close releases every node of the context. A closed context cannot be reused.
	Close() error
}

// AudioContextFactory creates the audio context a component owns when the
// caller does not share one.
type AudioContextFactory func() (AudioContext, error)
