// Package domain contains the visualization models shared by the core and its adapters.
// Nothing in here talks to a host, an audio engine or a screen.
package domain

import (
	"fmt"
	"image/color"
	"math"
	"time"
)

// Kind names a visualization.
type Kind string

// Supported visualization kinds.
const (
	KindBars         Kind = "bars"
	KindCircle       Kind = "circle"
	KindOscilloscope Kind = "oscilloscope"
	KindPeakMeter    Kind = "peakmeter"
	KindSpectrum     Kind = "spectrum"
	KindTimeline     Kind = "timeline"
	KindWaveform     Kind = "waveform"
)

// FFT size bounds accepted by analysis nodes.
const (
	MinFFTSize     = 32
	MaxFFTSize     = 32768
	DefaultFFTSize = 1024
)

// ValidFFTSize reports whether n is a power of two within [MinFFTSize, MaxFFTSize].
func ValidFFTSize(n int) bool {
	return n >= MinFFTSize && n <= MaxFFTSize && n&(n-1) == 0
}

// ChannelMode selects how many analysis channels a visualization uses.
type ChannelMode int

const (
	// ChannelDefault lets the visualization pick its natural mode.
	ChannelDefault ChannelMode = iota
	// ChannelMono analyzes the source through a single analysis node.
	ChannelMono
	// ChannelStereo splits the source into left and right analysis nodes.
	ChannelStereo
	// ChannelMergedStereo analyzes a stereo source as one combined channel.
	ChannelMergedStereo
)

// String returns the channel mode name.
func (m ChannelMode) String() string {
	switch m {
	case ChannelDefault:
		return "default"
	case ChannelMono:
		return "mono"
	case ChannelStereo:
		return "stereo"
	case ChannelMergedStereo:
		return "merged"
	default:
		return fmt.Sprintf("ChannelMode(%d)", int(m))
	}
}

// Analysers returns the number of analysis nodes the mode needs.
func (m ChannelMode) Analysers() int {
	if m == ChannelStereo {
		return 2
	}
	return 1
}

// State is the lifecycle state of a visualization component.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StatePlaying
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TrackState tracks the offline decode of the whole track for Timeline and Waveform.
type TrackState int

const (
	TrackLoading TrackState = iota
	TrackDecoding
	TrackReady
)

func (s TrackState) String() string {
	switch s {
	case TrackLoading:
		return "loading"
	case TrackDecoding:
		return "decoding"
	case TrackReady:
		return "ready"
	default:
		return fmt.Sprintf("TrackState(%d)", int(s))
	}
}

// Size is a pixel size.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether the size has no drawable area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Shrink returns the size reduced by dw and dh, never below zero.
func (s Size) Shrink(dw, dh int) Size {
	return Size{Width: max(s.Width-dw, 0), Height: max(s.Height-dh, 0)}
}

// Style holds the container layout properties saved and restored around fullscreen.
type Style struct {
	Position string
	Width    string
	Height   string
	ZIndex   string
}

// FullscreenStyle is applied to a container while it is fullscreen.
var FullscreenStyle = Style{Position: "fixed", Width: "100vw", Height: "100vh", ZIndex: "999"}

// Align positions a waveform inside its canvas.
type Align string

const (
	AlignCenter Align = "center"
	AlignTop    Align = "top"
	AlignBottom Align = "bottom"
)

// Orientation of a peak meter.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Scale of a spectrogram frequency axis.
type Scale string

const (
	ScaleLinear      Scale = "linear"
	ScaleLogarithmic Scale = "logarithmic"
)

// BeatInfo configures a beat grid.
type BeatInfo struct {
	Offset        float64 // seconds before the first beat
	BPM           float64
	TimeSignature int // beats per measure
}

// Valid reports whether the beat info can produce a grid.
func (b BeatInfo) Valid() bool {
	return b.BPM > 0 && b.TimeSignature > 0 && b.Offset >= 0 && !math.IsInf(b.BPM, 0) && !math.IsNaN(b.BPM)
}

// BeatDuration returns the length of one beat in seconds.
func (b BeatInfo) BeatDuration() float64 {
	if b.BPM <= 0 {
		return 0
	}
	return 60 / b.BPM
}

// Beat is one position of a beat grid.
type Beat struct {
	Index   int     // 0-based position in the grid
	Time    float64 // seconds from track start
	Primary bool    // first beat of a measure
}

// Label returns the "measure.beat" label shown next to the playhead, as
// counted from the beat before this one.
func (b Beat) Label(timeSignature int) string {
	if timeSignature <= 0 {
		return "0.0"
	}
	measure := floorDiv(b.Index-1, timeSignature) + 1
	count := (b.Index - 1) % timeSignature
	if count == -1 {
		count = 0
	}
	if count < 0 {
		count += timeSignature
	}
	return fmt.Sprintf("%d.%d", measure, count+1)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// HotCue marks a beat of the timeline.
type HotCue struct {
	BeatIndex int
	Number    int // 1-based, assigned at insertion
	Label     string
	Color     color.RGBA
	Time      float64 // seconds, from the beat position
}

// TrackCues is the timeline state saved per track.
type TrackCues struct {
	Beat    BeatInfo
	HotCues []HotCue
}

// AudioBuffer holds decoded planar PCM samples in [-1, 1].
type AudioBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of sample frames per channel.
func (b *AudioBuffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length.
func (b *AudioBuffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Seconds returns the buffer length in seconds.
func (b *AudioBuffer) Seconds() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Channel returns channel i, falling back to the first channel for mono buffers.
func (b *AudioBuffer) Channel(i int) []float32 {
	if b == nil || len(b.Channels) == 0 {
		return nil
	}
	if i < len(b.Channels) {
		return b.Channels[i]
	}
	return b.Channels[0]
}

// TrackTags is the subset of track metadata the visualizations use.
type TrackTags struct {
	Title  string
	Artist string
	BPM    float64
}

// DecodedTrack is the result of an offline decode.
type DecodedTrack struct {
	Src    string
	Buffer AudioBuffer
	Tags   TrackTags
}
