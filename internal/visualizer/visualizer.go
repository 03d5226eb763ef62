// Package visualizer renders live audio analysis into host canvases.
//
// A Component binds a media element to one or two analysis nodes, draws a
// Strategy on every host frame while the element plays, and follows its
// container through resizes and fullscreen. Everything runs on the host UI
// goroutine; background work (track decoding) reports back through
// ports.Host.Dispatch.
package visualizer

import (
	"cmp"
	"slices"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// Version of the visualization library.
const Version = "1.0.0"

var (
	mono   = []domain.ChannelMode{domain.ChannelMono}
	stereo = []domain.ChannelMode{domain.ChannelStereo, domain.ChannelMergedStereo}
)

var kindTraits = map[domain.Kind]traits{
	domain.KindBars: {
		name: "Bars", modes: mono, needs: needFrequency, fullscreen: true,
		build: func(e *env) Strategy { return newBars(e) },
	},
	domain.KindCircle: {
		name: "Circle", modes: mono, needs: needFrequency | needTimeDomain, fullscreen: true,
		build: func(e *env) Strategy { return newCircle(e) },
	},
	domain.KindOscilloscope: {
		name: "Oscilloscope", modes: stereo, needs: needTimeDomain, fullscreen: true,
		build: func(e *env) Strategy { return newOscilloscope(e) },
	},
	domain.KindPeakMeter: {
		name: "Peak Meter", modes: []domain.ChannelMode{domain.ChannelStereo}, needs: needFloat, fullscreen: true,
		build: func(e *env) Strategy { return newPeakMeter(e) },
	},
	domain.KindSpectrum: {
		name: "Spectrum", modes: stereo, needs: needFrequency, fullscreen: true,
		build: func(e *env) Strategy { return newSpectrum(e) },
	},
	domain.KindTimeline: {
		name: "Timeline", modes: mono, track: true,
		build: func(e *env) Strategy { return newTimeline(e) },
	},
	domain.KindWaveform: {
		name: "Waveform", modes: mono, track: true,
		build: func(e *env) Strategy { return newWaveform(e) },
	},
}

// KindInfo describes a visualization kind.
type KindInfo struct {
	Kind domain.Kind
	Name string

	// DefaultMode is the channel mode used when none is configured.
	DefaultMode domain.ChannelMode
	Fullscreen  bool
}

// Kinds returns every supported kind with its display name, sorted by kind.
func Kinds() []KindInfo {
	out := make([]KindInfo, 0, len(kindTraits))
	for k, t := range kindTraits {
		out = append(out, KindInfo{Kind: k, Name: t.name, DefaultMode: t.modes[0], Fullscreen: t.fullscreen})
	}
	slices.SortFunc(out, func(a, b KindInfo) int { return cmp.Compare(a.Kind, b.Kind) })
	return out
}

// New validates cfg and builds a component. Configuration errors are returned
// before any canvas or audio node exists.
func New(cfg Config) (*Component, error) {
	s, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	return build(s)
}
