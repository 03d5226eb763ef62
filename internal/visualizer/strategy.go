package visualizer

import (
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Strategy draws one kind of visualization. A Component owns exactly one and
// calls it on the host UI goroutine only.
type Strategy interface {
	// Layout returns the pixel size of every canvas for a content box.
	Layout(content domain.Size) []domain.Size

	// Resize is called with the canvases at construction and after every
	// layout change. Geometry derived from the canvas size is rebuilt here.
	Resize(canvases []ports.Canvas) error

	// Draw renders one frame.
	Draw(f *Frame) error

	// Close releases strategy state. It may block until background work stops.
	Close()
}

// Frame is one snapshot of the analysis nodes, one slice per analyser.
// Slices a kind does not need are nil.
type Frame struct {
	Time    time.Duration
	Playing bool

	Frequency  [][]byte    // fftSize/2 bytes per analyser
	TimeDomain [][]byte    // fftSize bytes per analyser
	Float      [][]float32 // fftSize samples per analyser
}

// pointerHandler is implemented by strategies reacting to container pointer events.
type pointerHandler interface {
	HandlePointer(e domain.PointerEvent)
}

// mediaHandler is implemented by strategies following the player clock and
// track changes.
type mediaHandler interface {
	HandleMedia(e domain.MediaEvent)
}

// starter is implemented by strategies with work to begin once the component
// is fully built.
type starter interface {
	Start()
}

// needs is the analysis data a kind reads per frame.
type needs uint8

const (
	needFrequency needs = 1 << iota
	needTimeDomain
	needFloat
)

// env is what a strategy may use from its component.
type env struct {
	*settings

	host   ports.Host
	player ports.MediaElement
	logger *slog.Logger

	// redraw draws a frame now, outside the render loop.
	redraw func()
}

// traits describes a kind.
type traits struct {
	name string

	// modes lists the accepted channel modes, natural mode first
	modes []domain.ChannelMode

	needs      needs
	fullscreen bool

	// track kinds decode the whole source and draw it without live data
	track bool

	build func(e *env) Strategy
}
