package visualizer

import (
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Oscilloscope traces the time-domain signal, one canvas per channel, or a
// single double-height canvas when channels are merged.
type Oscilloscope struct {
	e        *env
	canvases []ports.Canvas
}

func newOscilloscope(e *env) *Oscilloscope {
	return &Oscilloscope{e: e}
}

// Layout implements Strategy.
func (o *Oscilloscope) Layout(content domain.Size) []domain.Size {
	return stereoLayout(content, o.e.ChannelMode)
}

// Resize implements Strategy.
func (o *Oscilloscope) Resize(canvases []ports.Canvas) error {
	o.canvases = canvases
	return nil
}

// Draw implements Strategy.
func (o *Oscilloscope) Draw(f *Frame) error {
	var errs drawErrs
	for i, c := range o.canvases {
		errs.add(o.trace(c, f.TimeDomain[i]))
	}
	return errs.err
}

func (o *Oscilloscope) trace(c ports.Canvas, samples []byte) error {
	w, h, err := canvasSize("oscilloscope", c)
	if err != nil {
		return err
	}
	if err := fillBackground(c, o.e.Colors.Background); err != nil {
		return err
	}
	if len(samples) == 0 {
		return domain.NewDrawError("oscilloscope", "no samples")
	}

	step := w / float64(len(samples))
	path := domain.NewPath()
	for i, v := range samples {
		x, y := float64(i)*step, h*float64(v)/255
		if i == 0 {
			path.MoveTo(x, y)
		} else {
			path.LineTo(x, y)
		}
	}
	return c.StrokePath(path, solid(o.e.Colors.Signal), 1)
}

// Close implements Strategy.
func (o *Oscilloscope) Close() {
	o.canvases = nil
}
