package visualizer

import (
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Bars draws one vertical bar per frequency bin.
type Bars struct {
	e        *env
	canvas   ports.Canvas
	gradient domain.LinearGradient
}

func newBars(e *env) *Bars {
	return &Bars{e: e}
}

// Layout implements Strategy.
func (b *Bars) Layout(content domain.Size) []domain.Size {
	return []domain.Size{content}
}

// Resize implements Strategy.
func (b *Bars) Resize(canvases []ports.Canvas) error {
	b.canvas = canvases[0]
	b.gradient = verticalGradient(float64(b.canvas.Height()), b.e.Colors.Gradient)
	return nil
}

// Draw implements Strategy.
func (b *Bars) Draw(f *Frame) error {
	w, h, err := canvasSize("bars", b.canvas)
	if err != nil {
		return err
	}
	var errs drawErrs
	errs.add(fillBackground(b.canvas, b.e.Colors.Background))

	bins := f.Frequency[0]
	barWidth := w / float64(len(bins))
	for i, v := range bins {
		if v == 0 {
			continue
		}
		barHeight := float64(v) / 255 * h
		errs.add(b.canvas.FillRect(float64(i)*barWidth, h-barHeight, barWidth, barHeight, b.gradient))
	}
	return errs.err
}

// Close implements Strategy.
func (b *Bars) Close() {
	b.canvas = nil
}
