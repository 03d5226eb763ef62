package visualizer

import (
	"image/color"
	"math"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// drawErrs keeps the first error of a frame so one bad shape does not hide
// the rest of the frame.
type drawErrs struct {
	err error
}

func (d *drawErrs) add(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// canvasSize returns the size of c as floats, or a DrawError when c cannot
// be drawn on.
func canvasSize(op string, c ports.Canvas) (w, h float64, err error) {
	if c == nil {
		return 0, 0, domain.NewDrawError(op, "no canvas")
	}
	if c.Width() <= 0 || c.Height() <= 0 {
		return 0, 0, domain.NewDrawError(op, "empty canvas %dx%d", c.Width(), c.Height())
	}
	return float64(c.Width()), float64(c.Height()), nil
}

func solid(c color.RGBA) domain.Solid {
	return domain.Solid{Color: c}
}

// fillBackground paints the whole canvas.
func fillBackground(c ports.Canvas, col color.RGBA) error {
	w, h := float64(c.Width()), float64(c.Height())
	c.ClearRect(0, 0, w, h)
	return c.FillRect(0, 0, w, h, solid(col))
}

// verticalGradient runs colors from the bottom (y = h) to the top (y = 0).
func verticalGradient(h float64, colors []color.RGBA) domain.LinearGradient {
	return domain.LinearGradient{X0: 0, Y0: h, X1: 0, Y1: 0, Stops: domain.EvenStops(colors)}
}

// marker returns the triangle with base (x-radius, base)-(x+radius, base)
// and its tip at (x, tip).
func marker(x, base, radius, tip float64) *domain.Path {
	return domain.NewPath().
		MoveTo(x-radius, base).
		LineTo(x+radius, base).
		LineTo(x, tip).
		Close()
}

// channelGap is the space between the two canvases of a stereo layout.
const channelGap = 4

// stereoLayout stacks one canvas per channel, or returns a single canvas of
// the same total height when channels are merged.
func stereoLayout(content domain.Size, mode domain.ChannelMode) []domain.Size {
	channel := domain.Size{Width: content.Width, Height: max(content.Height-channelGap, 0) / 2}
	if mode == domain.ChannelMergedStereo {
		return []domain.Size{{Width: channel.Width, Height: channel.Height * 2}}
	}
	return []domain.Size{channel, channel}
}

// clamp01 limits v to [0, 1].
func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
