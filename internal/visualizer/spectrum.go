package visualizer

import (
	"fmt"
	"math"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Spectrum is a scrolling spectrogram: every frame adds a one pixel column
// on the right, bins from low frequencies at the bottom to high at the top,
// brightness from magnitude.
type Spectrum struct {
	e        *env
	canvases []ports.Canvas
	buffer   ports.Canvas // back buffer for the scroll copy

	scale     domain.Scale
	smoothing bool

	// logScale[i] is the y offset of bin i on the logarithmic axis
	logScale []float64
}

// spectrumSpeed is the scroll offset in pixels per frame.
const spectrumSpeed = 1

func newSpectrum(e *env) *Spectrum {
	return &Spectrum{
		e:         e,
		scale:     e.Spectrum.Scale,
		smoothing: e.Spectrum.ColorSmoothing,
	}
}

// Layout implements Strategy.
func (s *Spectrum) Layout(content domain.Size) []domain.Size {
	return stereoLayout(content, s.e.ChannelMode)
}

// Resize implements Strategy. The back buffer follows the channel canvas
// size and the logarithmic table is rebuilt for the new height.
func (s *Spectrum) Resize(canvases []ports.Canvas) error {
	s.canvases = canvases
	w, h := canvases[0].Width(), canvases[0].Height()
	if s.buffer == nil {
		buf, err := s.e.host.NewCanvas(w, h)
		if err != nil {
			return fmt.Errorf("create spectrum buffer: %w", err)
		}
		s.buffer = buf
	} else {
		s.buffer.SetSize(w, h)
	}
	s.logScale = logScaleTable(s.e.FFTSize/2, float64(h))

	var errs drawErrs
	for _, c := range canvases {
		if c.Width() > 0 && c.Height() > 0 {
			errs.add(fillBackground(c, s.e.Colors.Background))
		}
	}
	return errs.err
}

// logScaleTable returns the pixel offset of each of bins frequency bins on a
// log10 axis of the given height. The first entry is the height itself.
func logScaleTable(bins int, height float64) []float64 {
	table := make([]float64, bins)
	if bins == 0 {
		return table
	}
	table[0] = height
	top := math.Log10(float64(bins))
	for i := 1; i < bins; i++ {
		table[i] = height - math.Log10(float64(i))/top*height
	}
	return table
}

// Draw implements Strategy.
func (s *Spectrum) Draw(f *Frame) error {
	var errs drawErrs
	for i, c := range s.canvases {
		errs.add(s.column(c, f.Frequency[i]))
	}
	return errs.err
}

func (s *Spectrum) column(c ports.Canvas, bins []byte) error {
	w, h, err := canvasSize("spectrum", c)
	if err != nil {
		return err
	}
	if err := s.buffer.DrawImage(c, 0, 0); err != nil {
		return err
	}

	var errs drawErrs
	x := w - spectrumSpeed
	binHeight := h / float64(len(bins))
	for i := range bins {
		switch s.scale {
		case domain.ScaleLogarithmic:
			if i == 0 {
				// log10(0) has no offset
				continue
			}
			y0, y1 := s.logScale[i-1], s.logScale[i]
			p := domain.Paint(solid(domain.Gray(bins[i])))
			if s.smoothing && i < len(bins)-1 {
				p = s.smooth(bins, i, y1, y0)
			}
			errs.add(c.FillRect(x, y0, spectrumSpeed, y1-y0, p))
		default:
			y := h - float64(i)*binHeight - binHeight
			p := domain.Paint(solid(domain.Gray(bins[i])))
			if s.smoothing && i > 0 {
				p = s.smooth(bins, i, y, y+binHeight)
			}
			errs.add(c.FillRect(x, y, spectrumSpeed, binHeight, p))
		}
	}

	errs.add(c.DrawImage(s.buffer, -spectrumSpeed, 0))
	return errs.err
}

// smooth blends bin i at y0 into bin i-1 at y1.
func (s *Spectrum) smooth(bins []byte, i int, y0, y1 float64) domain.Paint {
	return domain.LinearGradient{X0: 0, Y0: y0, X1: 0, Y1: y1, Stops: []domain.ColorStop{
		{Offset: 0, Color: domain.Gray(bins[i])},
		{Offset: 1, Color: domain.Gray(bins[i-1])},
	}}
}

// Scale returns the frequency axis scale.
func (s *Spectrum) Scale() domain.Scale { return s.scale }

// SetScale switches the frequency axis without touching the audio graph.
func (s *Spectrum) SetScale(scale domain.Scale) error {
	if s.canvases == nil {
		return domain.ErrDisposed
	}
	if scale != domain.ScaleLinear && scale != domain.ScaleLogarithmic {
		return domain.NewConfigurationError("Spectrum.Scale", scale, domain.ErrInvalidOption)
	}
	s.scale = scale
	return nil
}

// ColorSmoothing reports whether neighbouring bins are blended.
func (s *Spectrum) ColorSmoothing() bool { return s.smoothing }

// SetColorSmoothing toggles blending of neighbouring bins.
func (s *Spectrum) SetColorSmoothing(on bool) error {
	if s.canvases == nil {
		return domain.ErrDisposed
	}
	s.smoothing = on
	return nil
}

// LogScale returns a copy of the logarithmic offset table.
func (s *Spectrum) LogScale() []float64 {
	return append([]float64(nil), s.logScale...)
}

// Close implements Strategy.
func (s *Spectrum) Close() {
	s.canvases = nil
	s.buffer = nil
	s.logScale = nil
}
