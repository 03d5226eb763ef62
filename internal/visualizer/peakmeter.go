package visualizer

import (
	"math"
	"strconv"
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Peak meter chrome around the two meters, in pixels. Peak labels share
// the meter canvases; tick labels get their own scale canvas.
const (
	meterLabelWidth  = 30 // horizontal: peak label right of each meter
	meterScaleHeight = 14 // horizontal: tick labels above
	meterScaleWidth  = 18 // vertical: tick labels on the left
	meterLabelHeight = 18 // vertical: peak label below each meter
	meterBorder      = 2
	legendBaseline   = 11
)

// Silence is the peak label shown when nothing is measured.
const Silence = "-∞"

var ledStops = []domain.ColorStop{
	{Offset: 0, Color: domain.MustHex("#56D45B")},
	{Offset: 0.7, Color: domain.MustHex("#AFF2B3")},
	{Offset: 0.833, Color: domain.MustHex("#FFAD67")},
	{Offset: 0.9, Color: domain.MustHex("#FF6B67")},
	{Offset: 1, Color: domain.MustHex("#FFBAB8")},
}

// PeakMeter shows the RMS level of each channel in dB as an LED bar, with a
// peak marker held for a while after each new maximum.
type PeakMeter struct {
	e        *env
	opts     PeakMeterOptions
	canvases []ports.Canvas

	// Per channel. Amplitudes and peaks are pixel distances from the loud
	// end of the meter, so smaller is louder.
	amplitude [2]int
	peak      [2]int
	peakSet   [2]time.Duration
	labels    [2]string
}

// Tick is one graduation of the peak meter scale.
type Tick struct {
	Label  string
	Offset float64 // pixels from the loud end of the meter
	Size   float64
}

// Legend is the text shown around a peak meter.
type Legend struct {
	Ticks []Tick
	Peaks [2]string // left, right
}

func newPeakMeter(e *env) *PeakMeter {
	return &PeakMeter{e: e, opts: e.PeakMeter, labels: [2]string{Silence, Silence}}
}

// Layout implements Strategy. The left and right meters come first, then
// the scale.
func (p *PeakMeter) Layout(content domain.Size) []domain.Size {
	var meter, scale domain.Size
	if p.opts.Orientation == domain.Vertical {
		meter = domain.Size{
			Width:  max((content.Width-meterScaleWidth)/2-meterBorder, 0),
			Height: content.Height,
		}
		scale = domain.Size{Width: meterScaleWidth, Height: max(content.Height-meterLabelHeight, 0)}
	} else {
		meter = domain.Size{
			Width:  content.Width,
			Height: max((content.Height-meterScaleHeight)/2-meterBorder, 0),
		}
		scale = domain.Size{Width: max(content.Width-meterLabelWidth, 0), Height: meterScaleHeight}
	}
	return []domain.Size{meter, meter, scale}
}

// Resize implements Strategy.
func (p *PeakMeter) Resize(canvases []ports.Canvas) error {
	p.canvases = canvases
	p.reset()
	return nil
}

// length returns the meter length in pixels along its orientation, without
// the peak label.
func (p *PeakMeter) length() int {
	if len(p.canvases) == 0 {
		return 0
	}
	if p.opts.Orientation == domain.Vertical {
		return max(p.canvases[0].Height()-meterLabelHeight, 0)
	}
	return max(p.canvases[0].Width()-meterLabelWidth, 0)
}

func (p *PeakMeter) reset() {
	n := p.length()
	p.amplitude = [2]int{n, n}
	p.peak = [2]int{n, n}
	p.labels = [2]string{Silence, Silence}
}

// Decibels returns the mean power of samples in dB. Silence is -Inf.
func Decibels(samples []float32) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return 10 * math.Log10(sum/float64(len(samples)))
}

// amplitudeOf maps a level in dB to a pixel distance from the loud end.
func (p *PeakMeter) amplitudeOf(db float64, length int) int {
	if math.IsNaN(db) || math.IsInf(db, -1) {
		return length
	}
	a := math.Floor(db * float64(length) / -p.opts.DBScaleMin)
	return int(math.Max(0, math.Min(float64(length), a)))
}

// Draw implements Strategy.
func (p *PeakMeter) Draw(f *Frame) error {
	if !f.Playing {
		p.reset()
	} else {
		length := p.length()
		for ch := range 2 {
			db := Decibels(f.Float[ch])
			p.amplitude[ch] = p.amplitudeOf(db, length)
			if p.peak[ch] > p.amplitude[ch] || f.Time-p.peakSet[ch] > p.opts.PeakHold || f.Time < p.peakSet[ch] {
				p.peak[ch] = p.amplitude[ch]
				p.peakSet[ch] = f.Time
				if !math.IsInf(db, -1) && !math.IsNaN(db) {
					p.labels[ch] = FormatDecibels(db)
				}
			}
		}
	}

	var errs drawErrs
	for ch := 0; ch < 2 && ch < len(p.canvases); ch++ {
		errs.add(p.drawMeter(p.canvases[ch], p.amplitude[ch], p.peak[ch], p.labels[ch]))
	}
	if len(p.canvases) > 2 {
		errs.add(p.drawScale(p.canvases[2]))
	}
	return errs.err
}

func (p *PeakMeter) drawMeter(c ports.Canvas, amplitude, peak int, label string) error {
	w, h, err := canvasSize("peak meter", c)
	if err != nil {
		return err
	}
	if err := fillBackground(c, p.e.Colors.Background); err != nil {
		return err
	}

	var errs drawErrs
	n := float64(p.length())
	a, pk := float64(amplitude), float64(peak)
	red := solid(domain.ColorAntiPrimary)
	text := solid(p.e.Colors.Text)
	if p.opts.Orientation == domain.Vertical {
		if a < n {
			led := domain.LinearGradient{X0: 0, Y0: n, X1: 0, Y1: 0, Stops: ledStops}
			errs.add(c.FillRect(0, a, w, n-a, led))
		}
		errs.add(c.FillRect(0, pk, w, 1, red))
		errs.add(c.FillText(label, w/2, n+legendBaseline+meterBorder, text, ports.AlignCenter))
	} else {
		if a < n {
			led := domain.LinearGradient{X0: 0, Y0: 0, X1: n, Y1: 0, Stops: ledStops}
			errs.add(c.FillRect(0, 0, n-a, h, led))
		}
		errs.add(c.FillRect(n-pk, 0, 1, h, red))
		errs.add(c.FillText(label, n+meterLabelWidth/2, h/2+4, text, ports.AlignCenter))
	}
	return errs.err
}

// drawScale writes the tick labels of Legend, loud end first.
func (p *PeakMeter) drawScale(c ports.Canvas) error {
	w, _, err := canvasSize("peak meter scale", c)
	if err != nil {
		return err
	}
	if err := fillBackground(c, p.e.Colors.Background); err != nil {
		return err
	}

	var errs drawErrs
	text := solid(p.e.Colors.Text)
	for _, tick := range p.Legend().Ticks {
		if p.opts.Orientation == domain.Vertical {
			errs.add(c.FillText(tick.Label, w-meterBorder, tick.Offset+legendBaseline, text, ports.AlignRight))
		} else {
			errs.add(c.FillText(tick.Label, tick.Offset+meterBorder, legendBaseline, text, ports.AlignLeft))
		}
	}
	return errs.err
}

// FormatDecibels rounds db to one decimal the way the peak labels show it.
func FormatDecibels(db float64) string {
	r := math.Round(db*10) / 10
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Legend returns the scale ticks and the current peak labels.
func (p *PeakMeter) Legend() Legend {
	count := int(math.Floor(p.opts.DBScaleMin / p.opts.DBScaleTicks))
	legend := Legend{Peaks: p.labels}
	if count == 0 {
		return legend
	}
	size := float64(p.length()) / float64(count)
	for i := range count {
		legend.Ticks = append(legend.Ticks, Tick{
			Label:  strconv.FormatFloat(float64(-i)*p.opts.DBScaleTicks, 'f', -1, 64),
			Offset: float64(i) * size,
			Size:   size,
		})
	}
	return legend
}

// Levels returns the left and right amplitudes and peaks in pixels from the
// loud end of the meter.
func (p *PeakMeter) Levels() (amplitude, peak [2]int) {
	return p.amplitude, p.peak
}

// HandleMedia resets the labels when playback pauses.
func (p *PeakMeter) HandleMedia(e domain.MediaEvent) {
	if e.Type() == domain.EventPause {
		p.reset()
		p.e.redraw()
	}
}

// Close implements Strategy.
func (p *PeakMeter) Close() {
	p.canvases = nil
}
