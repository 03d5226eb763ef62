package visualizer

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canvasmock "github.com/tejashwikalptaru/audiovis/internal/adapter/surface/mock"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

func TestBarsFullScaleFrame(t *testing.T) {
	f := newFixture(t, 400, 200)
	cfg := f.config(domain.KindBars)
	cfg.FFTSize = 1024
	c := f.build(t, cfg)
	defer func() { _ = c.Destroy() }()

	canvas := f.canvas(t, 0)
	canvas.Reset()
	bins := bytes.Repeat([]byte{255}, 512)
	require.NoError(t, c.Strategy().Draw(&Frame{Playing: true, Frequency: [][]byte{bins}}))

	rects := canvas.Filter(canvasmock.OpFillRect)
	require.Len(t, rects, 513, "background plus one bar per bin")
	width := 400.0 / 512
	for i, r := range rects[1:] {
		assert.InDelta(t, float64(i)*width, r.X, 1e-9)
		assert.InDelta(t, width, r.W, 1e-9)
		assert.InDelta(t, 0, r.Y, 1e-9)
		assert.InDelta(t, 200, r.H, 1e-9)
	}
}

func TestBarsSkipsSilentBins(t *testing.T) {
	f := newFixture(t, 100, 100)
	c := f.build(t, f.config(domain.KindBars))
	defer func() { _ = c.Destroy() }()

	canvas := f.canvas(t, 0)
	canvas.Reset()
	bins := make([]byte, 512)
	bins[3] = 51
	require.NoError(t, c.Strategy().Draw(&Frame{Frequency: [][]byte{bins}}))

	rects := canvas.Filter(canvasmock.OpFillRect)
	require.Len(t, rects, 2)
	assert.InDelta(t, 20, rects[1].H, 1e-9)
	assert.InDelta(t, 80, rects[1].Y, 1e-9)
}

func TestOscilloscopeTracesEveryChannel(t *testing.T) {
	f := newFixture(t, 400, 200)
	cfg := f.config(domain.KindOscilloscope)
	cfg.FFTSize = 256
	c := f.build(t, cfg)
	defer func() { _ = c.Destroy() }()

	flat := bytes.Repeat([]byte{128}, 256)
	require.NoError(t, c.Strategy().Draw(&Frame{TimeDomain: [][]byte{flat, flat}}))

	for i := range 2 {
		canvas := f.canvas(t, i)
		strokes := canvas.Filter(canvasmock.OpStrokePath)
		require.Len(t, strokes, 1)
		assert.Equal(t, domain.Solid{Color: domain.ColorPrimary}, strokes[0].Paint)
		assert.Equal(t, 1.0, strokes[0].LineWidth)
	}
}

func TestLogScaleTable(t *testing.T) {
	table := logScaleTable(1024, 200)
	require.Len(t, table, 1024)
	assert.Equal(t, 200.0, table[0])
	assert.Equal(t, 200.0, table[1])
	for i := 1; i < len(table); i++ {
		assert.LessOrEqual(t, table[i], table[i-1], "entry %d", i)
	}
	assert.Greater(t, table[1023], 0.0)
	assert.Empty(t, logScaleTable(0, 200))
}

func TestSpectrumScale(t *testing.T) {
	f := newFixture(t, 400, 200)
	cfg := f.config(domain.KindSpectrum)
	cfg.FFTSize = 2048
	cfg.Spectrum.Scale = domain.ScaleLogarithmic
	c := f.build(t, cfg)

	s, ok := c.Spectrum()
	require.True(t, ok)
	table := s.LogScale()
	require.Len(t, table, 1024)
	assert.Equal(t, float64(c.Canvases()[0].Height()), table[0])

	// two visible canvases and the back buffer
	assert.Equal(t, 3, f.host.CanvasesCreated())

	canvas := f.canvas(t, 0)
	canvas.Reset()
	bins := bytes.Repeat([]byte{200}, 1024)
	require.NoError(t, s.Draw(&Frame{Frequency: [][]byte{bins, bins}}))
	images := canvas.Filter(canvasmock.OpDrawImage)
	require.NotEmpty(t, images)
	assert.Equal(t, -1.0, images[len(images)-1].X, "spectrogram scrolls left")

	require.NoError(t, s.SetScale(domain.ScaleLinear))
	assert.Equal(t, domain.ScaleLinear, s.Scale())
	require.NoError(t, s.SetColorSmoothing(true))
	assert.True(t, s.ColorSmoothing())

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, s.SetScale("cubic"), &cfgErr)
	assert.ErrorIs(t, cfgErr, domain.ErrInvalidOption)

	require.NoError(t, c.Destroy())
	assert.ErrorIs(t, s.SetScale(domain.ScaleLinear), domain.ErrDisposed)
	assert.ErrorIs(t, s.SetColorSmoothing(false), domain.ErrDisposed)
}

func TestCircleRegeneratesOnResize(t *testing.T) {
	f := newFixture(t, 400, 400)
	cfg := f.config(domain.KindCircle)
	cfg.Circle.Seed = 7
	c := f.build(t, cfg)
	defer func() { _ = c.Destroy() }()

	circle, ok := c.Strategy().(*Circle)
	require.True(t, ok)
	assert.Equal(t, 1500, circle.Stars())
	assert.Equal(t, 512, circle.Points())

	f.container.Resize(600, 300)
	assert.Equal(t, 1500, circle.Stars())
	assert.Equal(t, 512, circle.Points())

	loud := bytes.Repeat([]byte{200}, 512)
	wave := bytes.Repeat([]byte{128}, 1024)
	assert.NoError(t, circle.Draw(&Frame{Playing: true, Frequency: [][]byte{loud}, TimeDomain: [][]byte{wave}}))
	assert.NoError(t, circle.Draw(&Frame{Frequency: [][]byte{make([]byte, 512)}, TimeDomain: [][]byte{wave}}))
}

func TestCircleDrawsCentreImage(t *testing.T) {
	f := newFixture(t, 400, 300)
	logo := canvasmock.New(64, 32)
	cfg := f.config(domain.KindCircle)
	cfg.Circle.Seed = 3
	cfg.Circle.Image = logo
	c := f.build(t, cfg)
	defer func() { _ = c.Destroy() }()

	canvas := f.canvas(t, 0)
	canvas.Reset()
	require.NoError(t, c.Strategy().Draw(&Frame{Frequency: [][]byte{make([]byte, 512)}, TimeDomain: [][]byte{make([]byte, 1024)}}))

	images := canvas.Filter(canvasmock.OpDrawImage)
	require.Len(t, images, 1)
	assert.Same(t, logo, images[0].Source)
	assert.Equal(t, 168.0, images[0].X)
	assert.Equal(t, 134.0, images[0].Y)
	ops := canvas.Ops()
	assert.Equal(t, canvasmock.OpDrawImage, ops[len(ops)-1].Name, "image on top")
}

func constant(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPeakMeterLevels(t *testing.T) {
	f := newFixture(t, 400, 200)
	cfg := f.config(domain.KindPeakMeter)
	cfg.FFTSize = 256
	c := f.build(t, cfg)
	defer func() { _ = c.Destroy() }()

	p, ok := c.PeakMeter()
	require.True(t, ok)
	require.Len(t, c.Canvases(), 3)
	require.Equal(t, 400, c.Canvases()[0].Width())
	length := 400 - meterLabelWidth

	amp, peak := p.Levels()
	assert.Equal(t, [2]int{length, length}, amp, "starts silent")
	assert.Equal(t, [2]int{length, length}, peak)

	// left at -6 dB, right silent
	silent := make([]float32, 256)
	require.NoError(t, p.Draw(&Frame{Playing: true, Float: [][]float32{constant(0.5, 256), silent}}))
	amp, peak = p.Levels()
	assert.Equal(t, 37, amp[0])
	assert.Equal(t, 37, peak[0])
	assert.Equal(t, length, amp[1])
	assert.Equal(t, [2]string{"-6", Silence}, p.Legend().Peaks)

	// quieter left holds its peak
	require.NoError(t, p.Draw(&Frame{Time: 500 * time.Millisecond, Playing: true, Float: [][]float32{constant(0.1, 256), silent}}))
	amp, peak = p.Levels()
	assert.Equal(t, 123, amp[0])
	assert.Equal(t, 37, peak[0])

	// until the hold expires
	require.NoError(t, p.Draw(&Frame{Time: 1600 * time.Millisecond, Playing: true, Float: [][]float32{constant(0.1, 256), silent}}))
	_, peak = p.Levels()
	assert.Equal(t, 123, peak[0])
	assert.Equal(t, "-20", p.Legend().Peaks[0])

	// right channel peaks on its own level
	require.NoError(t, p.Draw(&Frame{Time: 1700 * time.Millisecond, Playing: true, Float: [][]float32{silent, constant(1, 256)}}))
	amp, peak = p.Levels()
	assert.Equal(t, 0, amp[1])
	assert.Equal(t, 0, peak[1])
	assert.Equal(t, "0", p.Legend().Peaks[1])

	require.NoError(t, p.Draw(&Frame{Playing: false}))
	amp, _ = p.Levels()
	assert.Equal(t, [2]int{length, length}, amp)
	assert.Equal(t, [2]string{Silence, Silence}, p.Legend().Peaks)
}

func TestPeakMeterLegend(t *testing.T) {
	f := newFixture(t, 400, 200)
	c := f.build(t, f.config(domain.KindPeakMeter))
	defer func() { _ = c.Destroy() }()
	p, _ := c.PeakMeter()

	legend := p.Legend()
	require.Len(t, legend.Ticks, 4)
	var labels []string
	for _, tick := range legend.Ticks {
		labels = append(labels, tick.Label)
	}
	assert.Equal(t, []string{"0", "-15", "-30", "-45"}, labels)
	assert.InDelta(t, 370.0/4, legend.Ticks[1].Offset, 1e-9)
}

func TestPeakMeterDrawsLegend(t *testing.T) {
	f := newFixture(t, 400, 200)
	c := f.build(t, f.config(domain.KindPeakMeter))
	defer func() { _ = c.Destroy() }()
	p, _ := c.PeakMeter()

	left, right, scale := f.canvas(t, 0), f.canvas(t, 1), f.canvas(t, 2)
	assert.Equal(t, []string{"0", "-15", "-30", "-45"}, scale.Texts())
	assert.Equal(t, []string{Silence}, left.Texts())

	require.NoError(t, f.player.Play())
	for _, canvas := range []*canvasmock.Canvas{left, right, scale} {
		canvas.Reset()
	}
	require.NoError(t, p.Draw(&Frame{Playing: true, Float: [][]float32{constant(0.5, 1024), constant(0.1, 1024)}}))
	assert.Equal(t, []string{"-6"}, left.Texts())
	assert.Equal(t, []string{"-20"}, right.Texts())
	assert.Len(t, scale.Texts(), 4)

	texts := left.Filter(canvasmock.OpFillText)
	require.Len(t, texts, 1)
	assert.InDelta(t, 370+meterLabelWidth/2, texts[0].X, 1e-9, "label sits right of the meter")
	assert.Equal(t, domain.Solid{Color: domain.ColorText}, texts[0].Paint)

	left.Reset()
	f.player.Pause()
	assert.Equal(t, []string{Silence}, left.Texts())
}

func TestVerticalPeakMeterLegend(t *testing.T) {
	f := newFixture(t, 200, 400)
	cfg := f.config(domain.KindPeakMeter)
	cfg.PeakMeter.Orientation = domain.Vertical
	c := f.build(t, cfg)
	defer func() { _ = c.Destroy() }()

	var sizes []domain.Size
	for _, canvas := range c.Canvases() {
		sizes = append(sizes, domain.Size{Width: canvas.Width(), Height: canvas.Height()})
	}
	assert.Equal(t, []domain.Size{{Width: 89, Height: 400}, {Width: 89, Height: 400}, {Width: 18, Height: 382}}, sizes)

	scale := f.canvas(t, 2)
	ticks := scale.Filter(canvasmock.OpFillText)
	require.Len(t, ticks, 4)
	assert.Equal(t, "-15", ticks[1].Text)
	assert.InDelta(t, 382.0/4+legendBaseline, ticks[1].Y, 1e-9)
	assert.Equal(t, ports.AlignRight, ticks[1].Align)

	peak := f.canvas(t, 0).Filter(canvasmock.OpFillText)
	require.Len(t, peak, 1)
	assert.Equal(t, Silence, peak[0].Text)
	assert.Greater(t, peak[0].Y, 382.0, "label sits below the meter")
}

func TestPeakMeterResetsOnPause(t *testing.T) {
	f := newFixture(t, 400, 200)
	c := f.build(t, f.config(domain.KindPeakMeter))
	defer func() { _ = c.Destroy() }()
	p, _ := c.PeakMeter()

	require.NoError(t, p.Draw(&Frame{Playing: true, Float: [][]float32{constant(1, 1024), constant(1, 1024)}}))
	require.Equal(t, "0", p.Legend().Peaks[0])

	require.NoError(t, f.player.Play())
	f.player.Pause()
	assert.Equal(t, [2]string{Silence, Silence}, p.Legend().Peaks)
}

func TestDecibels(t *testing.T) {
	assert.True(t, math.IsInf(Decibels(nil), -1))
	assert.True(t, math.IsInf(Decibels(make([]float32, 8)), -1))
	assert.InDelta(t, 0, Decibels(constant(1, 8)), 1e-9)
	assert.InDelta(t, -6.0206, Decibels(constant(0.5, 8)), 1e-4)

	assert.Equal(t, "-6", FormatDecibels(-6.0206))
	assert.Equal(t, "-12.5", FormatDecibels(-12.46))
	assert.Equal(t, "0", FormatDecibels(-0.04))
}
