package visualizer

import (
	"math"
	"slices"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// waveformHeight is the share of the canvas height used by the loudest bar.
const waveformHeight = 0.9

// Waveform draws the whole track as bars and colors the played part. A click
// seeks to the clicked position.
type Waveform struct {
	e      *env
	opts   WaveformOptions
	loader *trackLoader
	canvas ports.Canvas

	track *domain.DecodedTrack
	bars  int

	// Bar heights in pixels. right is only filled for split channels.
	left, right []float64

	closed bool
}

func newWaveform(e *env) *Waveform {
	w := &Waveform{e: e, opts: e.Waveform}
	w.loader = newTrackLoader(e, w.trackReady)
	return w
}

// Layout implements Strategy.
func (w *Waveform) Layout(content domain.Size) []domain.Size {
	return []domain.Size{content}
}

// Resize implements Strategy.
func (w *Waveform) Resize(canvases []ports.Canvas) error {
	w.canvas = canvases[0]
	w.bars = int(float64(w.canvas.Width()) / w.opts.BarWidth)
	w.fillData()
	return nil
}

// Start implements starter.
func (w *Waveform) Start() {
	w.loader.load(w.e.player.Src())
}

// HandleMedia implements mediaHandler.
func (w *Waveform) HandleMedia(ev domain.MediaEvent) {
	if w.closed {
		return
	}
	switch ev.Type() {
	case domain.EventLoadedMetadata:
		w.track = nil
		w.left, w.right = nil, nil
		w.loader.load(w.e.player.Src())
		w.e.redraw()
	case domain.EventTimeUpdate:
		w.e.redraw()
	}
}

// HandlePointer implements pointerHandler.
func (w *Waveform) HandlePointer(ev domain.PointerEvent) {
	if w.closed || ev.Type() != domain.EventClick || w.loader.state != domain.TrackReady {
		return
	}
	width, d := float64(w.canvas.Width()), w.duration()
	if width <= 0 || d <= 0 {
		return
	}
	w.e.player.SetCurrentTime(clamp01(ev.X/width) * d)
	w.e.redraw()
}

func (w *Waveform) trackReady(track *domain.DecodedTrack) {
	w.track = track
	w.fillData()
	w.e.redraw()
}

func (w *Waveform) duration() float64 {
	if d := w.e.player.Duration(); d > 0 {
		return d
	}
	if w.track != nil {
		return w.track.Buffer.Seconds()
	}
	return 0
}

// fillData averages the track into one value per bar.
func (w *Waveform) fillData() {
	w.left, w.right = nil, nil
	if w.track == nil || w.bars <= 0 || w.canvas == nil {
		return
	}
	buf := &w.track.Buffer
	height := float64(w.canvas.Height()) * waveformHeight
	if w.opts.Split {
		w.left = scaleToHeight(averageBars(w.bars, buf.Channel(0)), height)
		w.right = scaleToHeight(averageBars(w.bars, buf.Channel(1)), height)
		return
	}
	w.left = scaleToHeight(averageBars(w.bars, buf.Channel(0), buf.Channel(1)), height)
}

// averageBars returns the mean absolute amplitude of bars equal slices of the
// given channels, mixed together. A trailing partial slice is dropped.
func averageBars(bars int, channels ...[]float32) []float64 {
	if len(channels) == 0 || bars <= 0 {
		return nil
	}
	n := len(channels[0])
	size := n / bars
	if size == 0 {
		return nil
	}
	out := make([]float64, 0, bars)
	for i := 0; i+size <= n && len(out) < bars; i += size {
		sum := 0.0
		for _, ch := range channels {
			for _, v := range ch[i : i+size] {
				sum += math.Abs(float64(v))
			}
		}
		out = append(out, sum/float64(size*len(channels)))
	}
	return out
}

// scaleToHeight maps values linearly so the smallest is 0 and the largest is
// height. Flat data maps to 0.
func scaleToHeight(values []float64, height float64) []float64 {
	if len(values) == 0 {
		return values
	}
	lo, hi := slices.Min(values), slices.Max(values)
	out := make([]float64, len(values))
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) * height / (hi - lo)
	}
	return out
}

// Draw implements Strategy.
func (w *Waveform) Draw(*Frame) error {
	width, h, err := canvasSize("waveform", w.canvas)
	if err != nil {
		return err
	}
	var errs drawErrs
	errs.add(fillBackground(w.canvas, w.e.Colors.Background))
	if len(w.left) == 0 {
		return errs.err
	}

	progress := 0.0
	if d := w.duration(); d > 0 {
		progress = w.e.player.CurrentTime() / d
	}
	x := width / float64(w.bars)
	margin := x * w.opts.BarMarginScale / 2
	barW := x - 2*margin

	for i, v := range w.left {
		up := v / 2
		down := up
		if w.opts.Split {
			down = w.right[i] / 2
		}
		x0 := x*float64(i) + margin
		paint := w.barPaint(i, x, margin, width, progress)

		switch w.opts.Align {
		case domain.AlignBottom:
			errs.add(fillBar(w.canvas, x0, h-up, barW, up, paint))
			errs.add(fillBar(w.canvas, x0, h-up-down+1, barW, down, paint))
		case domain.AlignTop:
			errs.add(fillBar(w.canvas, x0, 0, barW, up, paint))
			errs.add(fillBar(w.canvas, x0, up-1, barW, down, paint))
		default:
			errs.add(fillBar(w.canvas, x0, h/2-up, barW, up, paint))
			errs.add(fillBar(w.canvas, x0, h/2, barW, down, paint))
			if w.opts.NoSignalLine {
				errs.add(fillBar(w.canvas, x0, h/2-0.5, barW, 1, paint))
			}
		}
	}
	return errs.err
}

// barPaint colors bar i: played, unplayed, or partly played when the
// playhead is inside it.
func (w *Waveform) barPaint(i int, x, margin, width, progress float64) domain.Paint {
	start, end := x*float64(i), x*float64(i+1)
	if end/width > progress && start/width < progress {
		within := math.Abs(progress*width-start) / (end - start)
		if w.opts.Animation == AnimationFade {
			amount := math.Round(within * 255)
			return solid(domain.LightenDarken(w.e.Colors.Progress, 255-amount))
		}
		if within+0.01 >= 1 {
			return solid(w.e.Colors.Progress)
		}
		return domain.LinearGradient{
			X0: start + margin, X1: end - margin,
			Stops: []domain.ColorStop{
				{Offset: 0, Color: w.e.Colors.Progress},
				{Offset: within, Color: w.e.Colors.Progress},
				{Offset: within + 0.01, Color: w.e.Colors.Track},
				{Offset: 1, Color: w.e.Colors.Track},
			},
		}
	}
	if float64(i)/float64(len(w.left)) < progress {
		return solid(w.e.Colors.Progress)
	}
	return solid(w.e.Colors.Track)
}

// fillBar skips bars with no area.
func fillBar(c ports.Canvas, x, y, w, h float64, p domain.Paint) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	return c.FillRect(x, y, w, h, p)
}

// Envelope returns a copy of the bar heights in pixels. right is nil unless
// channels are split.
func (w *Waveform) Envelope() (left, right []float64) {
	return slices.Clone(w.left), slices.Clone(w.right)
}

// TrackState returns the progress of the whole-track decode.
func (w *Waveform) TrackState() domain.TrackState { return w.loader.state }

// Close implements Strategy.
func (w *Waveform) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.loader.close()
	w.canvas = nil
	w.track = nil
	w.left, w.right = nil, nil
}
