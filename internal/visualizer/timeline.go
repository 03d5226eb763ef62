package visualizer

import (
	"image/color"
	"math"
	"slices"
	"strconv"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Timeline geometry, in pixels.
const (
	hotCueSize      = 18
	hotCueTop       = 2
	beatMarkRadius  = 6
	loopMarkRadius  = 9
	loopMarkDepth   = 14
	loopBandMargin  = 30
	playheadWidth   = 3
	beatLabelOffset = 8
)

// Timeline scrolls the whole-track envelope under a fixed playhead, with the
// beat grid, hot cues and a loop drawn over it. Dragging scrubs the track.
type Timeline struct {
	e      *env
	opts   TimelineOptions
	loader *trackLoader
	canvas ports.Canvas

	track    *domain.DecodedTrack
	envelope []float64 // max amplitude per track pixel column

	beat         domain.BeatInfo
	beatFromTags bool
	beats        []domain.Beat
	hotCues      []domain.HotCue

	loopEntry *domain.Beat
	loopEnd   *domain.Beat
	lastTime  float64

	// Scrubbing
	dragging   bool
	dragStartX float64
	dragFrom   float64
	dragTime   float64
	wasPlaying bool

	closed bool
}

func newTimeline(e *env) *Timeline {
	t := &Timeline{
		e:            e,
		opts:         e.Timeline,
		beat:         e.Timeline.Beat,
		beatFromTags: e.Timeline.Beat == (domain.BeatInfo{}),
		hotCues:      e.Timeline.HotCues,
	}
	t.loader = newTrackLoader(e, t.trackReady)
	return t
}

// Layout implements Strategy.
func (t *Timeline) Layout(content domain.Size) []domain.Size {
	return []domain.Size{content}
}

// Resize implements Strategy.
func (t *Timeline) Resize(canvases []ports.Canvas) error {
	t.canvas = canvases[0]
	t.fillEnvelope()
	return nil
}

// Start implements starter.
func (t *Timeline) Start() {
	t.loader.load(t.e.player.Src())
}

// HandleMedia implements mediaHandler.
func (t *Timeline) HandleMedia(ev domain.MediaEvent) {
	if t.closed {
		return
	}
	switch ev.Type() {
	case domain.EventLoadedMetadata:
		t.reset()
		t.loader.load(t.e.player.Src())
		t.e.redraw()
	case domain.EventTimeUpdate:
		t.e.redraw()
	}
}

// reset forgets everything tied to the previous track.
func (t *Timeline) reset() {
	if t.track != nil {
		t.hotCues = nil
	}
	t.track = nil
	t.envelope = nil
	t.beats = nil
	t.loopEntry, t.loopEnd = nil, nil
	t.dragging = false
	if t.beatFromTags {
		t.beat = domain.BeatInfo{}
	}
}

func (t *Timeline) trackReady(track *domain.DecodedTrack) {
	t.track = track
	if t.beatFromTags && track.Tags.BPM > 0 {
		t.beat = domain.BeatInfo{BPM: track.Tags.BPM, TimeSignature: DefaultTimeSignature}
	}
	t.fillEnvelope()
	t.fillBeats()
	t.e.redraw()
}

// pxPerSecond is the horizontal scale of the canvas.
func (t *Timeline) pxPerSecond() float64 {
	if t.canvas == nil {
		return 0
	}
	return float64(t.canvas.Width()) / t.opts.Speed
}

// fillEnvelope computes the amplitude of every track pixel column: the
// loudest mean of both channels within the column's samples.
func (t *Timeline) fillEnvelope() {
	t.envelope = nil
	pps := t.pxPerSecond()
	if t.track == nil || pps <= 0 {
		return
	}
	buf := &t.track.Buffer
	left, right := buf.Channel(0), buf.Channel(1)
	step := max(int(float64(buf.SampleRate)/pps), 1)

	env := make([]float64, 0, len(left)/step+1)
	for i := 0; i < len(left); i += step {
		peak := 0.0
		for j := i; j < min(i+step, len(left)); j++ {
			v := (math.Abs(float64(left[j])) + math.Abs(float64(right[j]))) / 2
			peak = math.Max(peak, v)
		}
		env = append(env, peak)
	}
	t.envelope = env
}

// beatGrid lays beats from the offset to the end of the track.
func beatGrid(info domain.BeatInfo, seconds float64) []domain.Beat {
	if !info.Valid() || seconds <= 0 {
		return nil
	}
	step := info.BeatDuration()
	var beats []domain.Beat
	for i := 0; ; i++ {
		at := info.Offset + float64(i)*step
		if at >= seconds {
			break
		}
		beats = append(beats, domain.Beat{Index: i, Time: at, Primary: i%info.TimeSignature == 0})
	}
	return beats
}

// fillBeats rebuilds the grid of the loaded track and pins hot cues to it.
// Cues past the end of the new grid are dropped and the loop is cleared.
func (t *Timeline) fillBeats() {
	if t.track == nil {
		return
	}
	t.beats = beatGrid(t.beat, t.track.Buffer.Seconds())

	cues := t.hotCues[:0]
	for _, cue := range t.hotCues {
		if cue.BeatIndex < 0 || cue.BeatIndex >= len(t.beats) {
			t.e.logger.Debug("dropping hot cue outside the beat grid", "beat", cue.BeatIndex)
			continue
		}
		cue.Time = t.beats[cue.BeatIndex].Time
		if cue.Number == 0 {
			cue.Number = len(cues) + 1
		}
		if cue.Label == "" {
			cue.Label = strconv.Itoa(cue.Number)
		}
		cue.Color = domain.Or(cue.Color, domain.ColorPrimary)
		cues = append(cues, cue)
	}
	t.hotCues = cues
	t.loopEntry, t.loopEnd = nil, nil
}

// now is the position drawn under the playhead.
func (t *Timeline) now() float64 {
	if t.dragging {
		return t.dragTime
	}
	return t.e.player.CurrentTime()
}

// Draw implements Strategy.
func (t *Timeline) Draw(f *Frame) error {
	w, h, err := canvasSize("timeline", t.canvas)
	if err != nil {
		return err
	}
	now := t.now()
	if f.Playing && !t.dragging {
		now = t.wrapLoop(now)
	}
	t.lastTime = now

	var errs drawErrs
	errs.add(fillBackground(t.canvas, t.e.Colors.Background))

	// track pixel shown at column 0
	origin := now*t.pxPerSecond() - w/2
	errs.add(t.drawEnvelope(origin, w, h))
	errs.add(t.drawBeats(origin, w, h))
	errs.add(t.drawLoop(origin, h))
	errs.add(t.drawHotCues(origin, h))
	errs.add(t.drawPlayhead(now, w, h))
	return errs.err
}

// wrapLoop sends playback back to the loop entry when it crosses the loop
// end.
func (t *Timeline) wrapLoop(now float64) float64 {
	if t.loopEntry == nil || t.loopEnd == nil {
		return now
	}
	entry, end := t.loopEntry.Time, t.loopEnd.Time
	if now < end || t.lastTime >= end || t.lastTime < entry {
		return now
	}
	now = entry + math.Mod(now-end, end-entry)
	t.e.player.SetCurrentTime(now)
	return now
}

func (t *Timeline) drawEnvelope(origin, w, h float64) error {
	var errs drawErrs
	first := int(math.Floor(origin))
	for j := 0; j < int(w); j++ {
		p := first + j
		if p < 0 || p >= len(t.envelope) {
			continue
		}
		v := t.envelope[p]
		bar := math.Floor(v * h * t.opts.Scale)
		if bar <= 0 {
			continue
		}
		paint := solid(domain.LightenDarken(t.e.Colors.Track, v*190))
		x := float64(j)
		switch t.opts.Align {
		case domain.AlignTop:
			errs.add(t.canvas.FillRect(x, 1, 1, bar, paint))
		case domain.AlignBottom:
			errs.add(t.canvas.FillRect(x, h-1, 1, -bar, paint))
		default:
			errs.add(t.canvas.FillRect(x, (h-bar)/2, 1, bar, paint))
		}
	}
	if t.opts.Align == domain.AlignCenter && len(t.envelope) > 0 {
		errs.add(t.canvas.FillRect(0, math.Floor(h/2), w, 1, solid(t.e.Colors.Track)))
	}
	return errs.err
}

func (t *Timeline) drawBeats(origin, w, h float64) error {
	var errs drawErrs
	pps := t.pxPerSecond()
	for _, b := range t.beats {
		x := math.Round(b.Time*pps - origin)
		if x < -beatMarkRadius || x > w+beatMarkRadius {
			continue
		}
		bar, mark := domain.ColorGrey, t.e.Colors.SubBeat
		if b.Primary {
			bar, mark = domain.ColorWhite, t.e.Colors.MainBeat
		}
		errs.add(t.canvas.FillRect(x, 9, 1, h-18, solid(bar)))
		errs.add(t.canvas.FillPath(marker(x, 1, beatMarkRadius, 10), solid(mark)))
		errs.add(t.canvas.FillPath(marker(x, h-1, beatMarkRadius, h-10), solid(mark)))
	}
	return errs.err
}

func (t *Timeline) drawLoop(origin, h float64) error {
	var errs drawErrs
	pps := t.pxPerSecond()
	for _, b := range []*domain.Beat{t.loopEntry, t.loopEnd} {
		if b == nil {
			continue
		}
		x := b.Time*pps - origin + 1
		errs.add(t.canvas.FillPath(marker(x, 1, loopMarkRadius, loopMarkDepth), solid(t.e.Colors.Loop)))
		errs.add(t.canvas.FillPath(marker(x, h-1, loopMarkRadius, h-loopMarkDepth), solid(t.e.Colors.Loop)))
	}
	if t.loopEntry != nil && t.loopEnd != nil && h > 2*loopBandMargin {
		x0 := t.loopEntry.Time*pps - origin
		x1 := t.loopEnd.Time*pps - origin
		errs.add(t.canvas.FillRect(x0, loopBandMargin, x1-x0, h-2*loopBandMargin, solid(t.e.Colors.LoopAlpha)))
	}
	return errs.err
}

// hotCueY is the top of the hot cue squares.
func (t *Timeline) hotCueY(h float64) float64 {
	if t.opts.Align == domain.AlignTop {
		return h - hotCueSize - hotCueTop
	}
	return hotCueTop
}

func (t *Timeline) drawHotCues(origin, h float64) error {
	var errs drawErrs
	pps := t.pxPerSecond()
	y := t.hotCueY(h)
	for _, cue := range t.hotCues {
		x := cue.Time*pps - origin
		errs.add(t.canvas.FillRect(x-hotCueSize/2-1, y-1, hotCueSize+2, hotCueSize+2, solid(t.e.Colors.Background)))
		errs.add(t.canvas.FillRect(x-hotCueSize/2, y, hotCueSize, hotCueSize, solid(cue.Color)))
		errs.add(t.canvas.FillText(cue.Label, x, y+13, solid(t.e.Colors.Background), ports.AlignCenter))
	}
	return errs.err
}

func (t *Timeline) drawPlayhead(now, w, h float64) error {
	var errs drawErrs
	x := math.Floor(w / 2)
	errs.add(t.canvas.FillRect(x, 1, playheadWidth, h-2, solid(domain.ColorAntiPrimary)))
	errs.add(t.canvas.StrokePath(domain.NewPath().Rect(x, 1, playheadWidth, h-2), solid(domain.ColorBlack), 1))

	if b, ok := t.nextBeat(now); ok {
		y := 14.0
		if t.opts.Align == domain.AlignTop {
			y = h - 4
		}
		label := b.Label(t.beat.TimeSignature)
		errs.add(t.canvas.FillText(label, x+beatLabelOffset, y, solid(domain.ColorPrimary), ports.AlignLeft))
	}
	return errs.err
}

// nextBeat returns the first beat at or after now.
func (t *Timeline) nextBeat(now float64) (domain.Beat, bool) {
	i, _ := slices.BinarySearchFunc(t.beats, now, func(b domain.Beat, at float64) int {
		switch {
		case b.Time < at:
			return -1
		case b.Time > at:
			return 1
		}
		return 0
	})
	if i >= len(t.beats) {
		return domain.Beat{}, false
	}
	return t.beats[i], true
}

// closestBeat returns the beat nearest to the playhead, preferring the later
// one on ties. Past the last beat it returns the last beat.
func (t *Timeline) closestBeat() domain.Beat {
	now := t.now()
	for i, b := range t.beats {
		if b.Time <= now {
			continue
		}
		if i > 0 && b.Time-now > now-t.beats[i-1].Time {
			return t.beats[i-1]
		}
		return b
	}
	return t.beats[len(t.beats)-1]
}

// HandlePointer implements pointerHandler.
func (t *Timeline) HandlePointer(ev domain.PointerEvent) {
	if t.closed || t.loader.state != domain.TrackReady || t.canvas == nil {
		return
	}
	switch ev.Type() {
	case domain.EventClick:
		t.jumpToHotCue(ev.X, ev.Y)
	case domain.EventMouseDown:
		t.dragging = true
		t.dragStartX = ev.X
		t.dragFrom = t.e.player.CurrentTime()
		t.dragTime = t.dragFrom
		t.wasPlaying = !t.e.player.Paused()
		if t.wasPlaying {
			t.e.player.Pause()
		}
	case domain.EventMouseMove:
		if !t.dragging {
			return
		}
		t.dragTime = t.dragFrom + (t.dragStartX-ev.X)*t.opts.Speed/float64(t.canvas.Width())*2
		t.dragTime = math.Max(0, math.Min(t.dragTime, t.duration()))
		t.e.redraw()
	case domain.EventMouseUp, domain.EventMouseOut:
		if !t.dragging {
			return
		}
		t.dragging = false
		t.e.player.SetCurrentTime(t.dragTime)
		t.lastTime = t.dragTime
		if t.wasPlaying {
			if err := t.e.player.Play(); err != nil {
				t.e.logger.Warn("resume after scrub failed", "error", err)
			}
		}
		t.e.redraw()
	}
}

func (t *Timeline) duration() float64 {
	if d := t.e.player.Duration(); d > 0 {
		return d
	}
	return t.track.Buffer.Seconds()
}

// jumpToHotCue seeks to the hot cue under (x, y), if any.
func (t *Timeline) jumpToHotCue(x, y float64) {
	top := t.hotCueY(float64(t.canvas.Height()))
	if y <= top || y >= top+hotCueSize {
		return
	}
	origin := t.now()*t.pxPerSecond() - float64(t.canvas.Width())/2
	for _, cue := range t.hotCues {
		cx := cue.Time*t.pxPerSecond() - origin
		if x >= cx-hotCueSize/2 && x <= cx+hotCueSize/2 {
			t.e.player.SetCurrentTime(cue.Time)
			t.lastTime = cue.Time
			t.e.redraw()
			return
		}
	}
}

// ready checks that beat operations can run.
func (t *Timeline) ready() error {
	switch {
	case t.closed:
		return domain.ErrDisposed
	case t.loader.state != domain.TrackReady:
		return domain.ErrTrackNotReady
	case len(t.beats) == 0:
		return domain.ErrNoBeatGrid
	}
	return nil
}

// SetHotCuePoint marks the beat closest to the playhead. When a hot cue
// already sits on that beat it is returned with ErrHotCueExists. An empty
// label defaults to the cue number and a zero color to the primary color.
func (t *Timeline) SetHotCuePoint(label string, c color.RGBA) (domain.HotCue, error) {
	if err := t.ready(); err != nil {
		return domain.HotCue{}, err
	}
	b := t.closestBeat()
	for _, cue := range t.hotCues {
		if cue.BeatIndex == b.Index {
			return cue, domain.ErrHotCueExists
		}
	}
	cue := domain.HotCue{
		BeatIndex: b.Index,
		Number:    len(t.hotCues) + 1,
		Label:     label,
		Color:     domain.Or(c, domain.ColorPrimary),
		Time:      b.Time,
	}
	if cue.Label == "" {
		cue.Label = strconv.Itoa(cue.Number)
	}
	t.hotCues = append(t.hotCues, cue)
	t.e.redraw()
	return cue, nil
}

// UpdateHotCuePoint changes the label and color of the hot cue on the same
// beat as cue. Empty values are left unchanged.
func (t *Timeline) UpdateHotCuePoint(cue domain.HotCue, label string, c color.RGBA) error {
	if t.closed {
		return domain.ErrDisposed
	}
	i := t.hotCueIndex(cue.BeatIndex)
	if i < 0 {
		return domain.ErrHotCueNotFound
	}
	if label != "" {
		t.hotCues[i].Label = label
	}
	if !domain.IsZero(c) {
		t.hotCues[i].Color = c
	}
	t.e.redraw()
	return nil
}

// RemoveHotCuePoint removes the hot cue on the same beat as cue. Removing a
// missing cue does nothing.
func (t *Timeline) RemoveHotCuePoint(cue domain.HotCue) error {
	if t.closed {
		return domain.ErrDisposed
	}
	if i := t.hotCueIndex(cue.BeatIndex); i >= 0 {
		t.hotCues = slices.Delete(t.hotCues, i, i+1)
		t.e.redraw()
	}
	return nil
}

func (t *Timeline) hotCueIndex(beat int) int {
	return slices.IndexFunc(t.hotCues, func(c domain.HotCue) bool { return c.BeatIndex == beat })
}

// HotCues returns a copy of the hot cues in insertion order.
func (t *Timeline) HotCues() []domain.HotCue {
	return slices.Clone(t.hotCues)
}

// UpdateBeatInfo replaces the beat grid. Hot cues keep their beat index and
// the loop is cleared.
func (t *Timeline) UpdateBeatInfo(info domain.BeatInfo) error {
	if t.closed {
		return domain.ErrDisposed
	}
	if !info.Valid() {
		return domain.NewConfigurationError("Timeline.Beat", info, domain.ErrInvalidOption)
	}
	t.beat = info
	t.beatFromTags = false
	t.fillBeats()
	t.e.redraw()
	return nil
}

// BeatInfo returns the beat configuration in use.
func (t *Timeline) BeatInfo() domain.BeatInfo { return t.beat }

// Beats returns a copy of the beat grid.
func (t *Timeline) Beats() []domain.Beat {
	return slices.Clone(t.beats)
}

// SetLoopEntryPoint starts a loop on the beat closest to the playhead. A loop
// end that is no longer after the entry is cleared.
func (t *Timeline) SetLoopEntryPoint() error {
	if err := t.ready(); err != nil {
		return err
	}
	b := t.closestBeat()
	t.loopEntry = &b
	if t.loopEnd != nil && t.loopEnd.Time <= b.Time {
		t.loopEnd = nil
	}
	t.e.redraw()
	return nil
}

// SetLoopEndPoint closes the loop beats after its entry, or on the beat
// closest to the playhead when beats is 0. The end is clamped to the last
// beat; an entry on the last beat leaves no room and is rejected.
func (t *Timeline) SetLoopEndPoint(beats int) error {
	if err := t.ready(); err != nil {
		return err
	}
	if t.loopEntry == nil {
		return domain.ErrNoLoopEntry
	}
	if beats < 0 {
		return domain.NewConfigurationError("beats", beats, domain.ErrInvalidOption)
	}

	var end domain.Beat
	if beats == 0 {
		end = t.closestBeat()
		if end.Time <= t.loopEntry.Time {
			return nil
		}
	} else {
		end = t.beats[min(t.loopEntry.Index+beats, len(t.beats)-1)]
		if end.Index <= t.loopEntry.Index {
			return domain.NewConfigurationError("beats", beats, domain.ErrInvalidOption)
		}
	}
	t.loopEnd = &end
	t.e.redraw()
	return nil
}

// ExitLoop clears both loop points.
func (t *Timeline) ExitLoop() error {
	if t.closed {
		return domain.ErrDisposed
	}
	t.loopEntry, t.loopEnd = nil, nil
	t.e.redraw()
	return nil
}

// Loop returns the loop points, ok is false unless both are set.
func (t *Timeline) Loop() (entry, end domain.Beat, ok bool) {
	if t.loopEntry == nil || t.loopEnd == nil {
		return domain.Beat{}, domain.Beat{}, false
	}
	return *t.loopEntry, *t.loopEnd, true
}

// TrackState returns the progress of the whole-track decode.
func (t *Timeline) TrackState() domain.TrackState { return t.loader.state }

// Close implements Strategy.
func (t *Timeline) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.loader.close()
	t.canvas = nil
	t.track = nil
	t.envelope = nil
}
