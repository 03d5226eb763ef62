package visualizer

import (
	"fmt"
	"log/slog"
	"time"
)

// schedule requests the next frame unless one is already pending.
func (c *Component) schedule() {
	if c.framePending {
		return
	}
	c.framePending = true
	c.frameID = c.host.RequestFrame(c.tick)
}

// tick is the frame callback. It re-arms itself while playing, so pausing
// stops the loop within one frame and destroying turns a pending frame into
// a no-op.
func (c *Component) tick(ts time.Duration) {
	c.framePending = false
	if c.disposed || !c.playing {
		return
	}
	c.lastFrame = ts
	c.draw(ts)
	c.schedule()
}

// draw pulls the latest snapshot from every analyser and renders it. Draw
// errors and panics are logged; the next frame runs regardless.
func (c *Component) draw(ts time.Duration) {
	if c.disposed {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("frame draw panicked", slog.Any("panic", r))
		}
	}()

	c.pull()
	c.frame.Time = ts
	c.frame.Playing = c.playing
	if err := c.strategy.Draw(&c.frame); err != nil {
		c.logger.Warn("frame draw failed", slog.Any("error", err))
	}
	c.drawn++
}

// pull copies the analyser snapshots into the frame buffers.
func (c *Component) pull() {
	for i, a := range c.graph.analysers {
		if c.frame.Frequency != nil {
			a.GetByteFrequencyData(c.frame.Frequency[i])
		}
		if c.frame.TimeDomain != nil {
			a.GetByteTimeDomainData(c.frame.TimeDomain[i])
		}
		if c.frame.Float != nil {
			a.GetFloatTimeDomainData(c.frame.Float[i])
		}
	}
}

// allocFrame sizes the frame buffers for the kind and the analysers.
func (c *Component) allocFrame() {
	n := len(c.graph.analysers)
	size := c.s.FFTSize
	alloc := func(length int) [][]byte {
		out := make([][]byte, n)
		for i := range out {
			out[i] = make([]byte, length)
		}
		return out
	}
	need := c.s.traits.needs
	if need&needFrequency != 0 {
		c.frame.Frequency = alloc(size / 2)
	}
	if need&needTimeDomain != 0 {
		c.frame.TimeDomain = alloc(size)
	}
	if need&needFloat != 0 {
		c.frame.Float = make([][]float32, n)
		for i := range c.frame.Float {
			c.frame.Float[i] = make([]float32, size)
		}
	}
}

func (c *Component) String() string {
	return fmt.Sprintf("visualizer(%s, %s, fft %d)", c.s.Kind, c.state, c.s.FFTSize)
}
