package visualizer

import (
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

const (
	starCount         = 1500
	averageBreakpoint = 132
	circleStroke      = 2
	oscilloscopeTurn  = 0.05
)

var (
	circleInner     = domain.MustHex("#3C405D")
	circleOuter     = domain.MustHex("#060609")
	circleBarHit    = domain.MustHex("#56D45B")
	circleBar       = domain.MustHex("#37C340")
	circleGlow      = domain.MustHex("#48ABAF")
	starDark        = domain.MustHex("#0F8489")
	starLight       = domain.MustHex("#71C9CD")
	starHot         = domain.MustHex("#FF6B67")
	scopeHit        = domain.RGBA(255, 193, 140, 0.7)
	scope           = domain.RGBA(125, 228, 132, 0.25)
	pointsHit       = domain.RGBA(113, 201, 205, 0.7)
	transparentGlow = color.RGBA{}
)

// Circle draws radial frequency bars around a disc, over a moving star field,
// with a glow ring following the average level and a radial oscilloscope.
// When the average level crosses a breakpoint the colours switch and a flat
// point oscilloscope is added.
type Circle struct {
	e      *env
	rng    *rand.Rand
	canvas ports.Canvas

	// Geometry, rebuilt on resize
	cx, cy  float64
	radius  float64
	barMax  float64
	section float64
	stars   []*star
	points  []radialPoint
	bins    int

	rotation   float64
	averageHit bool
}

type star struct {
	x, y, z    float64
	dx, dy, dz float64
	maxDepth   float64
	radius     float64
	color      color.RGBA
}

type radialPoint struct {
	angle  float64 // radians
	x, y   float64
	dx, dy float64
}

func newCircle(e *env) *Circle {
	seed := e.Circle.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Circle{
		e:    e,
		rng:  rand.New(rand.NewPCG(seed, seed>>1|1)),
		bins: e.FFTSize / 2,
	}
}

// Layout implements Strategy.
func (c *Circle) Layout(content domain.Size) []domain.Size {
	return []domain.Size{content}
}

// Resize implements Strategy. Stars and oscilloscope points are regenerated
// for the new size.
func (c *Circle) Resize(canvases []ports.Canvas) error {
	c.canvas = canvases[0]
	w, h := float64(c.canvas.Width()), float64(c.canvas.Height())
	c.cx, c.cy = w/2, h/2
	c.barMax = h / 8
	c.radius = h/4 - h/16
	c.section = 2 * math.Pi / float64(c.bins)

	c.stars = make([]*star, starCount)
	for i := range c.stars {
		c.stars[i] = c.newStar(0)
	}

	c.points = make([]radialPoint, c.bins)
	ring := w / 8
	for i := range c.points {
		angle := float64(i) * 2 * math.Pi / float64(c.bins)
		value := c.rng.Float64() * 256
		x, y := c.cx+ring*math.Sin(angle), c.cy+ring*math.Cos(angle)
		c.points[i] = radialPoint{
			angle: angle, x: x, y: y,
			dx: x + value*math.Sin(angle),
			dy: y + value*math.Cos(angle),
		}
	}
	return nil
}

// Stars returns the number of stars in the field.
func (c *Circle) Stars() int { return len(c.stars) }

// Points returns the number of radial oscilloscope points.
func (c *Circle) Points() int { return len(c.points) }

// newStar places a star relative to the center.
func (c *Circle) newStar(average float64) *star {
	s := &star{
		radius: 0.4,
		color:  starDark,
		x:      c.rng.Float64()*c.cx*2 - c.cx,
		y:      c.rng.Float64()*c.cy*2 - c.cy,
		dz:     -0.1,
	}
	if c.cy > 0 {
		s.maxDepth = c.cx / c.cy
	}
	s.z = s.maxDepth

	switch {
	case s.x == 0 && s.y == 0:
		s.dx, s.dy = 1, 1
	case math.Abs(s.x) > math.Abs(s.y):
		s.dx, s.dy = 1, math.Abs(s.y/s.x)
	default:
		s.dx, s.dy = math.Abs(s.x/s.y), 1
	}
	if s.x <= 0 {
		s.dx = -s.dx
	}
	if s.y <= 0 {
		s.dy = -s.dy
	}

	switch {
	case s.y > c.cy/2:
		s.color = starLight
	case average > averageBreakpoint:
		s.color = starHot
	}
	return s
}

func (s *star) move(tick, radiusFactor float64) {
	s.x += s.dx * tick
	s.y += s.dy * tick
	s.z += s.dz
	s.dx += s.dx * 0.001
	s.dy += s.dy * 0.001
	s.radius = radiusFactor + (s.maxDepth-s.z)*0.1
}

// Draw implements Strategy.
func (c *Circle) Draw(f *Frame) error {
	if _, _, err := canvasSize("circle", c.canvas); err != nil {
		return err
	}
	freq := f.Frequency[0]
	times := f.TimeDomain[0]

	var average float64
	for _, v := range freq {
		average += float64(v)
	}
	if len(freq) > 0 {
		average /= float64(len(freq))
	}
	c.averageHit = average > averageBreakpoint

	var errs drawErrs
	errs.add(c.background())
	errs.add(c.bars(freq))
	if f.Playing {
		c.animateStars(average)
	}
	errs.add(c.drawStars())
	errs.add(c.glow(average))
	errs.add(c.oscilloscopes(times, f.Playing))
	if img := c.e.Circle.Image; img != nil {
		errs.add(c.canvas.DrawImage(img, c.cx-float64(img.Width())/2, c.cy-float64(img.Height())/2))
	}
	return errs.err
}

func (c *Circle) background() error {
	w, h := float64(c.canvas.Width()), float64(c.canvas.Height())
	c.canvas.ClearRect(0, 0, w, h)
	bg := domain.RadialGradient{CX: c.cx, CY: c.cy, R0: c.radius, R1: w / 2.66, Stops: []domain.ColorStop{
		{Offset: 0, Color: circleInner},
		{Offset: 1, Color: circleOuter},
	}}
	if err := c.canvas.FillRect(0, 0, w, h, bg); err != nil {
		return err
	}
	ring := domain.NewPath().Arc(c.cx, c.cy, c.radius, 0, 2*math.Pi)
	return c.canvas.StrokePath(ring, solid(domain.ColorWhite), circleStroke*2)
}

func (c *Circle) bars(freq []byte) error {
	base := circleBar
	if c.averageHit {
		base = circleBarHit
	}
	width := math.Max(1, math.Round(c.section*c.radius))
	inner := c.radius + circleStroke

	var errs drawErrs
	for i, v := range freq {
		if v == 0 {
			continue
		}
		h := float64(v) / 255 * c.barMax
		a := c.section*float64(i) - math.Pi/2
		cos, sin := math.Cos(a), math.Sin(a)
		line := domain.NewPath().
			MoveTo(c.cx+cos*inner, c.cy+sin*inner).
			LineTo(c.cx+cos*(inner+h), c.cy+sin*(inner+h))
		errs.add(c.canvas.StrokePath(line, solid(domain.LightenDarken(base, float64(v)/255*100)), width))
	}
	return errs.err
}

func (c *Circle) animateStars(average float64) {
	tick := average / 60
	if c.averageHit {
		tick = average / 20
	}
	for i, s := range c.stars {
		s.move(tick, 0.6)
		if s.x < -c.cx || s.x > c.cx || s.y < -c.cy || s.y > c.cy {
			c.stars[i] = c.newStar(average)
		}
	}
}

func (c *Circle) drawStars() error {
	var errs drawErrs
	for _, s := range c.stars {
		if !(s.radius > 0) {
			continue
		}
		disc := domain.NewPath().Arc(s.x+c.cx, s.y+c.cy, s.radius, 0, 2*math.Pi).Close()
		errs.add(c.canvas.FillPath(disc, solid(s.color)))
	}
	return errs.err
}

func (c *Circle) glow(average float64) error {
	r := (c.radius*1.33 + average) * 2
	ring := circleGlow
	if c.averageHit {
		ring = circleBarHit
	}
	p := domain.RadialGradient{CX: c.cx, CY: c.cy, R0: 0, R1: r, Stops: []domain.ColorStop{
		{Offset: 0.48, Color: transparentGlow},
		{Offset: 0.5, Color: ring},
		{Offset: 0.52, Color: transparentGlow},
	}}
	return c.canvas.FillPath(domain.NewPath().Arc(c.cx, c.cy, r, 0, 2*math.Pi).Close(), p)
}

// rotate turns (x, y) around the center by the current oscilloscope rotation.
func (c *Circle) rotate(x, y float64) (float64, float64) {
	sin, cos := math.Sincos(c.rotation)
	x, y = x-c.cx, y-c.cy
	return c.cx + x*cos - y*sin, c.cy + x*sin + y*cos
}

func (c *Circle) oscilloscopes(times []byte, playing bool) error {
	n := min(len(c.points), len(times))
	if n == 0 {
		return nil
	}
	stroke := scope
	if playing {
		if c.averageHit {
			c.rotation += oscilloscopeTurn
		} else {
			c.rotation -= oscilloscopeTurn
		}
	}
	if c.averageHit {
		stroke = scopeHit
	}

	for i := range n {
		p := &c.points[i]
		v := float64(times[i])
		p.dx = p.x + v*math.Sin(p.angle)
		p.dy = p.y + v*math.Cos(p.angle)
	}
	path := domain.NewPath().MoveTo(c.rotate(c.points[0].dx, c.points[0].dy))
	for i := range n {
		next := c.points[(i+1)%n]
		p := c.points[i]
		px, py := c.rotate(p.dx, p.dy)
		mx, my := c.rotate((p.dx+next.dx)/2, (p.dy+next.dy)/2)
		path.QuadTo(px, py, mx, my)
	}
	first := c.points[0]
	fx, fy := c.rotate(first.dx, first.dy)
	path.LineTo(fx, fy)

	var errs drawErrs
	errs.add(c.canvas.StrokePath(path, solid(stroke), 1))

	if c.averageHit {
		w, h := float64(c.canvas.Width()), float64(c.canvas.Height())
		step := w / float64(n)
		for i := range n {
			height := h * float64(times[i]) / 255
			errs.add(c.canvas.FillRect(float64(i)*step, h-height-1, 2, 2, solid(pointsHit)))
		}
	}
	return errs.err
}

// Close implements Strategy.
func (c *Circle) Close() {
	c.canvas = nil
	c.stars = nil
	c.points = nil
}
