package domain

import "math"

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

type pathVerb uint8

const (
	verbMove pathVerb = iota
	verbLine
	verbQuad
	verbArc
	verbClose
)

type pathOp struct {
	verb pathVerb
	pts  [2]Point
	// arc parameters
	r, start, end float64
}

// Path is a sequence of drawing commands, the equivalent of a canvas path.
type Path struct {
	ops []pathOp
}

// NewPath returns an empty path.
func NewPath() *Path { return &Path{} }

// MoveTo starts a new subpath.
func (p *Path) MoveTo(x, y float64) *Path {
	p.ops = append(p.ops, pathOp{verb: verbMove, pts: [2]Point{{x, y}}})
	return p
}

// LineTo adds a straight segment.
func (p *Path) LineTo(x, y float64) *Path {
	p.ops = append(p.ops, pathOp{verb: verbLine, pts: [2]Point{{x, y}}})
	return p
}

// QuadTo adds a quadratic Bezier segment with control point (cx, cy).
func (p *Path) QuadTo(cx, cy, x, y float64) *Path {
	p.ops = append(p.ops, pathOp{verb: verbQuad, pts: [2]Point{{cx, cy}, {x, y}}})
	return p
}

// Arc adds a clockwise circular arc. As on a canvas, a line joins the current
// point to the arc start.
func (p *Path) Arc(cx, cy, r, start, end float64) *Path {
	p.ops = append(p.ops, pathOp{verb: verbArc, pts: [2]Point{{cx, cy}}, r: r, start: start, end: end})
	return p
}

// Rect adds a closed rectangle subpath.
func (p *Path) Rect(x, y, w, h float64) *Path {
	return p.MoveTo(x, y).LineTo(x+w, y).LineTo(x+w, y+h).LineTo(x, y+h).Close()
}

// Close closes the current subpath.
func (p *Path) Close() *Path {
	p.ops = append(p.ops, pathOp{verb: verbClose})
	return p
}

// Empty reports whether the path has no commands.
func (p *Path) Empty() bool { return p == nil || len(p.ops) == 0 }

// Subpath is a flattened polyline.
type Subpath struct {
	Points []Point
	Closed bool
}

// Flatten converts curves and arcs into polylines.
func (p *Path) Flatten() []Subpath {
	if p == nil {
		return nil
	}
	var (
		out []Subpath
		cur *Subpath
	)
	last := func() (Point, bool) {
		if cur == nil || len(cur.Points) == 0 {
			return Point{}, false
		}
		return cur.Points[len(cur.Points)-1], true
	}
	begin := func(pt Point) {
		out = append(out, Subpath{Points: []Point{pt}})
		cur = &out[len(out)-1]
	}

	for _, op := range p.ops {
		switch op.verb {
		case verbMove:
			begin(op.pts[0])
		case verbLine:
			if cur == nil {
				begin(op.pts[0])
				continue
			}
			cur.Points = append(cur.Points, op.pts[0])
		case verbQuad:
			from, ok := last()
			if !ok {
				begin(op.pts[0])
				from = op.pts[0]
			}
			ctrl, to := op.pts[0], op.pts[1]
			n := curveSteps(math.Hypot(ctrl.X-from.X, ctrl.Y-from.Y) + math.Hypot(to.X-ctrl.X, to.Y-ctrl.Y))
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				cur.Points = append(cur.Points, Point{
					X: mt*mt*from.X + 2*mt*t*ctrl.X + t*t*to.X,
					Y: mt*mt*from.Y + 2*mt*t*ctrl.Y + t*t*to.Y,
				})
			}
		case verbArc:
			c := op.pts[0]
			sweep := op.end - op.start
			if sweep > 2*math.Pi {
				sweep = 2 * math.Pi
			}
			startPt := Point{c.X + op.r*math.Cos(op.start), c.Y + op.r*math.Sin(op.start)}
			if cur == nil {
				begin(startPt)
			} else {
				cur.Points = append(cur.Points, startPt)
			}
			n := curveSteps(math.Abs(sweep) * op.r)
			for i := 1; i <= n; i++ {
				a := op.start + sweep*float64(i)/float64(n)
				cur.Points = append(cur.Points, Point{c.X + op.r*math.Cos(a), c.Y + op.r*math.Sin(a)})
			}
		case verbClose:
			if cur != nil {
				cur.Closed = true
				start := cur.Points[0]
				cur = nil
				// drawing continues from the closed subpath's start
				begin(start)
			}
		}
	}

	// drop the empty subpaths left behind by Close
	kept := out[:0]
	for _, sp := range out {
		if len(sp.Points) > 1 {
			kept = append(kept, sp)
		}
	}
	return kept
}

func curveSteps(length float64) int {
	n := int(math.Ceil(length / 2))
	return max(4, min(n, 256))
}
