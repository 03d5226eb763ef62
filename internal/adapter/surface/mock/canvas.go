// Package mock provides a canvas that records drawing calls instead of
// rasterizing them. This is used for asserting what a visualization draws.
package mock

import (
	"sync"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Op names.
const (
	OpClearRect  = "clearRect"
	OpFillRect   = "fillRect"
	OpFillPath   = "fillPath"
	OpStrokePath = "strokePath"
	OpFillText   = "fillText"
	OpDrawImage  = "drawImage"
)

// Op is one recorded drawing call.
type Op struct {
	Name string

	// Rectangle of clearRect/fillRect, position of fillText/drawImage
	X, Y, W, H float64

	Paint     domain.Paint
	Path      *domain.Path
	LineWidth float64
	Text      string
	Align     ports.TextAlign
	Source    ports.Canvas
}

// Canvas is a recording implementation of ports.Canvas.
//
// Thread-safety: This implementation is thread-safe.
type Canvas struct {
	width  int
	height int
	ops    []Op
	resize int

	// Behavior configuration (for testing error scenarios)
	failDraws bool
	panics    bool

	mu sync.RWMutex
}

// New creates a canvas with no recorded calls.
func New(width, height int) *Canvas {
	return &Canvas{width: max(width, 0), height: max(height, 0)}
}

// Factory matches the host canvas factory signature.
func Factory(width, height int) (ports.Canvas, error) {
	return New(width, height), nil
}

// SetFailDraws makes every drawing call return a DrawError (for testing).
func (c *Canvas) SetFailDraws(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failDraws = fail
}

// SetPanics makes every drawing call panic (for testing).
func (c *Canvas) SetPanics(panics bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panics = panics
}

// Width returns the width in pixels.
func (c *Canvas) Width() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width
}

// Height returns the height in pixels.
func (c *Canvas) Height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// SetSize changes the size and forgets recorded calls, as resizing clears a canvas.
func (c *Canvas) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = max(width, 0), max(height, 0)
	c.ops = nil
	c.resize++
}

// Resizes returns how many times SetSize was called.
func (c *Canvas) Resizes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resize
}

func (c *Canvas) record(op Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.panics {
		panic("mock canvas: " + op.Name)
	}
	if c.failDraws {
		return domain.NewDrawError(op.Name, "mock draw failed")
	}
	c.ops = append(c.ops, op)
	return nil
}

// ClearRect records a clearRect call.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	_ = c.record(Op{Name: OpClearRect, X: x, Y: y, W: w, H: h})
}

// FillRect records a fillRect call.
func (c *Canvas) FillRect(x, y, w, h float64, p domain.Paint) error {
	if p == nil {
		return domain.NewDrawError(OpFillRect, "nil paint")
	}
	return c.record(Op{Name: OpFillRect, X: x, Y: y, W: w, H: h, Paint: p})
}

// FillPath records a fillPath call.
func (c *Canvas) FillPath(path *domain.Path, p domain.Paint) error {
	if p == nil || path.Empty() {
		return domain.NewDrawError(OpFillPath, "nil paint or empty path")
	}
	return c.record(Op{Name: OpFillPath, Path: path, Paint: p})
}

// StrokePath records a strokePath call.
func (c *Canvas) StrokePath(path *domain.Path, p domain.Paint, lineWidth float64) error {
	if p == nil || path.Empty() || !(lineWidth > 0) {
		return domain.NewDrawError(OpStrokePath, "nil paint, empty path or invalid line width")
	}
	return c.record(Op{Name: OpStrokePath, Path: path, Paint: p, LineWidth: lineWidth})
}

// FillText records a fillText call.
func (c *Canvas) FillText(text string, x, y float64, p domain.Paint, align ports.TextAlign) error {
	if p == nil {
		return domain.NewDrawError(OpFillText, "nil paint")
	}
	return c.record(Op{Name: OpFillText, Text: text, X: x, Y: y, Paint: p, Align: align})
}

// DrawImage records a drawImage call.
func (c *Canvas) DrawImage(src ports.Canvas, dx, dy float64) error {
	if src == nil {
		return domain.NewDrawError(OpDrawImage, "nil source")
	}
	return c.record(Op{Name: OpDrawImage, Source: src, X: dx, Y: dy})
}

// Ops returns a copy of the recorded calls.
func (c *Canvas) Ops() []Op {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Op, len(c.ops))
	copy(out, c.ops)
	return out
}

// Filter returns the recorded calls named name.
func (c *Canvas) Filter(name string) []Op {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Op
	for _, op := range c.ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// Count returns the number of recorded calls named name.
func (c *Canvas) Count(name string) int {
	return len(c.Filter(name))
}

// Texts returns the text of every fillText call.
func (c *Canvas) Texts() []string {
	var out []string
	for _, op := range c.Filter(OpFillText) {
		out = append(out, op.Text)
	}
	return out
}

// Reset forgets recorded calls.
func (c *Canvas) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
}

var _ ports.Canvas = (*Canvas)(nil)
