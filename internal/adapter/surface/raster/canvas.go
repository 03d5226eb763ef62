// Package raster provides a 2D canvas backed by an *image.RGBA.
// Shapes are anti-aliased with golang.org/x/image/vector and text uses the
// fixed 7x13 face from golang.org/x/image/font/basicfont.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Canvas is an in-memory drawing surface.
//
// Thread-safety: drawing happens on the UI goroutine; Snapshot may be called
// from a render goroutine.
type Canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer

	mu sync.RWMutex
}

// New creates a transparent canvas.
func New(width, height int) *Canvas {
	c := &Canvas{}
	c.SetSize(width, height)
	return c
}

// Width returns the width in pixels.
func (c *Canvas) Width() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img.Bounds().Dx()
}

// Height returns the height in pixels.
func (c *Canvas) Height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img.Bounds().Dy()
}

// SetSize replaces the pixels with a transparent image of the new size.
func (c *Canvas) SetSize(width, height int) {
	width, height = max(width, 0), max(height, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.z = vector.NewRasterizer(width, height)
}

// Image returns the backing image. Callers must not keep it across a resize.
func (c *Canvas) Image() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img
}

// Snapshot returns a copy of the pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// At returns the pixel at (x, y).
func (c *Canvas) At(x, y int) color.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img.RGBAAt(x, y)
}

// ClearRect makes the area transparent.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := pixelRect(x, y, w, h).Intersect(c.img.Bounds())
	draw.Draw(c.img, r, image.Transparent, image.Point{}, draw.Src)
}

// FillRect paints a rectangle. Negative sizes extend left or up.
func (c *Canvas) FillRect(x, y, w, h float64, p domain.Paint) error {
	if p == nil {
		return domain.NewDrawError("fill rect", "nil paint")
	}
	if !finite(x, y, w, h) {
		return domain.NewDrawError("fill rect", "non-finite rectangle (%v, %v, %v, %v)", x, y, w, h)
	}
	if w == 0 || h == 0 {
		return nil
	}
	return c.fill("fill rect", []domain.Subpath{{
		Points: []domain.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}},
		Closed: true,
	}}, p)
}

// FillPath fills every subpath of path with the non-zero rule.
func (c *Canvas) FillPath(path *domain.Path, p domain.Paint) error {
	if p == nil {
		return domain.NewDrawError("fill path", "nil paint")
	}
	if path.Empty() {
		return domain.NewDrawError("fill path", "empty path")
	}
	return c.fill("fill path", path.Flatten(), p)
}

// StrokePath strokes every segment of path lineWidth pixels wide.
func (c *Canvas) StrokePath(path *domain.Path, p domain.Paint, lineWidth float64) error {
	if p == nil {
		return domain.NewDrawError("stroke path", "nil paint")
	}
	if path.Empty() {
		return domain.NewDrawError("stroke path", "empty path")
	}
	if !(lineWidth > 0) || math.IsInf(lineWidth, 0) {
		return domain.NewDrawError("stroke path", "invalid line width %v", lineWidth)
	}

	var quads []domain.Subpath
	half := lineWidth / 2
	for _, sp := range path.Flatten() {
		pts := sp.Points
		if sp.Closed {
			pts = append(pts[:len(pts):len(pts)], pts[0])
		}
		for i := 1; i < len(pts); i++ {
			if q, ok := segmentQuad(pts[i-1], pts[i], half); ok {
				quads = append(quads, q)
			}
		}
	}
	if len(quads) == 0 {
		return nil
	}
	return c.fill("stroke path", quads, p)
}

// segmentQuad returns the rectangle covering a segment. Every quad winds the
// same way so overlapping quads never cancel.
func segmentQuad(a, b domain.Point, half float64) (domain.Subpath, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return domain.Subpath{}, false
	}
	nx, ny := -dy/length*half, dx/length*half
	return domain.Subpath{
		Points: []domain.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		},
		Closed: true,
	}, true
}

func (c *Canvas) fill(op string, subpaths []domain.Subpath, p domain.Paint) error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, sp := range subpaths {
		for _, pt := range sp.Points {
			if !finite(pt.X, pt.Y) {
				return domain.NewDrawError(op, "non-finite point (%v, %v)", pt.X, pt.Y)
			}
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// rasterize only the area the shape covers
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	box = box.Intersect(c.img.Bounds())
	if box.Empty() {
		return nil
	}
	ox, oy := float32(box.Min.X), float32(box.Min.Y)

	c.z.Reset(box.Dx(), box.Dy())
	c.z.DrawOp = draw.Over
	for _, sp := range subpaths {
		if len(sp.Points) < 2 {
			continue
		}
		for i, pt := range sp.Points {
			if i == 0 {
				c.z.MoveTo(float32(pt.X)-ox, float32(pt.Y)-oy)
				continue
			}
			c.z.LineTo(float32(pt.X)-ox, float32(pt.Y)-oy)
		}
		c.z.ClosePath()
	}
	c.z.Draw(c.img, box, source(p), box.Min)
	return nil
}

// FillText draws text with its baseline at y.
func (c *Canvas) FillText(text string, x, y float64, p domain.Paint, align ports.TextAlign) error {
	if p == nil {
		return domain.NewDrawError("fill text", "nil paint")
	}
	if !finite(x, y) {
		return domain.NewDrawError("fill text", "non-finite position (%v, %v)", x, y)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d := &font.Drawer{Dst: c.img, Src: source(p), Face: basicfont.Face7x13}
	width := float64(d.MeasureString(text)) / 64
	switch align {
	case ports.AlignCenter:
		x -= width / 2
	case ports.AlignRight:
		x -= width
	}
	d.Dot = fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))}
	d.DrawString(text)
	return nil
}

// DrawImage composites src over the canvas with its top-left corner at (dx, dy).
func (c *Canvas) DrawImage(src ports.Canvas, dx, dy float64) error {
	s, ok := src.(*Canvas)
	if !ok || s == nil {
		return domain.NewDrawError("draw image", "unsupported source %T", src)
	}
	if !finite(dx, dy) {
		return domain.NewDrawError("draw image", "non-finite offset (%v, %v)", dx, dy)
	}

	// copy first so a canvas can be drawn onto itself
	pixels := s.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	offset := image.Pt(int(math.Round(dx)), int(math.Round(dy)))
	r := pixels.Bounds().Add(offset).Intersect(c.img.Bounds())
	draw.Draw(c.img, r, pixels, r.Min.Sub(offset), draw.Over)
	return nil
}

// source adapts a paint to an image sampled at pixel centers.
func source(p domain.Paint) image.Image {
	if s, ok := p.(domain.Solid); ok {
		return image.NewUniform(s.Color)
	}
	return paintImage{p}
}

type paintImage struct {
	p domain.Paint
}

func (pi paintImage) ColorModel() color.Model { return color.RGBAModel }

func (pi paintImage) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (pi paintImage) At(x, y int) color.Color {
	return pi.p.ColorAt(float64(x)+0.5, float64(y)+0.5)
}

func pixelRect(x, y, w, h float64) image.Rectangle {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var _ ports.Canvas = (*Canvas)(nil)
