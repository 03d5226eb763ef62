package ports

import (
	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

// TextAlign positions text relative to its anchor x.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// Canvas is a 2D drawing surface. Coordinates are pixels with the origin at the
// top-left corner. Drawing methods return a *domain.DrawError for unusable
// arguments instead of panicking.
type Canvas interface {
	Width() int
	Height() int

	// SetSize resizes the canvas and clears it.
	SetSize(width, height int)

	// ClearRect makes the area transparent.
	ClearRect(x, y, w, h float64)

	// FillRect paints a rectangle. Negative sizes extend left or up.
	FillRect(x, y, w, h float64, p domain.Paint) error

	FillPath(path *domain.Path, p domain.Paint) error
	StrokePath(path *domain.Path, p domain.Paint, lineWidth float64) error

	// FillText draws text with its baseline at y.
	FillText(text string, x, y float64, p domain.Paint, align TextAlign) error

	// DrawImage composites src with its top-left corner at (dx, dy).
	DrawImage(src Canvas, dx, dy float64) error
}
