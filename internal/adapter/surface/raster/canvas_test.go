package raster

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

var red = color.RGBA{R: 255, A: 255}

// assertColor compares channels with a small tolerance for anti-aliasing rounding.
func assertColor(t *testing.T, want, got color.RGBA) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 2, "red")
	assert.InDelta(t, want.G, got.G, 2, "green")
	assert.InDelta(t, want.B, got.B, 2, "blue")
	assert.InDelta(t, want.A, got.A, 2, "alpha")
}

func TestNewCanvasIsTransparent(t *testing.T) {
	c := New(10, 5)

	assert.Equal(t, 10, c.Width())
	assert.Equal(t, 5, c.Height())
	assert.Equal(t, color.RGBA{}, c.At(3, 3))
}

func TestSetSizeClears(t *testing.T) {
	c := New(4, 4)
	require.NoError(t, c.FillRect(0, 0, 4, 4, domain.Solid{Color: red}))

	c.SetSize(8, 2)

	assert.Equal(t, 8, c.Width())
	assert.Equal(t, 2, c.Height())
	assert.Equal(t, color.RGBA{}, c.At(1, 1))

	c.SetSize(-1, 3)
	assert.Equal(t, 0, c.Width())
}

func TestFillRect(t *testing.T) {
	c := New(10, 10)
	require.NoError(t, c.FillRect(2, 2, 4, 3, domain.Solid{Color: red}))

	assertColor(t, red, c.At(2, 2))
	assertColor(t, red, c.At(5, 4))
	assert.Equal(t, color.RGBA{}, c.At(6, 4))
	assert.Equal(t, color.RGBA{}, c.At(2, 5))
}

func TestFillRectNegativeSize(t *testing.T) {
	c := New(10, 10)
	require.NoError(t, c.FillRect(6, 8, -4, -3, domain.Solid{Color: red}))

	assertColor(t, red, c.At(3, 6))
	assert.Equal(t, color.RGBA{}, c.At(7, 6))
}

func TestFillRectLinearGradient(t *testing.T) {
	c := New(1, 100)
	g := domain.LinearGradient{X0: 0, Y0: 100, X1: 0, Y1: 0, Stops: []domain.ColorStop{
		{Offset: 0, Color: color.RGBA{B: 255, A: 255}},
		{Offset: 1, Color: red},
	}}
	require.NoError(t, c.FillRect(0, 0, 1, 100, g))

	top, bottom := c.At(0, 0), c.At(0, 99)
	assert.Greater(t, top.R, uint8(250))
	assert.Greater(t, bottom.B, uint8(250))
}

func TestDrawErrors(t *testing.T) {
	c := New(10, 10)
	var drawErr *domain.DrawError

	assert.True(t, errors.As(c.FillRect(0, 0, 1, 1, nil), &drawErr))
	assert.True(t, errors.As(c.FillRect(math.NaN(), 0, 1, 1, domain.Solid{Color: red}), &drawErr))
	assert.True(t, errors.As(c.FillPath(domain.NewPath(), domain.Solid{Color: red}), &drawErr))
	assert.True(t, errors.As(c.StrokePath(domain.NewPath().MoveTo(0, 0).LineTo(5, 5), domain.Solid{Color: red}, 0), &drawErr))
	assert.True(t, errors.As(c.FillText("x", math.Inf(1), 0, domain.Solid{Color: red}, ports.AlignLeft), &drawErr))
	assert.True(t, errors.As(c.DrawImage(nil, 0, 0), &drawErr))
	assert.Equal(t, "draw image", drawErr.Op)
}

func TestZeroSizeRectIsNoop(t *testing.T) {
	c := New(4, 4)
	require.NoError(t, c.FillRect(1, 1, 0, 3, domain.Solid{Color: red}))
	assert.Equal(t, color.RGBA{}, c.At(1, 1))
}

func TestFillPathTriangle(t *testing.T) {
	c := New(20, 20)
	path := domain.NewPath().MoveTo(0, 0).LineTo(20, 0).LineTo(0, 20).Close()
	require.NoError(t, c.FillPath(path, domain.Solid{Color: red}))

	assertColor(t, red, c.At(2, 2))
	assert.Equal(t, color.RGBA{}, c.At(18, 18))
}

func TestStrokePath(t *testing.T) {
	c := New(20, 20)
	path := domain.NewPath().MoveTo(0, 10.5).LineTo(20, 10.5).LineTo(20, 20)
	require.NoError(t, c.StrokePath(path, domain.Solid{Color: red}, 1))

	assertColor(t, red, c.At(5, 10))
	assert.Equal(t, color.RGBA{}, c.At(5, 5))
}

func TestStrokeClosedPathKeepsCoverage(t *testing.T) {
	c := New(20, 20)
	path := domain.NewPath().Rect(5, 5, 10, 10)
	require.NoError(t, c.StrokePath(path, domain.Solid{Color: red}, 2))

	// corners where two segment quads overlap stay painted
	assertColor(t, red, c.At(5, 5))
	assertColor(t, red, c.At(14, 14))
	assert.Equal(t, color.RGBA{}, c.At(10, 10))
}

func TestFillTextAlignment(t *testing.T) {
	painted := func(c *Canvas) (minX, maxX int) {
		minX, maxX = c.Width(), -1
		for y := range c.Height() {
			for x := range c.Width() {
				if c.At(x, y).A > 0 {
					minX = min(minX, x)
					maxX = max(maxX, x)
				}
			}
		}
		return minX, maxX
	}

	left := New(100, 20)
	require.NoError(t, left.FillText("-15", 50, 14, domain.Solid{Color: red}, ports.AlignLeft))
	right := New(100, 20)
	require.NoError(t, right.FillText("-15", 50, 14, domain.Solid{Color: red}, ports.AlignRight))

	lMin, _ := painted(left)
	_, rMax := painted(right)
	assert.GreaterOrEqual(t, lMin, 50)
	assert.LessOrEqual(t, rMax, 50)
	assert.Greater(t, rMax, 0)
}

func TestDrawImageOffset(t *testing.T) {
	src := New(4, 4)
	require.NoError(t, src.FillRect(0, 0, 1, 4, domain.Solid{Color: red}))

	dst := New(4, 4)
	require.NoError(t, dst.DrawImage(src, 2, 0))

	assertColor(t, red, dst.At(2, 1))
	assert.Equal(t, color.RGBA{}, dst.At(0, 1))
}

func TestDrawImageOntoItself(t *testing.T) {
	c := New(4, 1)
	require.NoError(t, c.FillRect(3, 0, 1, 1, domain.Solid{Color: red}))

	require.NoError(t, c.DrawImage(c, -1, 0))

	assertColor(t, red, c.At(2, 0))
	assertColor(t, red, c.At(3, 0))
}

func TestClearRect(t *testing.T) {
	c := New(4, 4)
	require.NoError(t, c.FillRect(0, 0, 4, 4, domain.Solid{Color: red}))

	c.ClearRect(0, 0, 2, 4)

	assert.Equal(t, color.RGBA{}, c.At(1, 1))
	assertColor(t, red, c.At(2, 1))
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New(2, 2)
	snap := c.Snapshot()
	require.NoError(t, c.FillRect(0, 0, 2, 2, domain.Solid{Color: red}))

	assert.Equal(t, color.RGBA{}, snap.RGBAAt(0, 0))
}
