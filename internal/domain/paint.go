package domain

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Default palette.
var (
	ColorBackground  = MustHex("#1D1E25")
	ColorText        = MustHex("#E7E9E7")
	ColorPrimary     = MustHex("#56D45B")
	ColorAntiPrimary = MustHex("#FF6B67")
	ColorDarkPrimary = MustHex("#12B31D")
	ColorLoop        = MustHex("#FFAD67")
	ColorLoopAlpha   = RGBA(0xFF, 0xAD, 0x67, 0.5)
	ColorBlack       = color.RGBA{A: 0xFF}
	ColorWhite       = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	ColorGrey        = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}

	// AudioGradient goes green, light green, orange, red, light red.
	AudioGradient = []color.RGBA{
		MustHex("#56D45B"),
		MustHex("#AFF2B3"),
		MustHex("#FFAD67"),
		MustHex("#FF6B67"),
		MustHex("#FFBAB8"),
	}
)

// Paint yields the color of a pixel center. Implementations are immutable.
type Paint interface {
	ColorAt(x, y float64) color.RGBA
}

// Solid is a single-color paint.
type Solid struct {
	Color color.RGBA
}

// ColorAt implements Paint.
func (s Solid) ColorAt(_, _ float64) color.RGBA { return s.Color }

// ColorStop places a color along a gradient, Offset in [0, 1].
type ColorStop struct {
	Offset float64
	Color  color.RGBA
}

// EvenStops spreads colors evenly over [0, 1].
func EvenStops(colors []color.RGBA) []ColorStop {
	stops := make([]ColorStop, len(colors))
	for i, c := range colors {
		off := 0.0
		if len(colors) > 1 {
			off = float64(i) / float64(len(colors)-1)
		}
		stops[i] = ColorStop{Offset: off, Color: c}
	}
	return stops
}

// LinearGradient interpolates stops along the segment (X0,Y0)-(X1,Y1).
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []ColorStop
}

// ColorAt implements Paint.
func (g LinearGradient) ColorAt(x, y float64) color.RGBA {
	dx, dy := g.X1-g.X0, g.Y1-g.Y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return stopColor(g.Stops, 0)
	}
	t := ((x-g.X0)*dx + (y-g.Y0)*dy) / l2
	return stopColor(g.Stops, t)
}

// RadialGradient interpolates stops between two concentric circles.
type RadialGradient struct {
	CX, CY float64
	R0, R1 float64
	Stops  []ColorStop
}

// ColorAt implements Paint.
func (g RadialGradient) ColorAt(x, y float64) color.RGBA {
	if g.R1 == g.R0 {
		return stopColor(g.Stops, 0)
	}
	d := math.Hypot(x-g.CX, y-g.CY)
	return stopColor(g.Stops, (d-g.R0)/(g.R1-g.R0))
}

func stopColor(stops []ColorStop, t float64) color.RGBA {
	if len(stops) == 0 {
		return color.RGBA{}
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Offset {
			a, b := stops[i-1], stops[i]
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			return Lerp(a.Color, b.Color, (t-a.Offset)/span)
		}
	}
	return stops[len(stops)-1].Color
}

// Lerp mixes two premultiplied colors.
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// RGBA builds a premultiplied color from straight components and an alpha in [0, 1].
func RGBA(r, g, b uint8, alpha float64) color.RGBA {
	alpha = math.Max(0, math.Min(1, alpha))
	pm := func(v uint8) uint8 { return uint8(math.Round(float64(v) * alpha)) }
	return color.RGBA{R: pm(r), G: pm(g), B: pm(b), A: uint8(math.Round(alpha * 255))}
}

// Gray returns an opaque gray of level v.
func Gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 0xFF}
}

// ParseHex parses #RGB or #RRGGBB colors, with or without the hash.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// MustHex is ParseHex for package-level constants. It panics on malformed input.
func MustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats an opaque color as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// LightenDarken shifts every channel by amount+16 and clamps to [0, 255].
// Negative amounts darken. Alpha is kept.
func LightenDarken(c color.RGBA, amount float64) color.RGBA {
	amount += 16
	shift := func(v uint8) uint8 {
		n := float64(v) + amount
		if n > 255 {
			return 255
		}
		if n < 0 {
			return 0
		}
		return uint8(n)
	}
	return color.RGBA{R: shift(c.R), G: shift(c.G), B: shift(c.B), A: c.A}
}

// IsZero reports whether c is the zero color, used as "not configured".
func IsZero(c color.RGBA) bool {
	return c == color.RGBA{}
}

// Or returns c unless it is the zero color.
func Or(c, fallback color.RGBA) color.RGBA {
	if IsZero(c) {
		return fallback
	}
	return c
}
