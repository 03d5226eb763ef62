package domain

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFFTSize(t *testing.T) {
	valid := []int{32, 64, 512, 1024, 2048, 8192, 32768}
	for _, n := range valid {
		assert.True(t, ValidFFTSize(n), "fft size %d", n)
	}

	invalid := []int{0, -1024, 16, 100, 1000, 1023, 65536, 3 * 1024}
	for _, n := range invalid {
		assert.False(t, ValidFFTSize(n), "fft size %d", n)
	}
}

func TestChannelModeAnalysers(t *testing.T) {
	assert.Equal(t, 1, ChannelMono.Analysers())
	assert.Equal(t, 1, ChannelMergedStereo.Analysers())
	assert.Equal(t, 2, ChannelStereo.Analysers())
	assert.Equal(t, "merged", ChannelMergedStereo.String())
}

func TestBeatLabel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "0.1"},
		{1, "1.1"},
		{2, "1.2"},
		{4, "1.4"},
		{5, "2.1"},
		{9, "3.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Beat{Index: tt.index}.Label(4), "beat %d", tt.index)
	}
}

func TestBeatInfo(t *testing.T) {
	info := BeatInfo{Offset: 0.5, BPM: 120, TimeSignature: 4}
	assert.True(t, info.Valid())
	assert.InDelta(t, 0.5, info.BeatDuration(), 1e-9)

	assert.False(t, BeatInfo{BPM: 0, TimeSignature: 4}.Valid())
	assert.False(t, BeatInfo{BPM: 120}.Valid())
}

func TestAudioBufferDuration(t *testing.T) {
	buf := &AudioBuffer{SampleRate: 100, Channels: [][]float32{make([]float32, 250)}}
	assert.Equal(t, 250, buf.Frames())
	assert.InDelta(t, 2.5, buf.Seconds(), 1e-9)
	assert.Len(t, buf.Channel(1), 250, "mono buffers answer for every channel")

	var empty *AudioBuffer
	assert.Zero(t, empty.Frames())
	assert.Zero(t, empty.Seconds())
}

func TestLightenDarken(t *testing.T) {
	base := MustHex("#12B31D")

	assert.Equal(t, color.RGBA{R: 0x22, G: 0xC3, B: 0x2D, A: 0xFF}, LightenDarken(base, 0))
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, LightenDarken(base, 255))
	assert.Equal(t, color.RGBA{A: 0xFF}, LightenDarken(base, -300))
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#fff")
	require.NoError(t, err)
	assert.Equal(t, ColorWhite, c)

	c, err = ParseHex("56D45B")
	require.NoError(t, err)
	assert.Equal(t, ColorPrimary, c)
	assert.Equal(t, "#56d45b", Hex(c))

	_, err = ParseHex("#12345")
	assert.Error(t, err)
}

func TestLinearGradient(t *testing.T) {
	g := LinearGradient{X0: 0, Y0: 100, X1: 0, Y1: 0, Stops: EvenStops([]color.RGBA{ColorBlack, ColorWhite})}

	assert.Equal(t, ColorBlack, g.ColorAt(5, 100))
	assert.Equal(t, ColorWhite, g.ColorAt(5, 0))
	assert.Equal(t, Gray(128), g.ColorAt(5, 50))
	assert.Equal(t, ColorBlack, g.ColorAt(5, 500), "clamped before the first stop")
}

func TestRadialGradient(t *testing.T) {
	g := RadialGradient{CX: 10, CY: 10, R0: 0, R1: 10, Stops: EvenStops([]color.RGBA{ColorWhite, ColorBlack})}

	assert.Equal(t, ColorWhite, g.ColorAt(10, 10))
	assert.Equal(t, ColorBlack, g.ColorAt(30, 10))
}

func TestPathFlatten(t *testing.T) {
	p := NewPath().Rect(0, 0, 10, 5)
	subs := p.Flatten()
	require.Len(t, subs, 1)
	assert.True(t, subs[0].Closed)
	assert.Len(t, subs[0].Points, 4)

	arc := NewPath().Arc(0, 0, 10, 0, 3.14159)
	subs = arc.Flatten()
	require.Len(t, subs, 1)
	first := subs[0].Points[0]
	assert.InDelta(t, 10, first.X, 1e-9)
	assert.InDelta(t, 0, first.Y, 1e-9)

	assert.Empty(t, NewPath().Flatten())
}

func TestConfigurationErrorUnwrap(t *testing.T) {
	err := NewConfigurationError("FFTSize", 1000, ErrInvalidFFTSize)

	assert.True(t, errors.Is(err, ErrInvalidFFTSize))
	assert.Contains(t, err.Error(), "FFTSize")
	assert.Contains(t, err.Error(), "1000")

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(error(err), &cfgErr))
}

func TestDecodeError(t *testing.T) {
	err := NewDecodeError("decode", "song.mp3", ErrUnsupportedFormat)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "decode decode failed for 'song.mp3': unsupported audio format", err.Error())
}
