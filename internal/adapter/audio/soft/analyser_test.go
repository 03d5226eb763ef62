package soft

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
)

func sine(freq, amplitude float64) beep.Streamer {
	var n int
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amplitude * math.Sin(2*math.Pi*freq*float64(n)/DefaultSampleRate)
			samples[i] = [2]float64{v, v}
			n++
		}
		return len(samples), true
	})
}

func analyserFor(t *testing.T, s beep.Streamer) (*Context, *Analyser) {
	t.Helper()
	c := NewContext()
	src, err := c.CreateMediaElementSource(playingElement(t, s))
	require.NoError(t, err)
	node, err := c.CreateAnalyser()
	require.NoError(t, err)
	require.NoError(t, src.Connect(node, 0, 0))
	require.NoError(t, node.Connect(c.Destination(), 0, 0))
	return c, node.(*Analyser)
}

func TestAnalyserDefaults(t *testing.T) {
	_, a := analyserFor(t, beep.Silence(-1))

	assert.Equal(t, DefaultAnalyserFFTSize, a.FFTSize())
	assert.Equal(t, DefaultAnalyserFFTSize/2, a.FrequencyBinCount())
}

func TestAnalyserSinePeak(t *testing.T) {
	c, a := analyserFor(t, sine(1000, 0.5))
	c.Render(2 * DefaultAnalyserFFTSize)

	freq := make([]byte, a.FrequencyBinCount())
	a.GetByteFrequencyData(freq)

	peak := 0
	for i, v := range freq {
		if v > freq[peak] {
			peak = i
		}
	}
	expected := int(math.Round(1000 * DefaultAnalyserFFTSize / DefaultSampleRate))
	assert.InDelta(t, expected, peak, 1)
	assert.Greater(t, freq[peak], byte(200))
	assert.Less(t, freq[500], byte(50))
}

func TestAnalyserSilence(t *testing.T) {
	c, a := analyserFor(t, beep.Silence(-1))
	c.Render(DefaultAnalyserFFTSize)

	freq := make([]byte, a.FrequencyBinCount())
	a.GetByteFrequencyData(freq)
	for i, v := range freq {
		require.Zerof(t, v, "bin %d", i)
	}

	wave := make([]byte, a.FFTSize())
	a.GetByteTimeDomainData(wave)
	for i, v := range wave {
		require.Equalf(t, byte(128), v, "sample %d", i)
	}
}

func TestAnalyserSmoothingWithinQuantum(t *testing.T) {
	c, a := analyserFor(t, sine(2000, 0.5))
	c.Render(DefaultAnalyserFFTSize)

	first := make([]byte, a.FrequencyBinCount())
	second := make([]byte, a.FrequencyBinCount())
	a.GetByteFrequencyData(first)
	a.GetByteFrequencyData(second)

	assert.Equal(t, first, second, "reads within one quantum do not smooth twice")
}

func TestAnalyserSetFFTSize(t *testing.T) {
	_, a := analyserFor(t, beep.Silence(-1))

	require.NoError(t, a.SetFFTSize(512))
	assert.Equal(t, 256, a.FrequencyBinCount())

	for _, n := range []int{0, 16, 1000, 65536} {
		assert.ErrorIs(t, a.SetFFTSize(n), domain.ErrInvalidFFTSize, "size %d", n)
	}
	assert.Equal(t, 512, a.FFTSize())
}

func TestAnalyserOptions(t *testing.T) {
	_, a := analyserFor(t, beep.Silence(-1))

	assert.NoError(t, a.SetSmoothing(0))
	assert.ErrorIs(t, a.SetSmoothing(1.5), domain.ErrInvalidOption)
	assert.NoError(t, a.SetDecibelRange(-90, -10))
	assert.ErrorIs(t, a.SetDecibelRange(-10, -10), domain.ErrInvalidOption)
}

func TestBlackmanWindow(t *testing.T) {
	w := blackman(8)

	assert.InDelta(t, 0, w[0], 1e-12)
	assert.InDelta(t, 1, w[4], 1e-12)
	assert.InDelta(t, w[1], w[7], 1e-12)
}

func TestClampByte(t *testing.T) {
	assert.Equal(t, byte(0), clampByte(math.Inf(-1)))
	assert.Equal(t, byte(0), clampByte(math.NaN()))
	assert.Equal(t, byte(255), clampByte(300))
	assert.Equal(t, byte(127), clampByte(127.9))
}
