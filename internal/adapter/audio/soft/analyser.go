package soft

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Analyser defaults.
const (
	DefaultAnalyserFFTSize = 2048
	DefaultSmoothing       = 0.8
	DefaultMinDecibels     = -100.0
	DefaultMaxDecibels     = -30.0
)

// Analyser passes its input through unchanged while recording a mono
// downmix. Frequency data is a Blackman windowed FFT of the most recent
// FFTSize samples, smoothed over time and mapped from decibels to bytes.
type Analyser struct {
	*node

	fftSize   int
	smoothing float64
	minDb     float64
	maxDb     float64

	// ring holds the last domain.MaxFFTSize downmixed samples
	ring []float32
	pos  int

	window   []float64
	smoothed []float64

	// analysedAt is the quantum of the last frequency analysis; repeated
	// reads within one quantum reuse it without smoothing again
	analysedAt uint64
	analysed   bool
}

func newAnalyser() *Analyser {
	a := &Analyser{
		smoothing: DefaultSmoothing,
		minDb:     DefaultMinDecibels,
		maxDb:     DefaultMaxDecibels,
		ring:      make([]float32, domain.MaxFFTSize),
	}
	a.resize(DefaultAnalyserFFTSize)
	return a
}

func (a *Analyser) resize(n int) {
	a.fftSize = n
	a.window = blackman(n)
	a.smoothed = make([]float64, n/2)
	a.analysed = false
}

// blackman returns the Blackman window of size n.
func blackman(n int) []float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

func (a *Analyser) process(in [][][]float32) [][][]float32 {
	src := in[0]
	scale := 1 / float32(len(src))
	for i := range RenderQuantum {
		var sum float32
		for _, ch := range src {
			sum += ch[i]
		}
		a.ring[a.pos] = sum * scale
		a.pos = (a.pos + 1) % len(a.ring)
	}
	return [][][]float32{src}
}

// FFTSize returns the analysis window size.
func (a *Analyser) FFTSize() int {
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()
	return a.fftSize
}

// SetFFTSize changes the window size and resets smoothing.
func (a *Analyser) SetFFTSize(n int) error {
	if !domain.ValidFFTSize(n) {
		return fmt.Errorf("set fft size %d: %w", n, domain.ErrInvalidFFTSize)
	}
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()
	a.resize(n)
	return nil
}

// FrequencyBinCount returns FFTSize()/2.
func (a *Analyser) FrequencyBinCount() int {
	return a.FFTSize() / 2
}

// SetSmoothing sets the time constant in [0, 1].
func (a *Analyser) SetSmoothing(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("smoothing %v out of range: %w", v, domain.ErrInvalidOption)
	}
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()
	a.smoothing = v
	return nil
}

// SetDecibelRange sets the range mapped onto byte frequency data.
func (a *Analyser) SetDecibelRange(minDb, maxDb float64) error {
	if minDb >= maxDb {
		return fmt.Errorf("decibel range [%v, %v]: %w", minDb, maxDb, domain.ErrInvalidOption)
	}
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()
	a.minDb, a.maxDb = minDb, maxDb
	return nil
}

// recent copies the last n samples in chronological order. Caller holds the lock.
func (a *Analyser) recent(n int) []float64 {
	out := make([]float64, n)
	start := (a.pos - n + len(a.ring)) % len(a.ring)
	for i := range n {
		out[i] = float64(a.ring[(start+i)%len(a.ring)])
	}
	return out
}

// analyse updates the smoothed magnitudes. Caller holds the lock.
func (a *Analyser) analyse() {
	if a.analysed && a.analysedAt == a.ctx.quantum {
		return
	}

	frame := a.recent(a.fftSize)
	for i := range frame {
		frame[i] *= a.window[i]
	}

	spectrum := fft.FFTReal(frame)
	n := float64(a.fftSize)
	for k := range a.smoothed {
		magnitude := cmplx.Abs(spectrum[k]) / n
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*magnitude
	}

	a.analysedAt = a.ctx.quantum
	a.analysed = true
}

// GetByteFrequencyData fills dst with magnitudes scaled from the decibel
// range onto [0, 255].
func (a *Analyser) GetByteFrequencyData(dst []byte) {
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()

	a.analyse()
	scale := 255 / (a.maxDb - a.minDb)
	for i := range min(len(dst), len(a.smoothed)) {
		db := 20 * math.Log10(a.smoothed[i])
		dst[i] = clampByte(scale * (db - a.minDb))
	}
}

// GetFloatFrequencyData fills dst with magnitudes in decibels.
func (a *Analyser) GetFloatFrequencyData(dst []float32) {
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()

	a.analyse()
	for i := range min(len(dst), len(a.smoothed)) {
		dst[i] = float32(20 * math.Log10(a.smoothed[i]))
	}
}

// GetByteTimeDomainData fills dst with the latest samples, 128 being silence.
func (a *Analyser) GetByteTimeDomainData(dst []byte) {
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()

	samples := a.recent(min(len(dst), a.fftSize))
	for i, v := range samples {
		dst[i] = clampByte(128 * (1 + v))
	}
}

// GetFloatTimeDomainData fills dst with the latest samples.
func (a *Analyser) GetFloatTimeDomainData(dst []float32) {
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()

	samples := a.recent(min(len(dst), a.fftSize))
	for i, v := range samples {
		dst[i] = float32(v)
	}
}

// clampByte truncates v into [0, 255]; NaN and -Inf map to 0.
func clampByte(v float64) byte {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

var _ ports.AnalyserNode = (*Analyser)(nil)
