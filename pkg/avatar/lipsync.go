package avatar

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Lip-sync tuning.
const (
	// LipSyncWindowSize is the FFT window, in samples. Power of two.
	LipSyncWindowSize = 512
	// LipSyncGain scales the compressed energy down so jaw motion
	// stays subtle instead of exaggerated.
	LipSyncGain = 0.45
)

// LipSyncAnalyzer derives a bounded mouth-openness value from the live
// audio signal: frequency-domain energy is averaged and mapped through
// a square-root compression curve. One analyzer per session.
type LipSyncAnalyzer struct {
	mu   sync.Mutex
	fft  *fourier.FFT
	buf  []float64
	gain float64
}

// NewLipSyncAnalyzer creates an analyzer with the default gain.
func NewLipSyncAnalyzer() *LipSyncAnalyzer {
	return &LipSyncAnalyzer{
		fft:  fourier.NewFFT(LipSyncWindowSize),
		buf:  make([]float64, LipSyncWindowSize),
		gain: LipSyncGain,
	}
}

// Analyze maps the sample window at the playhead to a mouth-openness
// value in [0,1]. An empty window (stopped or starved playback) yields
// zero, closing the mouth.
func (a *LipSyncAnalyzer) Analyze(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Right-align the window so the newest samples dominate; zero-pad
	// when fewer than a full window is available.
	for i := range a.buf {
		a.buf[i] = 0
	}
	n := len(samples)
	if n > LipSyncWindowSize {
		samples = samples[n-LipSyncWindowSize:]
		n = LipSyncWindowSize
	}
	copy(a.buf[LipSyncWindowSize-n:], samples)

	coeffs := a.fft.Coefficients(nil, a.buf)

	var sum float64
	for _, c := range coeffs {
		sum += cmplx.Abs(c)
	}
	avg := sum / float64(len(coeffs))

	// Square-root compression lifts quiet speech without letting loud
	// peaks slam the jaw fully open.
	v := math.Sqrt(avg) * a.gain
	if v > 1 {
		v = 1
	}
	return v
}
