package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/vk/musicscripts/internal/labeled"
)

// Power is a Blackman windowed power spectrum of evenly sampled series.
type Power struct {
	n      int
	dt     float64
	norm   float64
	fft    *fourier.FFT
	window []float64
}

// NewPower prepares the spectrum of series sampled at times. Successive
// sampling intervals may deviate from their mean by at most tol, relative.
func NewPower(times []float64, tol float64) (*Power, error) {
	n := len(times)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrSpacing, n)
	}
	dt := (times[n-1] - times[0]) / float64(n-1)
	if dt <= 0 {
		return nil, fmt.Errorf("%w: times are not increasing", ErrSpacing)
	}
	for i := 1; i < n; i++ {
		if d := times[i] - times[i-1]; math.Abs(d-dt) > tol*dt {
			return nil, fmt.Errorf("%w: interval %g at sample %d, mean %g", ErrSpacing, d, i, dt)
		}
	}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	w := window.Blackman(ones)
	norm := 0.0
	for _, x := range w {
		norm += x * x
	}
	return &Power{n: n, dt: dt, norm: norm, fft: fourier.NewFFT(n), window: w}, nil
}

// Freqs returns the frequencies of the spectrum, from 0 to the Nyquist
// frequency.
func (p *Power) Freqs() []float64 {
	out := make([]float64, p.n/2+1)
	for i := range out {
		out[i] = p.fft.Freq(i) / p.dt
	}
	return out
}

// Spectrum returns the power of v at every frequency, normalized so that
// its sum times the frequency step approximates the mean square of the
// windowed signal.
func (p *Power) Spectrum(v []float64) []float64 {
	if len(v) != p.n {
		panic(fmt.Sprintf("spectrum: %d samples for a %d points transform", len(v), p.n))
	}
	seq := make([]float64, p.n)
	for i, x := range v {
		seq[i] = x * p.window[i]
	}
	coeffs := p.fft.Coefficients(nil, seq)
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		out[i] = a * a * p.dt / p.norm
	}
	return out
}

// Transform replaces timeAxis of a by freqAxis.
func (p *Power) Transform(a labeled.Array, timeAxis, freqAxis string) (labeled.Array, error) {
	return labeled.MapAxis(a, timeAxis, labeled.Coord(freqAxis, p.Freqs()), p.Spectrum)
}
