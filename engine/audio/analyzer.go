package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// MinFrequency is the lowest spectrum frequency kept, in Hz.
	MinFrequency = 10.0
	// MaxFrequency is the highest spectrum frequency kept, in Hz.
	MaxFrequency = 8000.0
)

// Analyzer keeps a fixed-size ring of the most recent samples and derives the waveform and the
// log-scaled spectrum from it. Not safe for concurrent use; each stream owns one.
type Analyzer struct {
	sampleRate int
	ring       []float64
	next       int

	fft      *fourier.FFT
	windowed []float64
	coeffs   []complex128
}

// NewAnalyzer creates an Analyzer over bufferSize samples, initially silent.
//
// Parameters:
//   - bufferSize: the ring length and FFT size (minimum 2)
//   - sampleRate: the stream sample rate in Hz
//
// Returns:
//   - *Analyzer: the analyzer
func NewAnalyzer(bufferSize, sampleRate int) *Analyzer {
	if bufferSize < 2 {
		bufferSize = 2
	}
	return &Analyzer{
		sampleRate: sampleRate,
		ring:       make([]float64, bufferSize),
		fft:        fourier.NewFFT(bufferSize),
		windowed:   make([]float64, bufferSize),
	}
}

// SampleRate returns the sample rate the analyzer was created for.
func (a *Analyzer) SampleRate() int {
	return a.sampleRate
}

// Push appends samples to the ring, overwriting the oldest.
func (a *Analyzer) Push(samples []float32) {
	for _, s := range samples {
		a.ring[a.next] = float64(s)
		a.next = (a.next + 1) % len(a.ring)
	}
}

// Wave returns the ring contents from oldest to newest as a new slice.
func (a *Analyzer) Wave() []float32 {
	out := make([]float32, len(a.ring))
	for i := range out {
		out[i] = float32(a.ring[(a.next+i)%len(a.ring)])
	}
	return out
}

// Spectrum applies a Hamming window to the ring, runs a real FFT and returns the scaled magnitude
// of every bin whose frequency lies in [MinFrequency, MaxFrequency], as a new slice.
func (a *Analyzer) Spectrum() []float32 {
	n := len(a.ring)
	for i := range a.windowed {
		a.windowed[i] = a.ring[(a.next+i)%n]
	}
	window.Hamming(a.windowed)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	out := make([]float32, 0, len(a.coeffs))
	for i, c := range a.coeffs {
		hz := a.fft.Freq(i) * float64(a.sampleRate)
		if hz < MinFrequency || hz > MaxFrequency {
			continue
		}
		out = append(out, Scale(math.Hypot(real(c), imag(c))))
	}
	return out
}

// Scale maps an FFT magnitude to the value written into the spectrum texture: 0 for silence,
// otherwise log10(magnitude) - 6.
func Scale(magnitude float64) float32 {
	if magnitude == 0 {
		return 0
	}
	return float32(math.Log10(magnitude) - 6)
}

// BinCount returns how many spectrum values an Analyzer with these parameters produces.
//
// Parameters:
//   - bufferSize: the FFT size
//   - sampleRate: the sample rate in Hz
//
// Returns:
//   - int: the number of bins in [MinFrequency, MaxFrequency]
func BinCount(bufferSize, sampleRate int) int {
	count := 0
	for i := 0; i <= bufferSize/2; i++ {
		hz := 1 / float64(bufferSize) * float64(i) * float64(sampleRate)
		if hz >= MinFrequency && hz <= MaxFrequency {
			count++
		}
	}
	return count
}
