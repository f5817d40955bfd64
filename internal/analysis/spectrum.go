// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"insync/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// CompressionGain is C in y = log10(1 + C*|x|). It keeps loud transients from
// dominating the flux while quiet passages still register.
const CompressionGain = 1000.0

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions. Rectangular leaves samples untouched.
const (
	Rectangular WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// String returns the config name of the window.
func (w WindowFunc) String() string {
	switch w {
	case Rectangular:
		return "rectangular"
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns Rectangular and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "", "rectangular", "none":
		return Rectangular, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Rectangular, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// Pre-allocated buffers for FFT calculations.
type spectrumWorkspace struct {
	input  []float64    // Windowed, zero-padded input signal.
	coeffs []complex128 // FFT complex results.
	window []float64    // Pre-calculated window coefficients, nil for Rectangular.
}

// SpectralAnalyzer turns a capture buffer into a log-compressed magnitude
// spectrum of size/2+1 bins. Bins are treated as opaque dimensions by the
// novelty curve; GetFrequencyForBin exists for telemetry only.
//
// A SpectralAnalyzer is not safe for concurrent use; the game loop owns it.
type SpectralAnalyzer struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64
	workspace  spectrumWorkspace
}

var _ Analyzer = (*SpectralAnalyzer)(nil)

// NewSpectralAnalyzer creates an analyzer for size-point transforms. size
// must be a power of two; sampleRate is only used to label bins.
func NewSpectralAnalyzer(size int, sampleRate float64, windowType WindowFunc) (*SpectralAnalyzer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	if sampleRate < 0 {
		return nil, fmt.Errorf("sample rate must not be negative, got %f", sampleRate)
	}

	var coeffs []float64
	if windowType != Rectangular {
		coeffs = make([]float64, size)
		if err := applyWindow(coeffs, windowType); err != nil {
			return nil, err
		}
	}

	return &SpectralAnalyzer{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		workspace: spectrumWorkspace{
			input:  make([]float64, size),
			coeffs: make([]complex128, bitint.SpectrumBins(size)),
			window: coeffs,
		},
	}, nil
}

// Analyze returns the compressed spectrum of samples. Shorter buffers are
// zero-padded, longer ones truncated. The returned slice is newly allocated
// and owned by the caller.
func (a *SpectralAnalyzer) Analyze(samples []float32) []float64 {
	spectrum := make([]float64, len(a.workspace.coeffs))
	a.AnalyzeInto(spectrum, samples)
	return spectrum
}

// AnalyzeInto writes the compressed spectrum of samples into dst, which must
// hold Bins() values. It does not allocate.
func (a *SpectralAnalyzer) AnalyzeInto(dst []float64, samples []float32) {
	ws := &a.workspace
	n := min(len(samples), a.size)
	for i := range n {
		ws.input[i] = float64(samples[i])
	}
	clear(ws.input[n:])
	if ws.window != nil {
		for i := range ws.input {
			ws.input[i] *= ws.window[i]
		}
	}

	a.fft.Coefficients(ws.coeffs, ws.input)

	for i, c := range ws.coeffs {
		dst[i] = Compress(cmplx.Abs(c))
	}
}

// Compress applies the logarithmic compression to one magnitude.
func Compress(magnitude float64) float64 {
	return math.Log10(1 + CompressionGain*magnitude)
}

// Bins returns the number of spectrum values produced per buffer.
func (a *SpectralAnalyzer) Bins() int { return len(a.workspace.coeffs) }

// Size returns the transform length.
func (a *SpectralAnalyzer) Size() int { return a.size }

// GetFrequencyForBin returns the center frequency (Hz) for a bin index, or 0
// when the index is out of range or no sample rate is known.
func (a *SpectralAnalyzer) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(a.workspace.coeffs) {
		return 0.0
	}
	return a.fft.Freq(binIndex) * a.sampleRate
}

// applyWindow fills coeffs with the selected window function.
func applyWindow(coeffs []float64, windowType WindowFunc) error {
	// The gonum window functions scale the slice in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		return fmt.Errorf("unsupported window function %v", windowType)
	}
	return nil
}
