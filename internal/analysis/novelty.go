// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// History is the rolling state of the novelty curve. All sequences are
// ordered newest first.
//
//   - Spectrum holds at most the current and previous compressed spectra.
//   - Novelty holds at most window flux values; the oldest is evicted on
//     every update once the window is full.
//   - Normalised is rebuilt from Novelty on each update after warm-up and
//     is empty until then.
//   - LastPeak is the value of the most recent reported peak.
type History struct {
	Spectrum   [][]float64
	Novelty    []float64
	Normalised []float64
	LastPeak   float64
}

// Ready reports whether the warm-up window has been filled.
func (h *History) Ready() bool { return len(h.Normalised) > 0 }

// Latest returns the newest normalised value, 0 during warm-up.
func (h *History) Latest() float64 {
	if len(h.Normalised) == 0 {
		return 0
	}
	return h.Normalised[0]
}

// NoveltyCurve computes half-wave rectified spectral flux per buffer and
// normalises it against the mean of the trailing window. It owns its History
// and must only be driven from one goroutine.
type NoveltyCurve struct {
	analyzer  Analyzer
	window    int
	threshold float64
	frames    uint64
	history   History
}

// NewNoveltyCurve creates a curve with a baseline of window points. Values
// less than threshold above the baseline are clamped to zero.
func NewNoveltyCurve(analyzer Analyzer, window int, threshold float64) (*NoveltyCurve, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("novelty curve requires an analyzer")
	}
	if window < 2 {
		return nil, fmt.Errorf("novelty window must be at least 2, got %d", window)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("novelty threshold must not be negative, got %f", threshold)
	}
	return &NoveltyCurve{
		analyzer:  analyzer,
		window:    window,
		threshold: threshold,
		history: History{
			Spectrum:   make([][]float64, 0, 2),
			Novelty:    make([]float64, 0, window),
			Normalised: make([]float64, 0, window),
		},
	}, nil
}

// Update analyses one capture buffer and advances the curve.
func (c *NoveltyCurve) Update(samples []float32) {
	c.UpdateSpectrum(c.analyzer.Analyze(samples))
}

// UpdateSpectrum advances the curve with an already computed spectrum. The
// curve keeps a reference to spectrum until the next update.
func (c *NoveltyCurve) UpdateSpectrum(spectrum []float64) {
	c.frames++
	h := &c.history

	h.Spectrum = pushFront(h.Spectrum, spectrum)
	if len(h.Spectrum) < 2 {
		return
	}

	point := Flux(h.Spectrum[0], h.Spectrum[1])
	h.Spectrum = h.Spectrum[:1]

	h.Novelty = pushFront(h.Novelty, point)
	if len(h.Novelty) < c.window {
		return
	}

	average := floats.Sum(h.Novelty) / float64(len(h.Novelty))
	h.Normalised = h.Normalised[:0]
	for _, p := range h.Novelty {
		candidate := p - average
		if candidate < c.threshold {
			candidate = 0
		}
		h.Normalised = append(h.Normalised, candidate)
	}

	h.Novelty = h.Novelty[:len(h.Novelty)-1]
}

// History returns the curve state. Callers must not modify it.
func (c *NoveltyCurve) History() *History { return &c.history }

// Frames returns the number of buffers consumed.
func (c *NoveltyCurve) Frames() uint64 { return c.frames }

// Window returns the baseline length.
func (c *NoveltyCurve) Window() int { return c.window }

// Threshold returns the clamp distance above the baseline.
func (c *NoveltyCurve) Threshold() float64 { return c.threshold }

// Flux sums the positive per-bin increases from previous to newest.
// Decreases in energy do not indicate an onset and are ignored.
func Flux(newest, previous []float64) float64 {
	var sum float64
	for i := range min(len(newest), len(previous)) {
		if d := newest[i] - previous[i]; d > 0 {
			sum += d
		}
	}
	return sum
}

func pushFront[T any](s []T, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[1:], s)
	s[0] = v
	return s
}
