package analysis

import (
	"fmt"
	"sync"
)

// Telemetry is the scalar part of a Snapshot.
type Telemetry struct {
	Frame      uint64
	Novelty    float64 // Newest raw flux value.
	Normalised float64 // Newest normalised value, 0 during warm-up.
	Peak       bool    // Whether the newest frame was reported as a peak.
	Bins       int     // Number of spectrum values copied by Load.
}

// Snapshot publishes the newest curve state from the game loop to readers on
// other goroutines (the UDP publisher). The curve itself is never shared.
type Snapshot struct {
	mu        sync.RWMutex
	telemetry Telemetry
	spectrum  []float64
}

// NewSnapshot creates a snapshot for spectra of bins values.
func NewSnapshot(bins int) *Snapshot {
	return &Snapshot{spectrum: make([]float64, bins)}
}

// Store copies the newest state of c. It does not allocate.
func (s *Snapshot) Store(c *NoveltyCurve, peaked bool) {
	h := c.History()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.telemetry.Frame = c.Frames()
	s.telemetry.Peak = peaked
	s.telemetry.Normalised = h.Latest()
	s.telemetry.Novelty = 0
	if len(h.Novelty) > 0 {
		s.telemetry.Novelty = h.Novelty[0]
	}
	s.telemetry.Bins = 0
	if len(h.Spectrum) > 0 {
		s.telemetry.Bins = copy(s.spectrum, h.Spectrum[0])
	}
}

// Load copies the newest spectrum into dst and returns the scalar state.
// dst must be at least as long as the snapshot's spectrum.
func (s *Snapshot) Load(dst []float64) (Telemetry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(dst) < len(s.spectrum) {
		return Telemetry{}, fmt.Errorf("destination slice length %d is shorter than required length %d", len(dst), len(s.spectrum))
	}
	copy(dst, s.spectrum[:s.telemetry.Bins])
	return s.telemetry, nil
}

// Bins returns the spectrum length the snapshot was created for.
func (s *Snapshot) Bins() int { return len(s.spectrum) }
