// SPDX-License-Identifier: MIT
package analysis

// Peak is an onset reported by the PeakDetector.
type Peak struct {
	Frame uint64  // Detector call count at which the peak was reported.
	Value float64 // Normalised novelty of the frame.
}

// PeakDetector reports a peak whenever the newest normalised novelty value is
// above zero, i.e. the frame cleared the curve threshold. It does not look for
// local maxima, so one onset spanning several frames reports several peaks.
//
// With minInterval > 0, a peak within minInterval frames of the previously
// reported one is suppressed instead.
type PeakDetector struct {
	minInterval uint64
	frame       uint64
	lastFrame   uint64
	reported    bool
	suppressed  uint64
}

// NewPeakDetector creates a detector. minInterval <= 0 disables suppression.
func NewPeakDetector(minInterval int) *PeakDetector {
	d := &PeakDetector{}
	if minInterval > 0 {
		d.minInterval = uint64(minInterval)
	}
	return d
}

// Detect inspects h once per update and records reported peaks in
// h.LastPeak. It reports nothing while h is warming up.
func (d *PeakDetector) Detect(h *History) (Peak, bool) {
	d.frame++

	value := h.Latest()
	if !h.Ready() || value <= 0 {
		return Peak{}, false
	}

	if d.reported && d.minInterval > 0 && d.frame-d.lastFrame <= d.minInterval {
		d.suppressed++
		return Peak{}, false
	}

	d.reported = true
	d.lastFrame = d.frame
	h.LastPeak = value
	return Peak{Frame: d.frame, Value: value}, true
}

// Suppressed returns how many peaks were dropped by the minimum interval.
func (d *PeakDetector) Suppressed() uint64 { return d.suppressed }
