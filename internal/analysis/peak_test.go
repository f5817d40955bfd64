package analysis

import "testing"

// historyWith returns a ready History whose newest normalised value is v.
func historyWith(v float64) *History {
	return &History{Normalised: []float64{v, 0, 0}}
}

func TestPeakDetectorWarmUp(t *testing.T) {
	d := NewPeakDetector(0)
	if _, ok := d.Detect(&History{}); ok {
		t.Error("empty history should not report a peak")
	}
}

func TestPeakDetectorLiteral(t *testing.T) {
	d := NewPeakDetector(0)
	values := []float64{0, 12, 15, 0, 11}
	want := []bool{false, true, true, false, true}

	for i, v := range values {
		h := historyWith(v)
		peak, ok := d.Detect(h)
		if ok != want[i] {
			t.Fatalf("frame %d value %f: ok = %v, want %v", i, v, ok, want[i])
		}
		if ok {
			if peak.Value != v || h.LastPeak != v {
				t.Errorf("frame %d: peak %f, LastPeak %f, want %f", i, peak.Value, h.LastPeak, v)
			}
			if peak.Frame != uint64(i+1) {
				t.Errorf("frame %d: peak.Frame = %d", i, peak.Frame)
			}
		}
	}
	if d.Suppressed() != 0 {
		t.Errorf("Suppressed() = %d, want 0", d.Suppressed())
	}
}

func TestPeakDetectorMinInterval(t *testing.T) {
	tests := []struct {
		name        string
		minInterval int
		values      []float64
		want        []bool
	}{
		{
			name:        "Consecutive frames collapse",
			minInterval: 2,
			values:      []float64{20, 20, 20, 20},
			want:        []bool{true, false, false, true},
		},
		{
			name:        "Gap longer than interval",
			minInterval: 1,
			values:      []float64{20, 0, 20},
			want:        []bool{true, false, true},
		},
		{
			name:        "Negative disables",
			minInterval: -5,
			values:      []float64{20, 20},
			want:        []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewPeakDetector(tt.minInterval)
			suppressed := 0
			for i, v := range tt.values {
				_, ok := d.Detect(historyWith(v))
				if ok != tt.want[i] {
					t.Fatalf("frame %d: ok = %v, want %v", i, ok, tt.want[i])
				}
				if v > 0 && !ok {
					suppressed++
				}
			}
			if d.Suppressed() != uint64(suppressed) {
				t.Errorf("Suppressed() = %d, want %d", d.Suppressed(), suppressed)
			}
		})
	}
}
