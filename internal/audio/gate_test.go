// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"testing"
)

func formatFloat(f float64) string { return fmt.Sprintf("%.3f", f) }

func TestGateEnable(t *testing.T) {
	engine := &Engine{}

	engine.EnableGate()
	engine.EnableGate() // Multiple calls should be idempotent
	if !engine.gateEnabled {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	engine.DisableGate()
	if engine.gateEnabled {
		t.Error("Gate should be disabled after DisableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},
		{0.5, 0.5},
		{1.0, 1.0},
		{1.5, 1.0}, // Above max
	}

	engine := &Engine{}

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			engine.SetGateThreshold(tt.input)
			if got := engine.GetGateThreshold(); math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateDetection(t *testing.T) {
	quiet := []float32{0.001, -0.002, 0.0015}
	loud := []float32{0.2, -0.8, 0.5}

	tests := []struct {
		desc      string
		buffer    []float32
		threshold float64
		gated     bool
	}{
		{"Quiet signal/Low threshold", quiet, 0.0001, false},
		{"Quiet signal/Mid threshold", quiet, 0.1, true},
		{"Loud signal/Mid threshold", loud, 0.1, false},
		{"Loud signal/Threshold at peak", loud, 0.8, true},
		{"Loud signal/Closed", loud, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := &Engine{}
			engine.SetGateThreshold(tt.threshold)
			buffer := append([]float32(nil), tt.buffer...)

			if got := engine.applyGate(buffer); got != tt.gated {
				t.Fatalf("applyGate() = %v, want %v", got, tt.gated)
			}
			for i, v := range buffer {
				want := tt.buffer[i]
				if tt.gated {
					want = 0
				}
				if v != want {
					t.Errorf("sample %d = %f, want %f", i, v, want)
				}
			}
		})
	}
}

func TestGateInCallback(t *testing.T) {
	e, out := newTestEngine(t, 1, 4)
	e.SetGateThreshold(0.1)
	e.EnableGate()

	in := make([]float32, testFrameSize)
	in[3] = 0.05
	e.processInputStream(in)

	got, _ := out.TryTake()
	if got[3] != 0 {
		t.Errorf("gated sample = %f, want 0", got[3])
	}
	if e.Gated() != 1 {
		t.Errorf("Gated() = %d, want 1", e.Gated())
	}
}

func BenchmarkGate(b *testing.B) {
	engine := &Engine{}
	engine.SetGateThreshold(0.5)
	buffer := make([]float32, 1024)
	for i := range buffer {
		buffer[i] = float32(i%100) / 100
	}
	b.ReportAllocs()
	for b.Loop() {
		_ = peakAmplitude(buffer) > engine.gateThreshold
	}
}
