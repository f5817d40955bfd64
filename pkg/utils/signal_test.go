// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"testing"
)

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}
	for _, v := range []any{1, "two", []float64{3}} {
		if err := mt.Send(v); err != nil {
			t.Fatalf("MockTransport.Send() error = %v", err)
		}
	}
	if got := len(mt.Messages()); got != 3 {
		t.Errorf("Messages() length = %d, want 3", got)
	}
	if err := mt.Close(); err != nil || !mt.Closed {
		t.Errorf("Close() = %v, Closed = %v", err, mt.Closed)
	}
}

func TestGenerateClick(t *testing.T) {
	click := GenerateClick(8, 0.5)
	if click[0] != 0.5 {
		t.Errorf("click[0] = %f, want 0.5", click[0])
	}
	for i, v := range click[1:] {
		if v != 0 {
			t.Errorf("click[%d] = %f, want 0", i+1, v)
		}
	}
	if len(GenerateClick(0, 1)) != 0 {
		t.Error("zero-size click should be empty")
	}
}

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		frequency  float64
	}{
		{"A4 Note", 1024, 44100, 440.0},
		{"Low Sample Rate", 1024, 8000, 440.0},
		{"Bin aligned", 256, 256, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSineWave(tt.size, tt.sampleRate, tt.frequency, 0.8)
			if len(result) != tt.size {
				t.Fatalf("buffer size = %d, want %d", len(result), tt.size)
			}

			crossCount := 0
			for i := 1; i < tt.size; i++ {
				if (result[i-1] < 0 && result[i] >= 0) || (result[i-1] >= 0 && result[i] < 0) {
					crossCount++
				}
			}
			expected := float64(tt.size) * 2 * tt.frequency / tt.sampleRate
			if math.Abs(float64(crossCount)-expected) > 0.2*expected+1 {
				t.Errorf("zero crossings = %d, expected approximately %.1f", crossCount, expected)
			}
			for _, v := range result {
				if v > 0.8 || v < -0.8 {
					t.Fatalf("sample %f exceeds amplitude", v)
				}
			}
		})
	}
}

func TestGenerateNoiseRepeatable(t *testing.T) {
	a := GenerateNoise(64, 0.5, 7)
	b := GenerateNoise(64, 0.5, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise differs at %d for the same seed", i)
		}
		if a[i] < -0.5 || a[i] >= 0.5 {
			t.Fatalf("noise sample %f out of range", a[i])
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	mags := make([]float64, 64)
	for i := range mags {
		mags[i] = math.Exp(-0.1 * math.Pow(float64(i-16), 2))
	}

	tests := []struct {
		name     string
		mags     []float64
		start    int
		end      int
		expected int
	}{
		{"Full Range", mags, 0, 63, 16},
		{"Negative Start", mags, -10, 63, 16},
		{"Out of Range End", mags, 0, 128, 16},
		{"Excludes Peak", mags, 20, 63, 20},
		{"Empty Slice", []float64{}, 0, 10, 0},
		{"Single Value", []float64{1.0}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(tt.mags, tt.start, tt.end); got != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", got, tt.expected)
			}
		})
	}
}
