// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"insync/pkg/utils"
)

const (
	testSize       = 256
	testSampleRate = 256.0
)

func newTestAnalyzer(t testing.TB) *SpectralAnalyzer {
	t.Helper()
	a, err := NewSpectralAnalyzer(testSize, testSampleRate, Rectangular)
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer() error = %v", err)
	}
	return a
}

func TestNewSpectralAnalyzerSizes(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Power of two", 256, false},
		{"Small power of two", 16, false},
		{"Not power of two", 300, true},
		{"Zero", 0, true},
		{"Negative", -256, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewSpectralAnalyzer(tt.size, 44100, Hann)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSpectralAnalyzer(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err == nil && a.Bins() != tt.size/2+1 {
				t.Errorf("Bins() = %d, want %d", a.Bins(), tt.size/2+1)
			}
		})
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"", Rectangular, false},
		{"none", Rectangular, false},
		{"Rectangular", Rectangular, false},
		{"HANN", Hann, false},
		{"hanning", Hann, false},
		{"blackmannuttall", BlackmanNuttall, false},
		{"triangle", Rectangular, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindowFunc(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for w := Rectangular; w <= Nuttall; w++ {
		if got, err := ParseWindowFunc(w.String()); err != nil || got != w {
			t.Errorf("ParseWindowFunc(%q) = %v, %v", w.String(), got, err)
		}
	}
}

func TestAnalyzeSilence(t *testing.T) {
	a := newTestAnalyzer(t)
	for i, v := range a.Analyze(utils.GenerateSilence(testSize)) {
		if v != 0 {
			t.Fatalf("bin %d = %f, want 0 for silence", i, v)
		}
	}
}

func TestAnalyzeClickIsFlat(t *testing.T) {
	a := newTestAnalyzer(t)
	want := math.Log10(1 + CompressionGain)
	spectrum := a.Analyze(utils.GenerateClick(testSize, 1))
	if len(spectrum) != testSize/2+1 {
		t.Fatalf("len(spectrum) = %d, want %d", len(spectrum), testSize/2+1)
	}
	for i, v := range spectrum {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("bin %d = %f, want %f", i, v, want)
		}
	}
}

func TestAnalyzeSinePeak(t *testing.T) {
	a := newTestAnalyzer(t)
	// Bin width is sampleRate/size = 1Hz.
	spectrum := a.Analyze(utils.GenerateSineWave(testSize, testSampleRate, 8, 0.8))
	if got := utils.FindPeakBin(spectrum, 0, len(spectrum)-1); got != 8 {
		t.Errorf("peak bin = %d, want 8", got)
	}
	if got := a.GetFrequencyForBin(8); got != 8 {
		t.Errorf("GetFrequencyForBin(8) = %f, want 8", got)
	}
	if got := a.GetFrequencyForBin(a.Bins()); got != 0 {
		t.Errorf("GetFrequencyForBin(out of range) = %f, want 0", got)
	}
}

func TestAnalyzePadsAndTruncates(t *testing.T) {
	a := newTestAnalyzer(t)
	short := a.Analyze(utils.GenerateClick(testSize/2, 1))
	long := a.Analyze(append(utils.GenerateClick(testSize, 1), utils.GenerateNoise(64, 1, 3)...))
	for i := range short {
		if math.Abs(short[i]-long[i]) > 1e-9 {
			t.Fatalf("bin %d differs: padded %f, truncated %f", i, short[i], long[i])
		}
	}
}

func TestAnalyzeIntoNoAllocs(t *testing.T) {
	a := newTestAnalyzer(t)
	samples := utils.GenerateComplexWave(testSize, 44100)
	dst := make([]float64, a.Bins())
	allocs := testing.AllocsPerRun(100, func() {
		a.AnalyzeInto(dst, samples)
	})
	if allocs > 0 {
		t.Errorf("AnalyzeInto allocated %.0f times per run", allocs)
	}
}

func TestCompressMonotonic(t *testing.T) {
	if Compress(0) != 0 {
		t.Errorf("Compress(0) = %f, want 0", Compress(0))
	}
	prev := 0.0
	for _, m := range []float64{1e-6, 1e-3, 0.5, 1, 10, 1000} {
		got := Compress(m)
		if got <= prev {
			t.Errorf("Compress(%g) = %f not above %f", m, got, prev)
		}
		prev = got
	}
}

func BenchmarkAnalyzeInto(b *testing.B) {
	a := newTestAnalyzer(b)
	samples := utils.GenerateComplexWave(testSize, 44100)
	dst := make([]float64, a.Bins())
	for b.Loop() {
		a.AnalyzeInto(dst, samples)
	}
}
