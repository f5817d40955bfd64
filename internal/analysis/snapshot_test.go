package analysis

import (
	"sync"
	"testing"

	"insync/pkg/utils"
)

func TestSnapshotStoreLoad(t *testing.T) {
	c := newTestCurve(t)
	s := NewSnapshot(c.analyzer.(*SpectralAnalyzer).Bins())

	c.Update(utils.GenerateClick(testSize, 1))
	c.Update(utils.GenerateClick(testSize, 1))
	s.Store(c, true)

	dst := make([]float64, s.Bins())
	tel, err := s.Load(dst)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tel.Frame != 2 || !tel.Peak || tel.Bins != s.Bins() {
		t.Errorf("Load() = %+v", tel)
	}
	if tel.Normalised != 0 {
		t.Errorf("Normalised = %f during warm-up, want 0", tel.Normalised)
	}
	if dst[0] == 0 {
		t.Error("spectrum was not copied")
	}

	if _, err := s.Load(make([]float64, 3)); err == nil {
		t.Error("expected error for short destination")
	}
}

func TestSnapshotConcurrentReaders(t *testing.T) {
	c := newTestCurve(t)
	s := NewSnapshot(testSize/2 + 1)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dst := make([]float64, s.Bins())
			for range 100 {
				if _, err := s.Load(dst); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := range 100 {
		c.Update(utils.GenerateNoise(testSize, 0.5, uint64(i)))
		s.Store(c, false)
	}
	wg.Wait()
}
