// SPDX-License-Identifier: MIT
// Package replay runs a recorded WAV file through the onset pipeline offline,
// buffer by buffer, exactly as the game loop would have seen it live.
package replay

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"insync/internal/analysis"
	"insync/internal/spawn"

	"github.com/go-audio/wav"
)

// Options mirrors the live analysis settings.
type Options struct {
	FramesPerBuffer int
	Window          analysis.WindowFunc
	NoveltyWindow   int
	Threshold       float64
	MinPeakInterval int
	Seed            uint64 // Seeds the spawn positions reported per onset.
}

// Onset is one detected peak.
type Onset struct {
	Buffer   int            // Index of the buffer that fired.
	Time     time.Duration  // Offset of that buffer from the start of the file.
	Value    float64        // Normalised novelty.
	Position spawn.Position // Where the peak spawn would have appeared.
}

// Result summarises a replay.
type Result struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Buffers    int
	Duration   time.Duration
	Onsets     []Onset
}

// AnalyzeFile opens path and runs Analyze on it.
func AnalyzeFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := Analyze(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Analyze decodes a PCM WAV stream and feeds its first channel through the
// spectral analyzer, novelty curve and peak detector.
func Analyze(r io.ReadSeeker, opts Options) (*Result, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("WAV file has no usable format")
	}

	samples := firstChannel(buf.Data, buf.Format.NumChannels, int(d.BitDepth))

	analyzer, err := analysis.NewSpectralAnalyzer(opts.FramesPerBuffer, float64(buf.Format.SampleRate), opts.Window)
	if err != nil {
		return nil, err
	}
	curve, err := analysis.NewNoveltyCurve(analyzer, opts.NoveltyWindow, opts.Threshold)
	if err != nil {
		return nil, err
	}
	detector := analysis.NewPeakDetector(opts.MinPeakInterval)
	rng := rand.New(rand.NewPCG(opts.Seed, 2))

	res := &Result{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   int(d.BitDepth),
		Duration:   samplesToDuration(len(samples), buf.Format.SampleRate),
	}

	for start := 0; start < len(samples); start += opts.FramesPerBuffer {
		end := min(start+opts.FramesPerBuffer, len(samples))
		curve.Update(samples[start:end])

		if peak, ok := detector.Detect(curve.History()); ok {
			res.Onsets = append(res.Onsets, Onset{
				Buffer:   res.Buffers,
				Time:     samplesToDuration(start, buf.Format.SampleRate),
				Value:    peak.Value,
				Position: spawn.Single(rng),
			})
		}
		res.Buffers++
	}

	return res, nil
}

// firstChannel extracts channel 0 from interleaved PCM and scales it to
// [-1, 1). 8-bit WAV data is unsigned.
func firstChannel(data []int, channels, bitDepth int) []float32 {
	scale := float32(1) / float32(int64(1)<<(bitDepth-1))
	out := make([]float32, len(data)/channels)
	for i := range out {
		v := data[i*channels]
		if bitDepth == 8 {
			v -= 128
		}
		out[i] = float32(v) * scale
	}
	return out
}

func samplesToDuration(n, sampleRate int) time.Duration {
	return time.Duration(int64(n) * int64(time.Second) / int64(sampleRate))
}
