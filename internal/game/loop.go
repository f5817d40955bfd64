// SPDX-License-Identifier: MIT
/*
Package game drives the onset pipeline at a fixed frame rate.

Each frame the loop drains every audio buffer queued by the capture callback,
advances the novelty curve and polls the peak detector once per buffer, then
lets the spawn scheduler dispatch the pending timer batch and one enemy per
peak. Nothing in a frame blocks: both hand-offs are non-blocking mailboxes.
*/
package game

import (
	"context"
	"fmt"
	"time"

	"insync/internal/analysis"
	"insync/internal/log"
	"insync/internal/metrics"
	"insync/internal/spawn"

	"github.com/sirupsen/logrus"
)

// AudioSource yields captured buffers without blocking.
type AudioSource interface {
	TryTake() ([]float32, bool)
}

// Options wires a Loop. Snapshot, Metrics and Drops are optional.
type Options struct {
	Source    AudioSource
	Curve     *analysis.NoveltyCurve
	Detector  *analysis.PeakDetector
	Scheduler *spawn.Scheduler
	Snapshot  *analysis.Snapshot
	Metrics   *metrics.Metrics
	Drops     func() metrics.Drops // Collected once per frame for Metrics.
	FrameRate int
}

// FrameResult reports what one frame did.
type FrameResult struct {
	Buffers int
	Peaks   int
	Batches []spawn.Batch
}

// Loop owns the novelty history, the detector and the scheduler's main-loop
// side. All of its methods must be called from one goroutine.
type Loop struct {
	source    AudioSource
	curve     *analysis.NoveltyCurve
	detector  *analysis.PeakDetector
	scheduler *spawn.Scheduler
	snapshot  *analysis.Snapshot
	metrics   *metrics.Metrics
	drops     func() metrics.Drops
	period    time.Duration
	frames    uint64
	entry     *logrus.Entry
}

// NewLoop validates opts and creates a loop.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Source == nil || opts.Curve == nil || opts.Detector == nil || opts.Scheduler == nil {
		return nil, fmt.Errorf("game loop requires a source, curve, detector and scheduler")
	}
	if opts.FrameRate <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %d", opts.FrameRate)
	}
	return &Loop{
		source:    opts.Source,
		curve:     opts.Curve,
		detector:  opts.Detector,
		scheduler: opts.Scheduler,
		snapshot:  opts.Snapshot,
		metrics:   opts.Metrics,
		drops:     opts.Drops,
		period:    time.Second / time.Duration(opts.FrameRate),
		entry:     log.With("game"),
	}, nil
}

// Frame runs one update.
func (l *Loop) Frame() FrameResult {
	start := time.Now()
	l.frames++

	var res FrameResult
	peaked := false
	for {
		samples, ok := l.source.TryTake()
		if !ok {
			break
		}
		res.Buffers++

		l.curve.Update(samples)
		peak, ok := l.detector.Detect(l.curve.History())
		peaked = ok
		if ok {
			res.Peaks++
			l.entry.Debugf("Peak at buffer %d (%.2f)", l.curve.Frames(), peak.Value)
		}
		l.metrics.ObserveBuffer(ok)
	}

	res.Batches = l.scheduler.Run(res.Peaks)
	for _, b := range res.Batches {
		l.metrics.ObserveSpawn(b.Source.String(), len(b.Positions))
	}

	if res.Buffers > 0 {
		if l.snapshot != nil {
			l.snapshot.Store(l.curve, peaked)
		}
		h := l.curve.History()
		var novelty float64
		if len(h.Novelty) > 0 {
			novelty = h.Novelty[0]
		}
		l.metrics.ObserveNovelty(novelty, h.Latest())
	}

	if l.metrics != nil {
		if l.drops != nil {
			l.metrics.SetDrops(l.drops())
		}
		l.metrics.ObserveFrame(time.Since(start).Seconds())
	}

	return res
}

// Run starts the spawn timer and calls Frame at the configured rate until ctx
// is cancelled. The timer is stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	l.scheduler.Start()
	defer l.scheduler.Stop()

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	l.entry.Infof("Game loop running at %s per frame", l.period)
	for {
		select {
		case <-ctx.Done():
			l.entry.Infof("Game loop stopped after %d frames", l.frames)
			return nil
		case <-ticker.C:
			l.Frame()
		}
	}
}

// Frames returns the number of frames run.
func (l *Loop) Frames() uint64 { return l.frames }
