// Package metrics exposes the audio, detection and spawn counters on a
// Prometheus registry served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "insync"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// so callers need not check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	audioBuffers  prometheus.Counter     // Buffers analysed by the game loop
	audioDropped  prometheus.Gauge       // Buffers lost to a full audio queue (mirrors the mailbox counter)
	audioGated    prometheus.Gauge       // Buffers silenced by the noise gate
	peaks         prometheus.Counter     // Peaks reported by the detector
	suppressed    prometheus.Gauge       // Peaks dropped by the minimum interval
	novelty       prometheus.Gauge       // Newest raw flux
	normalised    prometheus.Gauge       // Newest normalised novelty
	spawnBatches  *prometheus.CounterVec // Batches dispatched, by source
	spawnEnemies  *prometheus.CounterVec // Enemies created, by source
	spawnDropped  prometheus.Gauge       // Timer batches lost to overflow
	frameDuration prometheus.Histogram   // Game loop frame processing time
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		audioBuffers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_buffers_total",
			Help:      "Audio buffers analysed by the game loop",
		}),
		audioDropped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_buffers_dropped",
			Help:      "Audio buffers dropped because the game loop fell behind",
		}),
		audioGated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_buffers_gated",
			Help:      "Audio buffers silenced by the noise gate",
		}),
		peaks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "peaks_total",
			Help:      "Onsets reported by the peak detector",
		}),
		suppressed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peaks_suppressed",
			Help:      "Onsets suppressed by the minimum peak interval",
		}),
		novelty: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "novelty",
			Help:      "Newest spectral flux value",
		}),
		normalised: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "novelty_normalised",
			Help:      "Newest normalised novelty value",
		}),
		spawnBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_batches_total",
			Help:      "Spawn batches dispatched to the enemy factory",
		}, []string{"source"}),
		spawnEnemies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_enemies_total",
			Help:      "Enemies created",
		}, []string{"source"}),
		spawnDropped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spawn_batches_dropped",
			Help:      "Timer batches dropped because one was still pending",
		}),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent processing one game loop frame",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveBuffer records one analysed buffer and whether it fired.
func (m *Metrics) ObserveBuffer(peak bool) {
	if m == nil {
		return
	}
	m.audioBuffers.Inc()
	if peak {
		m.peaks.Inc()
	}
}

// ObserveNovelty records the newest curve values.
func (m *Metrics) ObserveNovelty(novelty, normalised float64) {
	if m == nil {
		return
	}
	m.novelty.Set(novelty)
	m.normalised.Set(normalised)
}

// ObserveSpawn records one dispatched batch of size enemies.
func (m *Metrics) ObserveSpawn(source string, size int) {
	if m == nil {
		return
	}
	m.spawnBatches.WithLabelValues(source).Inc()
	m.spawnEnemies.WithLabelValues(source).Add(float64(size))
}

// ObserveFrame records the time spent in one frame.
func (m *Metrics) ObserveFrame(seconds float64) {
	if m == nil {
		return
	}
	m.frameDuration.Observe(seconds)
}

// Drops holds counters owned by other components, copied in every frame.
type Drops struct {
	Audio      uint64
	Gated      uint64
	Suppressed uint64
	Spawn      uint64
}

// SetDrops mirrors the drop counters kept by the mailboxes and detector.
func (m *Metrics) SetDrops(d Drops) {
	if m == nil {
		return
	}
	m.audioDropped.Set(float64(d.Audio))
	m.audioGated.Set(float64(d.Gated))
	m.suppressed.Set(float64(d.Suppressed))
	m.spawnDropped.Set(float64(d.Spawn))
}
