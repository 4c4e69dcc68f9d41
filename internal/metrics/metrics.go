// Package metrics exposes Prometheus instruments for the audio and render loops.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "camwatch"

// Metrics owns a registry and the instruments registered with it.
type Metrics struct {
	registry *prometheus.Registry

	chunks         *prometheus.CounterVec
	chunkEnergy    prometheus.Gauge
	inputStatus    prometheus.Counter
	beeps          *prometheus.CounterVec
	beepDuration   prometheus.Histogram
	alertLoud      prometheus.Gauge
	frames         prometheus.Counter
	framesSkipped  prometheus.Counter
	renderDuration prometheus.Histogram
	viewers        prometheus.Gauge
}

// New creates and registers all instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audio_chunks_total",
				Help:      "Audio chunks processed, by classification",
			},
			[]string{"level"},
		),
		chunkEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_chunk_energy",
			Help:      "Energy of the most recent audio chunk",
		}),
		inputStatus: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_input_status_total",
			Help:      "Audio chunks delivered with a device status such as an overflow",
		}),
		beeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "beeps_total",
				Help:      "Alert tones played, by result",
			},
			[]string{"result"},
		),
		beepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "beep_duration_seconds",
			Help:      "Time spent blocked playing the alert tone",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 1, 2},
		}),
		alertLoud: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_loud",
			Help:      "1 when the last rendered frame carried the alert border",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Frames rendered and handed to the display",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Render ticks skipped because no frame could be captured",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one frame",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}),
		viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewers",
			Help:      "Connected viewer clients",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chunks,
		m.chunkEnergy,
		m.inputStatus,
		m.beeps,
		m.beepDuration,
		m.alertLoud,
		m.frames,
		m.framesSkipped,
		m.renderDuration,
		m.viewers,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveChunk records a scored audio chunk.
func (m *Metrics) ObserveChunk(energy float64, loud bool) {
	m.chunkEnergy.Set(energy)
	if loud {
		m.chunks.WithLabelValues("loud").Inc()
		return
	}
	m.chunks.WithLabelValues("quiet").Inc()
}

// ObserveStatus records a chunk delivered with a device status.
func (m *Metrics) ObserveStatus(string) {
	m.inputStatus.Inc()
}

// ObserveBeep records a completed or failed alert tone.
func (m *Metrics) ObserveBeep(elapsed time.Duration, err error) {
	if err != nil {
		m.beeps.WithLabelValues("error").Inc()
		return
	}
	m.beeps.WithLabelValues("ok").Inc()
	m.beepDuration.Observe(elapsed.Seconds())
}

// ObserveFrame records a rendered frame.
func (m *Metrics) ObserveFrame(elapsed time.Duration, loud bool) {
	m.frames.Inc()
	m.renderDuration.Observe(elapsed.Seconds())
	if loud {
		m.alertLoud.Set(1)
	} else {
		m.alertLoud.Set(0)
	}
}

// ObserveSkip records a skipped render tick.
func (m *Metrics) ObserveSkip() {
	m.framesSkipped.Inc()
}

// SetViewers records the number of connected viewers.
func (m *Metrics) SetViewers(n int) {
	m.viewers.Set(float64(n))
}
