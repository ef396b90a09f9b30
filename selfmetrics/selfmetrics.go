// Package selfmetrics exposes the batch pipeline's own operational health
// (queue drops, export outcomes/latency, trigger coalescing) as Prometheus
// instruments. It implements report.Observer so the Error Reporter (package
// report) can drive it without depending on Prometheus directly.
//
// Grounded on engine/telemetry/metrics/prometheus.go's PrometheusProvider:
// a private *prometheus.Registry, *Vec instruments built lazily, and a
// cached promhttp.Handler for scraping.
package selfmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is a Prometheus-backed report.Observer plus a scrape handler.
type Recorder struct {
	reg *prometheus.Registry

	dropped        prometheus.Counter
	triggerCoalesc prometheus.Counter
	exportOutcome  *prometheus.CounterVec
	exportLatency  *prometheus.HistogramVec
	queueDepth     prometheus.Gauge
	batchSize      prometheus.Histogram

	handler http.Handler
}

// Options configures a Recorder.
type Options struct {
	// Registry is an optional caller-supplied registry; a fresh one is
	// created when nil, matching PrometheusProviderOptions.Registry.
	Registry *prometheus.Registry
	// Namespace prefixes every instrument name (default "telemetrycore").
	Namespace string
}

// New creates a Recorder and registers its instruments.
func New(opts Options) *Recorder {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "telemetrycore"
	}

	r := &Recorder{reg: reg}
	r.dropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "queue", Name: "dropped_total",
		Help: "Records dropped because the bounded queue was full.",
	})
	r.triggerCoalesc = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "worker", Name: "trigger_coalesced_total",
		Help: "Size-triggered export signals coalesced by the pending flag.",
	})
	r.exportOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "export", Name: "result_total",
		Help: "Export call outcomes by kind (ok|timeout|retryable|permanent).",
	}, []string{"outcome"})
	r.exportLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "export", Name: "duration_seconds",
		Help:    "Export call latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	r.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Subsystem: "queue", Name: "depth",
		Help: "Current number of records buffered in the queue.",
	})
	r.batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "worker", Name: "batch_size",
		Help:    "Number of records shipped per exporter.Export call.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 512, 1000},
	})

	for _, c := range []prometheus.Collector{
		r.dropped, r.triggerCoalesc, r.exportOutcome, r.exportLatency, r.queueDepth, r.batchSize,
	} {
		_ = reg.Register(c) // best-effort; AlreadyRegisteredError is fine on a shared registry
	}

	r.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return r
}

// Handler returns an http.Handler exposing /metrics for this Recorder's
// registry.
func (r *Recorder) Handler() http.Handler { return r.handler }

// DroppedRecord implements report.Observer.
func (r *Recorder) DroppedRecord() { r.dropped.Inc() }

// TriggerCoalesced implements report.Observer.
func (r *Recorder) TriggerCoalesced() { r.triggerCoalesc.Inc() }

// ExportResult implements report.Observer.
func (r *Recorder) ExportResult(outcome string, dur time.Duration) {
	r.exportOutcome.WithLabelValues(outcome).Inc()
	if dur > 0 {
		r.exportLatency.WithLabelValues(outcome).Observe(dur.Seconds())
	}
}

// SetQueueDepth records the current queue occupancy; called by the worker
// after each drain.
func (r *Recorder) SetQueueDepth(n int) { r.queueDepth.Set(float64(n)) }

// ObserveBatchSize records the size of a batch handed to the exporter.
func (r *Recorder) ObserveBatchSize(n int) { r.batchSize.Observe(float64(n)) }
