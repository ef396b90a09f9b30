// Package telemetrycore wires the Bounded Queue, Control Plane, Aggregation
// Pipeline, and Batch Worker (packages queue, control, aggregation,
// processor) into one constructed pipeline per signal (spans, logs,
// metrics), and exposes the producer-facing surface a host application or
// an upstream API layer (tracer/meter/logger) drives.
//
// Grounded on engine.New/engine.Start/engine.Stop/engine.Snapshot's facade
// shape (engine/engine.go): a single constructor taking a config, returning
// a handle with Start/Stop/Snapshot-style lifecycle methods, hiding the
// internal wiring of independently testable subsystems from the caller.
package telemetrycore

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/99souls/telemetrycore/aggregate"
	"github.com/99souls/telemetrycore/aggregation"
	"github.com/99souls/telemetrycore/clock"
	"github.com/99souls/telemetrycore/config"
	"github.com/99souls/telemetrycore/control"
	"github.com/99souls/telemetrycore/export"
	"github.com/99souls/telemetrycore/processor"
	"github.com/99souls/telemetrycore/queue"
	"github.com/99souls/telemetrycore/record"
	"github.com/99souls/telemetrycore/report"
)

// Options configures a Provider at construction. Exporter and Scope are
// required; the rest default per spec.md §6 (Config.ApplyDefaults) if left
// zero.
type Options struct {
	Config   *config.Config
	Exporter export.Exporter
	Scope    string
	Signal   config.Signal // selects the OTEL_BSP_/OTEL_BLRP_ env prefix
	Logger   *slog.Logger
	Observer report.Observer // e.g. selfmetrics.Recorder; nil is fine
	Clock    clock.Clock     // clock.Real() if nil
}

// Provider is one constructed batch pipeline: a Queue and Control Plane
// driven by a single Batch Worker goroutine, plus an Aggregation Pipeline
// for metric instruments. Construct one Provider per signal (spans, logs,
// metrics all share the same machinery but each needs its own queue/worker
// per spec.md §5's "no cross-signal coupling").
type Provider struct {
	cfg     *config.Config
	handle  *processor.Handle
	control *control.Plane
	queue   *queue.Queue
	worker  *processor.Worker
	agg     *aggregation.Pipeline
	rep     *report.Reporter

	cancel context.CancelFunc
}

// New constructs a Provider and starts its Batch Worker goroutine. Callers
// must eventually call Shutdown to drain buffered records and release the
// worker goroutine.
func New(opts Options) (*Provider, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	config.ApplyEnv(cfg, opts.Signal)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	rep := report.New(opts.Logger, cfg.MaxQueueSize, opts.Observer)
	q := queue.New(cfg.MaxQueueSize)
	ctl := control.New(control.DefaultCapacity)
	handle := processor.NewHandle(q, ctl, rep, cfg.MaxExportBatchSize)
	agg := aggregation.New(clk, rep.MonotonicViolation, rep.ScaleUnderflow)
	worker := processor.New(cfg, q, ctl, opts.Exporter, rep, clk, opts.Scope)

	p := &Provider{cfg: cfg, handle: handle, control: ctl, queue: q, worker: worker, agg: agg, rep: rep}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go worker.Run(ctx)

	return p, nil
}

// RegisterInstrument declares a metric instrument's aggregation behavior
// (spec.md §4.C). Call once per instrument at startup, before any
// RecordMetric calls against that name.
func (p *Provider) RegisterInstrument(d aggregation.Descriptor) {
	p.agg.Register(d)
}

// RecordSpan buffers a finished span for export (spec.md §4.A/§4.D).
func (p *Provider) RecordSpan(s *record.SpanData) queue.Result {
	return p.handle.Enqueue(record.Span(s))
}

// RecordLog buffers a finished log record for export.
func (p *Provider) RecordLog(l *record.LogData) queue.Result {
	return p.handle.Enqueue(record.Log(l))
}

// RecordMetric routes one measurement into the named instrument's
// aggregator (spec.md §4.C). It does not itself enqueue anything; metric
// points are buffered for export only when Collect is called (typically
// from a periodic reader driven by an upstream meter provider, out of
// scope for this core).
func (p *Provider) RecordMetric(instrument string, attrs []attribute.KeyValue, v aggregate.Number) bool {
	return p.agg.Record(instrument, attrs, v)
}

// Collect snapshots every registered instrument's current value per its
// configured temporality and enqueues the resulting points for export.
func (p *Provider) Collect() {
	for _, pt := range p.agg.Collect() {
		pt := pt
		p.handle.Enqueue(record.Metric(&pt))
	}
}

// SetResource delivers a resource update to the exporter via the Control
// Plane (spec.md §4.F).
func (p *Provider) SetResource(r record.Resource) bool {
	return p.control.SetResource(r)
}

// Flush blocks until every currently buffered record has been handed to
// the exporter, or the configured force_flush_timeout elapses.
func (p *Provider) Flush(ctx context.Context) error {
	return p.control.Flush(ctx, p.cfg.ForceFlushTimeout)
}

// Shutdown drains and exports everything buffered, shuts down the
// exporter, and releases the Batch Worker goroutine. Idempotent: a second
// call returns control.ErrAlreadyShutdown without blocking.
func (p *Provider) Shutdown(ctx context.Context) error {
	defer p.cancel()
	err := p.control.Shutdown(ctx, p.cfg.ShutdownTimeout)
	p.queue.Close()
	return err
}

// DroppedRecordsCount reports the running total of records dropped because
// the bounded queue was full (spec.md §4.H shutdown summary).
func (p *Provider) DroppedRecordsCount() uint64 {
	return p.rep.DroppedRecordsCount()
}

// State returns the Batch Worker's current lifecycle state (spec.md §4.D).
func (p *Provider) State() processor.State {
	return p.worker.State()
}
