// Package report implements the pipeline's Error Reporter (spec.md §4.H):
// a non-blocking, best-effort side channel for internal warnings and
// errors. Nothing reported here is ever fatal to a producer; high-frequency
// conditions are warned about once per pipeline lifetime and then counted
// silently until a final summary is logged at shutdown.
//
// Grounded on engine/telemetry/events' bounded, drop-counting event bus:
// same "warn once, then count" discipline, expressed here with log/slog
// instead of a pub/sub bus because the Error Reporter has exactly one
// built-in consumer (the log) plus an optional metrics Observer.
package report

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Observer receives counter-shaped side effects for external instrumentation
// (see package selfmetrics for a Prometheus-backed implementation). It is
// optional; a nil Observer is a no-op.
type Observer interface {
	DroppedRecord()
	TriggerCoalesced()
	ExportResult(outcome string, dur time.Duration)
	SetQueueDepth(n int)
	ObserveBatchSize(n int)
}

// Reporter is the Error Reporter described in spec.md §4.H.
type Reporter struct {
	logger       *slog.Logger
	observer     Observer
	maxQueueSize int

	mu        sync.Mutex
	warnedOf  map[string]struct{}
	dropCount atomic.Uint64
}

// New returns a Reporter logging through logger (log/slog, falling back to
// slog.Default when nil) and summarizing drops against maxQueueSize at
// shutdown.
func New(logger *slog.Logger, maxQueueSize int, observer Observer) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:       logger,
		observer:     observer,
		maxQueueSize: maxQueueSize,
		warnedOf:     make(map[string]struct{}),
	}
}

// warnOnce logs at most one warning per distinct key for the reporter's
// lifetime; subsequent calls with the same key are silent (the condition is
// still counted by the caller where applicable).
func (r *Reporter) warnOnce(key, msg string, args ...any) {
	r.mu.Lock()
	_, seen := r.warnedOf[key]
	if !seen {
		r.warnedOf[key] = struct{}{}
	}
	r.mu.Unlock()
	if !seen {
		r.logger.Warn(msg, args...)
	}
}

// QueueFull records a dropped-on-full enqueue (taxonomy: QueueFull). The
// first occurrence in the pipeline's lifetime emits a warning; the rest are
// counted silently until the shutdown summary.
func (r *Reporter) QueueFull() {
	r.dropCount.Add(1)
	r.warnOnce("queue_full", "telemetrycore: queue full, dropping record", "max_queue_size", r.maxQueueSize)
	if r.observer != nil {
		r.observer.DroppedRecord()
	}
}

// PipelineClosed records a producer attempting to enqueue after the queue
// has been closed (taxonomy: PipelineClosed).
func (r *Reporter) PipelineClosed() {
	r.warnOnce("pipeline_closed", "telemetrycore: enqueue attempted after pipeline closed")
}

// ExportFailed records a non-timeout export failure (taxonomy: ExportFailed).
func (r *Reporter) ExportFailed(err error, retryable bool) {
	r.logger.Error("telemetrycore: export failed", "error", err, "retryable", retryable)
	if r.observer != nil {
		outcome := "permanent"
		if retryable {
			outcome = "retryable"
		}
		r.observer.ExportResult(outcome, 0)
	}
}

// ExportTimeout records an export call exceeding export_timeout (taxonomy:
// ExportTimeout, a variant of ExportFailed).
func (r *Reporter) ExportTimeout(d time.Duration) {
	r.logger.Error("telemetrycore: export timed out", "timeout", d)
	if r.observer != nil {
		r.observer.ExportResult("timeout", d)
	}
}

// ExportSucceeded records a successful export call, used for the Observer's
// latency/outcome instrumentation.
func (r *Reporter) ExportSucceeded(dur time.Duration) {
	if r.observer != nil {
		r.observer.ExportResult("ok", dur)
	}
}

// ControlChannelFull records a Flush/Shutdown send finding the control
// channel full (taxonomy: ControlChannelFull), which indicates misuse such
// as concurrent flushes or shutdowns.
func (r *Reporter) ControlChannelFull(op string) {
	r.logger.Error("telemetrycore: control channel full", "op", op)
}

// TriggerCoalesced records a redundant size-triggered ExportTrigger being
// coalesced away by the pending flag (an enrichment from the original Rust
// implementation's internal counters, see SPEC_FULL.md).
func (r *Reporter) TriggerCoalesced() {
	if r.observer != nil {
		r.observer.TriggerCoalesced()
	}
}

// QueueDepth reports the Bounded Queue's current occupancy; the Batch
// Worker calls this after each drain.
func (r *Reporter) QueueDepth(n int) {
	if r.observer != nil {
		r.observer.SetQueueDepth(n)
	}
}

// BatchSize reports the number of records shipped in one exporter.Export
// call; the Batch Worker calls this before each export.
func (r *Reporter) BatchSize(n int) {
	if r.observer != nil {
		r.observer.ObserveBatchSize(n)
	}
}

// ScaleUnderflow records a dropped exponential-histogram measurement that
// would have required rescaling below min_scale (taxonomy: ScaleUnderflow).
func (r *Reporter) ScaleUnderflow(instrument string, value float64) {
	r.logger.Warn("telemetrycore: exponential histogram scale underflow, dropping measurement", "instrument", instrument, "value", value)
}

// MonotonicViolation records a negative update dropped from a monotonic sum
// (taxonomy: MonotonicViolation).
func (r *Reporter) MonotonicViolation(instrument string, value float64) {
	r.logger.Warn("telemetrycore: negative update dropped from monotonic sum", "instrument", instrument, "value", value)
}

// Shutdown emits the final summary (dropped_records_count, max_queue_size)
// required by spec.md §4.H. Safe to call from the worker's shutdown path;
// it does not itself enforce idempotency (the caller's state machine does).
func (r *Reporter) Shutdown(ctx context.Context) {
	dropped := r.dropCount.Load()
	r.logger.InfoContext(ctx, "telemetrycore: pipeline shutdown summary",
		"dropped_records_count", dropped,
		"max_queue_size", r.maxQueueSize,
	)
}

// DroppedRecordsCount returns the running total of records dropped due to a
// full queue, for callers that want it outside the shutdown log line.
func (r *Reporter) DroppedRecordsCount() uint64 {
	return r.dropCount.Load()
}
