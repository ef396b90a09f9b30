// Package processor implements the Batch Worker (spec.md §4.D): the single
// goroutine per pipeline that owns the Exporter, drains the Queue on a
// size trigger, a scheduled timer, or an explicit Flush/Shutdown, and
// enforces export_timeout without ever cancelling an in-flight export.
//
// Grounded on internal/pipeline.Pipeline's own stage worker loop — a
// select over {stage input, control signal, timer} driving a small state
// machine — generalized from the teacher's fixed crawl/process/sink
// stages to the single Running/Draining/Terminated machine spec.md §4.D
// describes.
package processor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/99souls/telemetrycore/clock"
	"github.com/99souls/telemetrycore/config"
	"github.com/99souls/telemetrycore/control"
	"github.com/99souls/telemetrycore/export"
	"github.com/99souls/telemetrycore/queue"
	"github.com/99souls/telemetrycore/record"
	"github.com/99souls/telemetrycore/report"
)

// State is the Batch Worker's lifecycle state (spec.md §4.D "State
// machine").
type State uint8

const (
	Running State = iota
	Draining
	Terminated
)

// Worker is the Batch Worker. Exactly one goroutine should call Run.
type Worker struct {
	cfg      *config.Config
	queue    *queue.Queue
	control  *control.Plane
	exporter export.Exporter
	reporter *report.Reporter
	clock    clock.Clock
	scope    string

	resource record.Resource

	state      atomic.Uint32 // holds State
	terminated atomic.Bool   // SUPPLEMENTED FEATURES: idempotent-shutdown guard

	// inFlight, when non-nil, closes once a prior export() call's
	// background Export goroutine actually returns. export() waits on it
	// before starting the next Export call, even though it stopped
	// waiting on that prior call's result after export_timeout elapsed.
	// Only the Run goroutine touches this field, so it needs no locking.
	inFlight chan struct{}
}

// New returns a Worker over an already-configured Queue/Plane/Exporter/
// Reporter. scope is the instrumentation scope name stamped on every
// Batch this worker exports (spec.md §3 Batch.Scope).
func New(cfg *config.Config, q *queue.Queue, ctl *control.Plane, exp export.Exporter, rep *report.Reporter, clk clock.Clock, scope string) *Worker {
	return &Worker{
		cfg: cfg, queue: q, control: ctl, exporter: exp, reporter: rep, clock: clk, scope: scope,
	}
}

// State returns the worker's current lifecycle state. Safe to call from
// any goroutine.
func (w *Worker) State() State { return State(w.state.Load()) }

func (w *Worker) setState(s State) { w.state.Store(uint32(s)) }

// Run drives the Batch Worker's decision loop until the Control Plane is
// closed from the producer side or a Shutdown message completes. It
// blocks the calling goroutine; callers typically `go worker.Run(ctx)`.
func (w *Worker) Run(ctx context.Context) {
	lastExport := w.clock.Now()

	for {
		timeout := w.cfg.ScheduledDelay - w.clock.Now().Sub(lastExport)
		if timeout < 0 {
			timeout = 0
		}
		timer := w.clock.NewTimer(timeout)

		select {
		case msg, ok := <-w.control.Messages():
			if !ok {
				timer.Stop()
				w.terminate(ctx)
				return
			}
			timer.Stop()
			if w.dispatch(ctx, msg) {
				return
			}
			lastExport = w.clock.Now()

		case <-timer.C():
			w.drainAndExport(ctx, 0) // 0 == no cap, drain everything buffered
			lastExport = w.clock.Now()

		case <-ctx.Done():
			timer.Stop()
			w.terminate(ctx)
			return
		}
	}
}

// dispatch handles one control message. It returns true if the worker
// should exit its Run loop (a Shutdown completed).
func (w *Worker) dispatch(ctx context.Context, msg control.Message) (exit bool) {
	switch msg.Kind {
	case control.KindExportTrigger:
		w.control.ClearTriggerPending()
		w.setState(Running)
		w.drainAndExport(ctx, w.cfg.MaxExportBatchSize)

	case control.KindFlush:
		if w.terminated.Load() {
			reply(msg, control.ErrAlreadyShutdown)
			return false
		}
		w.setState(Draining)
		w.drainAndExportAll(ctx)
		w.setState(Running)
		reply(msg, nil)

	case control.KindShutdown:
		if w.terminated.Load() {
			reply(msg, control.ErrAlreadyShutdown)
			return false
		}
		w.setState(Draining)
		w.drainAndExportAll(ctx)
		shutdownErr := w.exporter.Shutdown(ctx)
		w.reporter.Shutdown(ctx)
		// Mark closed and reply in that order: by the time this caller's
		// Shutdown unblocks, any further call is guaranteed to see the
		// closed flag and fail fast, rather than racing the
		// drainLeftoverControlMessages loop below (SUPPLEMENTED FEATURES).
		w.terminated.Store(true)
		w.setState(Terminated)
		w.control.MarkClosed()
		reply(msg, shutdownErr)
		w.drainLeftoverControlMessages()
		return true

	case control.KindSetResource:
		w.resource = msg.Resource
		w.exporter.SetResource(msg.Resource)
	}
	return false
}

func reply(msg control.Message, err error) {
	if msg.Reply == nil {
		return
	}
	msg.Reply <- control.Result{Err: err}
}

// terminate is reached when the control channel closes (producer-side
// provider dropped) or ctx is cancelled without an explicit Shutdown
// handshake. It still runs the exporter's shutdown exactly once.
func (w *Worker) terminate(ctx context.Context) {
	if w.terminated.Load() {
		return
	}
	w.setState(Draining)
	w.drainAndExportAll(ctx)
	_ = w.exporter.Shutdown(ctx)
	w.reporter.Shutdown(ctx)
	w.terminated.Store(true)
	w.setState(Terminated)
	w.control.MarkClosed()
	w.drainLeftoverControlMessages()
}

// drainLeftoverControlMessages answers any Flush/Shutdown messages that
// raced their way into the control channel just before MarkClosed took
// effect with AlreadyShutdown, rather than leaving their callers to time
// out (SUPPLEMENTED FEATURES).
func (w *Worker) drainLeftoverControlMessages() {
	for {
		select {
		case leftover, ok := <-w.control.Messages():
			if !ok {
				return
			}
			reply(leftover, control.ErrAlreadyShutdown)
		default:
			return
		}
	}
}

// drainAndExport implements spec.md §4.D's drain_and_export: pull up to
// maxRecords (0 means "all currently buffered") and export them as one
// batch. A size-triggered call loops until either the queue is empty or
// one batch has shipped; a timer-triggered call (maxRecords==0) drains
// everything buffered in one shot.
func (w *Worker) drainAndExport(ctx context.Context, maxRecords int) {
	n := maxRecords
	if n <= 0 {
		n = w.queue.Capacity()
	}
	recs := w.queue.DrainUpTo(n)
	if len(recs) == 0 {
		return
	}
	w.reporter.BatchSize(len(recs))
	w.export(ctx, recs)
	w.reporter.QueueDepth(w.queue.Len())
}

// drainAndExportAll implements drain_and_export_all: repeatedly drains in
// max_export_batch_size chunks, each bounded by export_timeout, until the
// queue is empty (used by Flush and Shutdown).
func (w *Worker) drainAndExportAll(ctx context.Context) {
	for {
		recs := w.queue.DrainUpTo(w.cfg.MaxExportBatchSize)
		if len(recs) == 0 {
			return
		}
		w.reporter.BatchSize(len(recs))
		w.export(ctx, recs)
		w.reporter.QueueDepth(w.queue.Len())
	}
}

// export ships one batch, racing the call against export_timeout without
// cancelling it on timeout (spec.md §4.D step 3): the exporter goroutine
// keeps running in the background and its result, if any, is discarded
// once the worker has already reported a Timeout. A timed-out call's
// goroutine is still waited on before the next export() call issues its
// Export, so two Export calls never overlap on the same Exporter (spec.md
// §8 "no two exporter.export calls overlap").
func (w *Worker) export(ctx context.Context, recs []record.Record) {
	if w.inFlight != nil {
		<-w.inFlight
		w.inFlight = nil
	}

	batch := record.Batch{Resource: w.resource, Scope: w.scope, Records: recs}

	resultCh := make(chan error, 1)
	done := make(chan struct{})
	start := w.clock.Now()
	go func() {
		resultCh <- w.exporter.Export(ctx, batch)
		close(done)
	}()

	timer := w.clock.NewTimer(w.cfg.ExportTimeout)
	defer timer.Stop()

	select {
	case err := <-resultCh:
		if err != nil {
			w.reporter.ExportFailed(err, isRetryable(err))
		} else {
			w.reporter.ExportSucceeded(w.clock.Now().Sub(start))
		}
	case <-timer.C():
		w.reporter.ExportTimeout(w.cfg.ExportTimeout)
		w.inFlight = done
	}
}

func isRetryable(err error) bool {
	var exportErr *export.Error
	return errors.As(err, &exportErr) && exportErr.Kind == export.Retryable
}
