package processor

import (
	"github.com/99souls/telemetrycore/control"
	"github.com/99souls/telemetrycore/queue"
	"github.com/99souls/telemetrycore/record"
	"github.com/99souls/telemetrycore/report"
)

// Handle is the producer-facing side of a pipeline: the thing any number
// of concurrent goroutines call into to submit records. It bundles the
// Queue, Control Plane, and Error Reporter so producers never touch those
// types directly.
type Handle struct {
	queue              *queue.Queue
	control            *control.Plane
	reporter           *report.Reporter
	maxExportBatchSize int
}

// NewHandle returns a Handle over an already-constructed Queue/Plane/
// Reporter triple; the Worker consuming the same Queue/Plane is
// constructed separately with New.
func NewHandle(q *queue.Queue, ctl *control.Plane, rep *report.Reporter, maxExportBatchSize int) *Handle {
	return &Handle{queue: q, control: ctl, reporter: rep, maxExportBatchSize: maxExportBatchSize}
}

// Enqueue submits one record. On a full queue or a closed pipeline it
// reports the condition to the Error Reporter and returns the Queue's
// Result so callers can observe drops if they want to. On acceptance, if
// the queue has crossed max_export_batch_size since the last trigger, it
// signals a size-triggered export (spec.md §4.D "Size trigger").
func (h *Handle) Enqueue(r record.Record) queue.Result {
	res := h.queue.TryEnqueue(r)
	switch res {
	case queue.Dropped:
		h.reporter.QueueFull()
	case queue.PipelineClosed:
		h.reporter.PipelineClosed()
	case queue.Accepted:
		if h.queue.Len() >= h.maxExportBatchSize {
			if !h.control.SignalExportTrigger() {
				h.reporter.TriggerCoalesced()
			}
		}
	}
	return res
}
