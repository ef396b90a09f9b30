// Package queue implements the Bounded Queue (spec.md §4.A): an MPSC ring
// bounded by max_queue_size, with non-blocking enqueue and drop-on-full
// semantics. It never blocks a producer and is drained only by the single
// consumer (the Batch Worker, package processor).
//
// Grounded on internal/pipeline's channel-centric stage queues
// (urlQueue/extractionQueue/...): a buffered channel plus atomic counters,
// gated by context/closed-state rather than ever closing a channel that
// multiple producers write to concurrently.
package queue

import (
	"sync/atomic"

	"github.com/99souls/telemetrycore/record"
)

// Result is the outcome of a TryEnqueue call.
type Result uint8

const (
	// Accepted means the record was buffered.
	Accepted Result = iota
	// Dropped means the queue was full; the record was discarded and the
	// drop counter incremented.
	Dropped
	// PipelineClosed means the consumer side is gone; the record was
	// discarded and will never be accepted.
	PipelineClosed
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Dropped:
		return "dropped"
	case PipelineClosed:
		return "pipeline_closed"
	default:
		return "unknown"
	}
}

// Queue is a bounded, multi-producer single-consumer buffer of record.Record
// values. The zero value is not usable; construct with New.
type Queue struct {
	ch       chan record.Record
	capacity int

	closed    atomic.Bool
	dropCount atomic.Uint64
}

// New returns a Queue with the given capacity (spec default: 2048). A
// non-positive capacity is clamped to 1 so the queue is never unusable.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan record.Record, capacity), capacity: capacity}
}

// Capacity returns max_queue_size as configured at construction.
func (q *Queue) Capacity() int { return q.capacity }

// Len returns the current number of buffered records. It is advisory: by the
// time the caller observes it, concurrent enqueues/dequeues may have
// changed it.
func (q *Queue) Len() int { return len(q.ch) }

// DropCount returns the total number of records dropped due to a full queue
// over the queue's lifetime. Monotonically non-decreasing.
func (q *Queue) DropCount() uint64 { return q.dropCount.Load() }

// TryEnqueue never blocks the caller. It returns PipelineClosed if Close has
// been called, Dropped if the queue was at capacity, or Accepted otherwise.
// Once PipelineClosed has been observed by any caller, all further calls
// return PipelineClosed and never succeed (spec.md §4.A invariant).
func (q *Queue) TryEnqueue(r record.Record) Result {
	if q.closed.Load() {
		return PipelineClosed
	}
	select {
	case q.ch <- r:
		return Accepted
	default:
		q.dropCount.Add(1)
		return Dropped
	}
}

// DrainUpTo removes up to n buffered records in FIFO order without
// blocking. Consumer-only: calling this from multiple goroutines
// concurrently would violate the single-consumer contract the Batch Worker
// relies on for ordering.
func (q *Queue) DrainUpTo(n int) []record.Record {
	if n <= 0 {
		return nil
	}
	out := make([]record.Record, 0, n)
	for len(out) < n {
		select {
		case r := <-q.ch:
			out = append(out, r)
		default:
			return out
		}
	}
	return out
}

// Close marks the queue closed: all subsequent TryEnqueue calls return
// PipelineClosed. It does not close the underlying channel (producers may
// still be racing a send) and does not discard already-buffered records;
// the consumer should keep draining with DrainUpTo until it returns empty.
// Idempotent.
func (q *Queue) Close() {
	q.closed.Store(true)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool { return q.closed.Load() }
