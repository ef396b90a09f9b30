// Package record defines the unit of data the pipeline buffers and hands to
// exporters: Record (a tagged variant over span, log record, and metric
// point) and Batch (a bounded, ordered sequence of Records).
//
// Span and log record bodies are deliberately thin placeholders: creating
// spans/log records, propagating context, and modeling resource attributes
// are the API surface's job, not this core's (see spec.md §1 Out of scope).
// This package only models what the Queue and Batch Worker need: identity
// and a cheap notion of size.
package record

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Kind discriminates the Record variant.
type Kind uint8

const (
	KindSpan Kind = iota
	KindLog
	KindMetric
)

func (k Kind) String() string {
	switch k {
	case KindSpan:
		return "span"
	case KindLog:
		return "log"
	case KindMetric:
		return "metric"
	default:
		return "unknown"
	}
}

// Resource is an opaque reference to process/service identity (service
// name, instance id, SDK version, ...). Modeling resource attributes is an
// upstream collaborator's concern; the core only ever stores and forwards
// the pointer it is given via Exporter.SetResource.
type Resource any

// SpanData is the minimal shape a finished span takes when it reaches the
// export pipeline. Real attribute/event/link modeling lives upstream.
type SpanData struct {
	Name       string
	TraceID    [16]byte
	SpanID     [8]byte
	StartTime  time.Time
	EndTime    time.Time
	Attributes attribute.Set
	Dropped    int // attributes/events/links dropped upstream due to limits
}

// LogData is the minimal shape a finished log record takes when it reaches
// the export pipeline.
type LogData struct {
	Timestamp  time.Time
	Severity   int32
	Body       string
	Attributes attribute.Set
}

// MetricPoint wraps one collected data point produced by the Aggregation
// Pipeline (package aggregation). Value holds one of the point kinds from
// package aggregate (SumPoint, LastValuePoint, MinMaxSumCountPoint,
// HistogramPoint, ExponentialHistogramPoint); the core treats it opaquely
// when buffering/batching and only the exporter needs to type-switch on it.
type MetricPoint struct {
	Instrument string
	Attributes attribute.Set
	StartTime  time.Time
	Time       time.Time
	Value      any
}

// Record is the tagged union handed to exporters. Exactly one of Span, Log,
// Metric is populated, selected by Kind.
type Record struct {
	Kind   Kind
	Span   *SpanData
	Log    *LogData
	Metric *MetricPoint
}

// Span constructs a Record wrapping a finished span.
func Span(s *SpanData) Record { return Record{Kind: KindSpan, Span: s} }

// Log constructs a Record wrapping a finished log entry.
func Log(l *LogData) Record { return Record{Kind: KindLog, Log: l} }

// Metric constructs a Record wrapping a collected metric data point.
func Metric(m *MetricPoint) Record { return Record{Kind: KindMetric, Metric: m} }

// Batch is an ordered, bounded sequence of Records produced by a single
// collection pass. Order is insertion order within the batch only; there is
// no ordering guarantee across batches (spec.md §5).
type Batch struct {
	Resource Resource
	Scope    string // instrumentation scope name, opaque to the core
	Records  []Record
}

// Len reports the number of records in the batch.
func (b Batch) Len() int { return len(b.Records) }
