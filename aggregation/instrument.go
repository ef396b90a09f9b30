// Package aggregation implements spec.md §4.C, the Aggregation Pipeline:
// attribute filtering, per-(instrument, attribute_set) routing to the
// aggregators in package aggregate, cumulative/delta temporality
// bookkeeping, and snapshot collection into record.MetricPoint.
//
// Grounded in idiom on the teacher's internal/pipeline.Pipeline, which
// guards a map of named stage state behind a sync.RWMutex the same way
// this package guards a map of per-attribute-set aggregator entries: many
// concurrent recorders take the read lock, the rare first-seen attribute
// set upgrades to the write lock to insert.
package aggregation

import "go.opentelemetry.io/otel/attribute"

// Kind names which aggregator in package aggregate backs an instrument.
type Kind uint8

const (
	KindSum Kind = iota
	KindLastValue
	KindMinMaxSumCount
	KindHistogram
	KindExponentialHistogram
)

// Temporality selects how an instrument's start/previous-collect-time
// bookkeeping behaves (spec.md §4.C.4).
type Temporality uint8

const (
	Cumulative Temporality = iota
	Delta
)

// Descriptor is the static, immutable configuration of one instrument:
// everything the Aggregation Pipeline needs to know to construct
// aggregators and route measurements to them, decided once at
// registration time.
type Descriptor struct {
	Name        string
	Kind        Kind
	Temporality Temporality
	IsFloat     bool
	IsMonotonic bool // Sum only

	// HistogramBounds configures a Histogram instrument's fixed bucket
	// bounds (spec.md §4.B.4). Ignored for other kinds.
	HistogramBounds []float64
	RecordMinMax    bool
	RecordSum       bool

	// ExpoMaxSize/ExpoMaxScale configure an ExponentialHistogram
	// instrument (spec.md §4.B.5). Ignored for other kinds.
	ExpoMaxSize  int32
	ExpoMaxScale int8

	// AttributeAllowList, if non-nil, restricts which attribute keys may
	// key this instrument's aggregators; everything else is dropped and
	// counted (spec.md §4.C.1). A nil list admits all attributes.
	AttributeAllowList []attribute.Key
}

// allows reports whether kv's key passes d's allow-list (or the list is
// absent, admitting everything).
func (d Descriptor) allows(kv attribute.KeyValue) bool {
	if d.AttributeAllowList == nil {
		return true
	}
	for _, k := range d.AttributeAllowList {
		if kv.Key == k {
			return true
		}
	}
	return false
}
