package aggregation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/99souls/telemetrycore/aggregate"
	"github.com/99souls/telemetrycore/clock"
	"github.com/99souls/telemetrycore/record"

	"go.opentelemetry.io/otel/attribute"
)

// entry is one (instrument, attribute_set) aggregator slot.
type entry struct {
	attrs attribute.Set
	agg   aggregator
}

// instrumentState holds one instrument's routing map and temporality
// bookkeeping (spec.md §4.C.2, §4.C.4). The routing map is guarded by a
// reader-favored RWMutex: Record takes the read lock for the common case
// (attribute set already seen) and upgrades to the write lock only to
// insert a never-seen attribute set. noAttr is a dedicated lock-cheap slot
// for the empty attribute set, measured to be the common case (spec.md
// §4.C.3) — it is constructed once at registration and never touches the
// map or its lock at all.
type instrumentState struct {
	desc Descriptor

	noAttr *entry
	// noAttrUsed is set by the first measurement routed to noAttr; collect
	// skips the slot until then.
	noAttrUsed atomic.Bool

	mu      sync.RWMutex
	byAttrs map[attribute.Set]*entry

	startTime           time.Time
	previousCollectTime time.Time

	droppedAttributes uint64
	droppedMu         sync.Mutex
}

// Pipeline is the Aggregation Pipeline (spec.md §4.C): it owns one
// instrumentState per registered instrument and routes measurements from
// the public API surface (out of scope for this core) into the aggregators
// in package aggregate, then collects them into record.MetricPoint
// snapshots for the Batch Worker to buffer.
type Pipeline struct {
	clock clock.Clock

	onMonotonicViolation func(instrument string, value float64)
	onScaleUnderflow     func(instrument string, value float64)

	mu          sync.RWMutex
	instruments map[string]*instrumentState
}

// New returns an empty Pipeline. onMonotonicViolation and onScaleUnderflow
// are invoked (if non-nil) whenever an aggregator rejects a measurement;
// callers typically wire these to a report.Reporter's MonotonicViolation
// and ScaleUnderflow methods.
func New(clk clock.Clock, onMonotonicViolation, onScaleUnderflow func(instrument string, value float64)) *Pipeline {
	return &Pipeline{
		clock:                clk,
		onMonotonicViolation: onMonotonicViolation,
		onScaleUnderflow:     onScaleUnderflow,
		instruments:          make(map[string]*instrumentState),
	}
}

// Register declares an instrument by its static Descriptor. Re-registering
// an existing name replaces its state (and loses any accumulated
// measurements) — callers are expected to register once at startup.
func (p *Pipeline) Register(d Descriptor) {
	now := p.clock.Now()
	state := &instrumentState{
		desc:                d,
		byAttrs:             make(map[attribute.Set]*entry),
		startTime:           now,
		previousCollectTime: now,
	}
	state.noAttr = &entry{
		attrs: attribute.NewSet(),
		agg:   newAggregator(d, p.onMonotonicViolation, p.onScaleUnderflow),
	}

	p.mu.Lock()
	p.instruments[d.Name] = state
	p.mu.Unlock()
}

// Record routes one measurement to the named instrument's aggregator,
// first filtering kvs through the instrument's attribute allow-list
// (spec.md §4.C.1). Reports whether the instrument was known; an unknown
// instrument name is a no-op (the caller's API surface is expected to
// validate instrument names at creation time, not on every measurement).
func (p *Pipeline) Record(instrument string, kvs []attribute.KeyValue, v aggregate.Number) bool {
	p.mu.RLock()
	state, ok := p.instruments[instrument]
	p.mu.RUnlock()
	if !ok {
		return false
	}

	filtered, dropped := attribute.NewSet(kvs...).Filter(state.desc.allows)
	if dropped > 0 {
		state.droppedMu.Lock()
		state.droppedAttributes += uint64(dropped)
		state.droppedMu.Unlock()
	}

	now := p.clock.Now()
	if filtered.Len() == 0 {
		state.noAttrUsed.Store(true)
		state.noAttr.agg.update(v, now)
		return true
	}

	state.record(filtered, v, now, p.onMonotonicViolation, p.onScaleUnderflow)
	return true
}

// record routes a non-empty attribute set to its aggregator entry, lazily
// inserting a fresh one on first sight.
func (s *instrumentState) record(attrs attribute.Set, v aggregate.Number, now time.Time, onMonotonicViolation, onScaleUnderflow func(string, float64)) {
	s.mu.RLock()
	e, ok := s.byAttrs[attrs]
	s.mu.RUnlock()
	if ok {
		e.agg.update(v, now)
		return
	}

	s.mu.Lock()
	e, ok = s.byAttrs[attrs]
	if !ok {
		e = &entry{attrs: attrs, agg: newAggregator(s.desc, onMonotonicViolation, onScaleUnderflow)}
		s.byAttrs[attrs] = e
	}
	s.mu.Unlock()

	e.agg.update(v, now)
}

// Collect produces a record.MetricPoint for every populated attribute set
// across every registered instrument, applying each instrument's
// temporality (spec.md §4.C.4, §4.C.5).
func (p *Pipeline) Collect() []record.MetricPoint {
	now := p.clock.Now()

	p.mu.RLock()
	states := make([]*instrumentState, 0, len(p.instruments))
	for _, s := range p.instruments {
		states = append(states, s)
	}
	p.mu.RUnlock()

	var points []record.MetricPoint
	for _, s := range states {
		points = append(points, s.collect(now)...)
	}
	return points
}

func (s *instrumentState) collect(now time.Time) []record.MetricPoint {
	start, collectTime := s.startTime, now
	if s.desc.Temporality == Delta {
		start = s.previousCollectTime
		s.previousCollectTime = now
	}

	points := make([]record.MetricPoint, 0, len(s.byAttrs)+1)
	if s.noAttrUsed.Load() {
		if p, ok := s.snapshot(s.noAttr, start, collectTime); ok {
			points = append(points, p)
		}
	}

	s.mu.RLock()
	entries := make([]*entry, 0, len(s.byAttrs))
	for _, e := range s.byAttrs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		if p, ok := s.snapshot(e, start, collectTime); ok {
			points = append(points, p)
		}
	}
	return points
}

// snapshot collects one entry's value per the instrument's temporality.
// The second return reports whether the entry had anything to report
// (LastValue aggregators report false until their first Update).
func (s *instrumentState) snapshot(e *entry, start, collectTime time.Time) (record.MetricPoint, bool) {
	var value any
	var ok bool
	if s.desc.Temporality == Delta {
		value, ok = e.agg.collectDelta()
	} else {
		value, ok = e.agg.collectCumulative()
	}
	if !ok {
		return record.MetricPoint{}, false
	}

	return record.MetricPoint{
		Instrument: s.desc.Name,
		Attributes: e.attrs,
		StartTime:  start,
		Time:       collectTime,
		Value:      value,
	}, true
}

// DroppedAttributes reports the total count of attribute key-value pairs
// dropped by this instrument's allow-list filter since registration
// (spec.md §4.C.1).
func (p *Pipeline) DroppedAttributes(instrument string) uint64 {
	p.mu.RLock()
	state, ok := p.instruments[instrument]
	p.mu.RUnlock()
	if !ok {
		return 0
	}
	state.droppedMu.Lock()
	defer state.droppedMu.Unlock()
	return state.droppedAttributes
}
