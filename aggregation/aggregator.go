package aggregation

import (
	"time"

	"github.com/99souls/telemetrycore/aggregate"
)

// aggregator is the common interface the Aggregation Pipeline routes
// measurements through, regardless of which concrete type in package
// aggregate backs the instrument.
type aggregator interface {
	update(v aggregate.Number, t time.Time)
	// collectCumulative/collectDelta report false only for LastValue
	// aggregators that have never received an Update; every other kind
	// always has a meaningful identity value to report.
	collectCumulative() (any, bool)
	collectDelta() (any, bool)
}

// newAggregator constructs the aggregate.* instance a Descriptor calls
// for, wrapped behind the common aggregator interface. onMonotonicViolation
// and onScaleUnderflow report the two conditions the underlying aggregators
// can reject a measurement for, so the pipeline never swallows them
// silently (spec.md §4.H).
func newAggregator(d Descriptor, onMonotonicViolation, onScaleUnderflow func(instrument string, value float64)) aggregator {
	switch d.Kind {
	case KindSum:
		return &sumAggregator{
			sum:      aggregate.NewSum(d.IsFloat, d.IsMonotonic),
			name:     d.Name,
			onReject: onMonotonicViolation,
		}
	case KindLastValue:
		return &lastValueAggregator{lv: aggregate.NewLastValue()}
	case KindMinMaxSumCount:
		return &mmscAggregator{a: aggregate.NewMinMaxSumCount()}
	case KindHistogram:
		return &histogramAggregator{h: aggregate.NewHistogram(d.HistogramBounds, d.RecordMinMax, d.RecordSum)}
	case KindExponentialHistogram:
		name := d.Name
		return &expoHistogramAggregator{h: aggregate.NewExponentialHistogram(d.ExpoMaxSize, d.ExpoMaxScale, func(v float64) {
			if onScaleUnderflow != nil {
				onScaleUnderflow(name, v)
			}
		})}
	default:
		return &lastValueAggregator{lv: aggregate.NewLastValue()}
	}
}

type sumAggregator struct {
	sum      *aggregate.Sum
	name     string
	onReject func(instrument string, value float64)
}

func (a *sumAggregator) update(v aggregate.Number, _ time.Time) {
	if !a.sum.Update(v) && a.onReject != nil {
		a.onReject(a.name, v.AsFloat64())
	}
}
func (a *sumAggregator) collectCumulative() (any, bool) { return a.sum.CollectCumulative(), true }
func (a *sumAggregator) collectDelta() (any, bool)      { return a.sum.CollectDelta(), true }

type lastValueAggregator struct{ lv *aggregate.LastValue }

func (a *lastValueAggregator) update(v aggregate.Number, t time.Time) { a.lv.Update(v, t) }
func (a *lastValueAggregator) collectCumulative() (any, bool) {
	p, ok := a.lv.CollectCumulative()
	return p, ok
}
func (a *lastValueAggregator) collectDelta() (any, bool) {
	p, ok := a.lv.CollectDelta()
	return p, ok
}

type mmscAggregator struct{ a *aggregate.MinMaxSumCount }

func (a *mmscAggregator) update(v aggregate.Number, _ time.Time)  { a.a.Update(v.AsFloat64()) }
func (a *mmscAggregator) collectCumulative() (any, bool) { return a.a.CollectCumulative(), true }
func (a *mmscAggregator) collectDelta() (any, bool)      { return a.a.CollectDelta(), true }

type histogramAggregator struct{ h *aggregate.Histogram }

func (a *histogramAggregator) update(v aggregate.Number, _ time.Time) { a.h.Update(v.AsFloat64()) }
func (a *histogramAggregator) collectCumulative() (any, bool) { return a.h.CollectCumulative(), true }
func (a *histogramAggregator) collectDelta() (any, bool)      { return a.h.CollectDelta(), true }

type expoHistogramAggregator struct{ h *aggregate.ExponentialHistogram }

func (a *expoHistogramAggregator) update(v aggregate.Number, _ time.Time) { a.h.Update(v.AsFloat64()) }
func (a *expoHistogramAggregator) collectCumulative() (any, bool) {
	return a.h.CollectCumulative(), true
}
func (a *expoHistogramAggregator) collectDelta() (any, bool) { return a.h.CollectDelta(), true }
