package aggregate

import (
	"sync"
	"time"
)

// LastValuePoint is a LastValue aggregator's collected snapshot.
type LastValuePoint struct {
	Value      Number
	SampleTime time.Time
}

// LastValue implements spec.md §4.B.2. update(v, t) unconditionally
// overwrites value/sample_time: the sole observer is assumed to provide
// monotonically advancing t, so the aggregator never reorders.
type LastValue struct {
	mu    sync.Mutex
	value Number
	at    time.Time
	set   bool
}

// NewLastValue returns an empty LastValue aggregator.
func NewLastValue() *LastValue { return &LastValue{} }

// Update unconditionally overwrites the stored value and sample time.
func (lv *LastValue) Update(v Number, t time.Time) {
	lv.mu.Lock()
	lv.value = v
	lv.at = t
	lv.set = true
	lv.mu.Unlock()
}

// CollectCumulative produces a point without resetting state. LastValue has
// no meaningful "reset to identity" for delta temporality either way (the
// current observation is the aggregate), so both collection modes return
// the same snapshot without mutating it (spec.md does not define a reset
// for LastValue, unlike Sum/MMSC/Histogram).
func (lv *LastValue) CollectCumulative() (LastValuePoint, bool) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return LastValuePoint{Value: lv.value, SampleTime: lv.at}, lv.set
}

// CollectDelta behaves identically to CollectCumulative for this
// aggregator: a last-value gauge observation is reported as-is each
// collection, not reset to an identity value.
func (lv *LastValue) CollectDelta() (LastValuePoint, bool) {
	return lv.CollectCumulative()
}
