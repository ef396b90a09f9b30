package aggregate

import (
	"math"
	"sync/atomic"
)

// SumPoint is a Sum aggregator's collected snapshot.
type SumPoint struct {
	Value       Number
	IsMonotonic bool
}

// Sum implements spec.md §4.B.1. Concurrent updates use atomic fetch-add:
// int64-valued sums use atomic.Int64 directly; float64-valued sums use a
// compare-and-swap loop over the IEEE-754 bit pattern, since the standard
// library has no atomic float64 add. Both paths give the same "no lost
// updates, no locking" guarantee the spec requires.
type Sum struct {
	isFloat     bool
	isMonotonic bool

	ibits atomic.Int64  // valid when !isFloat
	fbits atomic.Uint64 // valid when isFloat, math.Float64bits(value)
}

// NewSum returns a Sum aggregator for an instrument with the given value
// representation and monotonicity.
func NewSum(isFloat, isMonotonic bool) *Sum {
	return &Sum{isFloat: isFloat, isMonotonic: isMonotonic}
}

// Update records one measurement. Negative updates to a monotonic sum are
// dropped; the caller (package aggregation) is expected to report a
// MonotonicViolation in that case, signaled here via the returned bool.
func (s *Sum) Update(v Number) (accepted bool) {
	if s.isMonotonic && v.AsFloat64() < 0 {
		return false
	}
	if s.isFloat {
		delta := v.AsFloat64()
		for {
			old := s.fbits.Load()
			next := math.Float64bits(math.Float64frombits(old) + delta)
			if s.fbits.CompareAndSwap(old, next) {
				return true
			}
		}
	}
	s.ibits.Add(v.AsInt64())
	return true
}

// CollectCumulative produces a point without resetting state.
func (s *Sum) CollectCumulative() SumPoint {
	return SumPoint{Value: s.snapshot(), IsMonotonic: s.isMonotonic}
}

// CollectDelta produces a point and resets the running total to identity
// (zero).
func (s *Sum) CollectDelta() SumPoint {
	if s.isFloat {
		old := s.fbits.Swap(math.Float64bits(0))
		return SumPoint{Value: Float64(math.Float64frombits(old)), IsMonotonic: s.isMonotonic}
	}
	old := s.ibits.Swap(0)
	return SumPoint{Value: Int64(old), IsMonotonic: s.isMonotonic}
}

func (s *Sum) snapshot() Number {
	if s.isFloat {
		return Float64(math.Float64frombits(s.fbits.Load()))
	}
	return Int64(s.ibits.Load())
}
