package aggregate

import (
	"math"
	"sync"
)

// MinScale is the lowest scale an exponential histogram may hold; a
// measurement requiring a rescale below this is dropped (spec.md §4.B.5,
// taxonomy: ScaleUnderflow).
const MinScale int8 = -10

// log2e2ScaleTable[s] precomputes log2(e) * 2^s for s in [0, maxPositiveScale],
// per spec.md §4.B.5's instruction to precompute this factor for positive
// scales rather than recompute it per measurement.
const maxPositiveScale = 20

var log2e2ScaleTable [maxPositiveScale + 1]float64

func init() {
	log2e := math.Log2(math.E)
	for s := 0; s <= maxPositiveScale; s++ {
		log2e2ScaleTable[s] = log2e * math.Pow(2, float64(s))
	}
}

// ExponentialHistogramPoint is an ExponentialHistogram aggregator's
// collected snapshot.
type ExponentialHistogramPoint struct {
	Scale               int8
	MaxSize             int32
	PosStartBin         int32
	PosCounts           []uint64
	NegStartBin         int32
	NegCounts           []uint64
	ZeroCount           uint64
	Min, Max, Sum       float64
	Count               uint64
}

// ExponentialHistogram implements spec.md §4.B.5: base-2 log-linear
// bucketing with online rescaling. maxScale bounds the initial/maximum
// resolution (≤ 20); maxSize bounds the bucket count per sign.
type ExponentialHistogram struct {
	maxSize  int32
	maxScale int8

	mu    sync.Mutex
	scale int8
	pos   expoBuckets
	neg   expoBuckets
	zero  uint64
	min   float64
	max   float64
	sum   float64
	count uint64

	// underflow is invoked (if non-nil) when a measurement is dropped due
	// to scale underflow, so the caller (package aggregation) can report
	// it through the Error Reporter without this package depending on it.
	underflow func(value float64)
}

// NewExponentialHistogram returns an ExponentialHistogram starting at
// maxScale (clamped to [MinScale, 20]).
func NewExponentialHistogram(maxSize int32, maxScale int8, underflow func(value float64)) *ExponentialHistogram {
	if maxSize <= 0 {
		maxSize = 160
	}
	if maxScale > 20 {
		maxScale = 20
	}
	if maxScale < MinScale {
		maxScale = MinScale
	}
	return &ExponentialHistogram{
		maxSize: maxSize, maxScale: maxScale, scale: maxScale,
		underflow: underflow,
	}
}

// Update records one measurement per spec.md §4.B.5's measurement-handling
// rules: non-finite values are ignored; zero increments zero_count; sign
// selects pos/neg buckets, binned on the absolute value. A measurement
// that would force the scale below MinScale is dropped in its entirety
// (min/max/sum/count untouched) and reported as a ScaleUnderflow.
func (h *ExponentialHistogram) Update(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if v == 0 {
		h.zero++
		h.observe(v)
		return
	}

	abs := v
	buckets := &h.pos
	if v < 0 {
		abs = -v
		buckets = &h.neg
	}

	if !h.recordInto(buckets, abs) {
		if h.underflow != nil {
			h.underflow(v)
		}
		return
	}
	h.observe(v)
}

// observe folds a non-dropped measurement into min/max/sum/count. Must be
// called with h.mu held.
func (h *ExponentialHistogram) observe(v float64) {
	if h.count == 0 {
		h.min, h.max = v, v
	} else {
		if v < h.min {
			h.min = v
		}
		if v > h.max {
			h.max = v
		}
	}
	h.sum += v
	h.count++
}

// recordInto computes the bin for abs at the current scale, rescaling both
// sign buckets downward if the combined range would otherwise exceed
// maxSize. Returns false (without mutating buckets) if the required
// rescale would underflow MinScale.
func (h *ExponentialHistogram) recordInto(buckets *expoBuckets, abs float64) bool {
	bin := binAt(abs, h.scale)

	if low, high, ok := buckets.span(); ok {
		delta := h.rescaleDelta(low, high, bin)
		if delta > 0 {
			if int32(h.scale)-delta < int32(MinScale) {
				return false
			}
			h.pos.downscale(delta)
			h.neg.downscale(delta)
			h.scale -= int8(delta)
			bin = binAt(abs, h.scale)
		}
	}

	buckets.record(bin)
	return true
}

// rescaleDelta computes the minimal Δ ≥ 0 such that halving the combined
// range of the existing span and the new bin Δ times fits within maxSize,
// per spec.md §4.B.5's pseudocode.
func (h *ExponentialHistogram) rescaleDelta(spanLow, spanHigh, bin int32) int32 {
	low, high := spanLow, spanHigh
	if bin < low {
		low = bin
	}
	if bin > high {
		high = bin
	}

	var delta int32
	maxDelta := int32(h.maxScale) - int32(MinScale)
	for int64(high)-int64(low) >= int64(h.maxSize) {
		low >>= 1
		high >>= 1
		delta++
		if delta > maxDelta {
			return delta
		}
	}
	return delta
}

// binAt computes bin(v, scale) per spec.md §4.B.5's indexing rules. v must
// be finite and positive (the absolute value of the measurement).
func binAt(v float64, scale int8) int32 {
	frac, exp := math.Frexp(v)
	if scale <= 0 {
		correction := int32(1)
		if frac == 0.5 {
			correction = 2
		}
		shift := uint(-scale)
		return arithmeticShiftRight(int32(exp)-correction, shift)
	}

	factor := log2e2Scale(scale)
	return (int32(exp) << uint(scale)) + int32(math.Floor(math.Log(frac)*factor)) - 1
}

func log2e2Scale(scale int8) float64 {
	if int(scale) >= 0 && int(scale) <= maxPositiveScale {
		return log2e2ScaleTable[scale]
	}
	return math.Log2(math.E) * math.Pow(2, float64(scale))
}

// arithmeticShiftRight performs a floor-dividing right shift on a possibly
// negative int32, matching Go's native behavior for signed right shift
// (which is already an arithmetic/floor shift) — kept as a named helper so
// the binAt formula reads the same as spec.md's pseudocode.
func arithmeticShiftRight(v int32, shift uint) int32 {
	return v >> shift
}

// CollectCumulative produces a point without resetting state.
func (h *ExponentialHistogram) CollectCumulative() ExponentialHistogramPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos := h.pos.clone()
	neg := h.neg.clone()
	return ExponentialHistogramPoint{
		Scale: h.scale, MaxSize: h.maxSize,
		PosStartBin: pos.startBin, PosCounts: pos.counts,
		NegStartBin: neg.startBin, NegCounts: neg.counts,
		ZeroCount: h.zero, Min: h.min, Max: h.max, Sum: h.sum, Count: h.count,
	}
}

// CollectDelta produces a point and resets buckets, zero_count, and
// min/max/sum/count. Scale returns to maxScale on reset (spec.md §8: "after
// a reset (Delta) it MAY return to max_scale").
func (h *ExponentialHistogram) CollectDelta() ExponentialHistogramPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := ExponentialHistogramPoint{
		Scale: h.scale, MaxSize: h.maxSize,
		PosStartBin: h.pos.startBin, PosCounts: h.pos.counts,
		NegStartBin: h.neg.startBin, NegCounts: h.neg.counts,
		ZeroCount: h.zero, Min: h.min, Max: h.max, Sum: h.sum, Count: h.count,
	}
	h.pos.reset()
	h.neg.reset()
	h.zero, h.min, h.max, h.sum, h.count = 0, 0, 0, 0, 0
	h.scale = h.maxScale
	return p
}
