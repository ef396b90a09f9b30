package aggregate

import (
	"sort"
	"sync"
)

// HistogramPoint is an explicit-bounds Histogram aggregator's collected
// snapshot. Counts has len(Bounds)+1 entries; Bounds[i-1] < v <= Bounds[i]
// for bucket i, with an implicit Bounds[-1] = -∞ and Bounds[N] = +∞.
type HistogramPoint struct {
	Bounds             []float64
	Counts             []uint64
	Min, Max, Sum       float64
	Count              uint64
	RecordMinMax       bool
	RecordSum          bool
}

// Histogram implements spec.md §4.B.4: fixed explicit bucket bounds, fixed
// at construction, with min/max/sum/count tracked alongside the bucket
// counts.
type Histogram struct {
	bounds       []float64 // strictly increasing, fixed at construction
	recordMinMax bool
	recordSum    bool

	mu     sync.Mutex
	counts []uint64
	min    float64
	max    float64
	sum    float64
	count  uint64
}

// NewHistogram returns a Histogram with the given strictly-increasing
// bucket bounds. recordMinMax/recordSum mirror the record_min_max and
// record_sum configuration options (spec.md §6).
func NewHistogram(bounds []float64, recordMinMax, recordSum bool) *Histogram {
	b := make([]float64, len(bounds))
	copy(b, bounds)
	return &Histogram{
		bounds:       b,
		recordMinMax: recordMinMax,
		recordSum:    recordSum,
		counts:       make([]uint64, len(b)+1),
	}
}

// Update finds the bucket by binary search over bounds and increments it,
// updating min/max/sum/count under lock.
func (h *Histogram) Update(v float64) {
	// sort.Search returns the first index i such that bounds[i] >= v,
	// which is exactly bucket i under the "(bounds[i-1], bounds[i]]" rule:
	// a value equal to a bound belongs to that bound's bucket.
	idx := sort.Search(len(h.bounds), func(i int) bool { return h.bounds[i] >= v })

	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[idx]++
	h.count++
	if h.recordSum {
		h.sum += v
	}
	if h.recordMinMax {
		if h.count == 1 {
			h.min, h.max = v, v
		} else {
			if v < h.min {
				h.min = v
			}
			if v > h.max {
				h.max = v
			}
		}
	}
}

// CollectCumulative produces a point without resetting state.
func (h *Histogram) CollectCumulative() HistogramPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// CollectDelta produces a point and resets bucket counts and min/max/sum/
// count to identity.
func (h *Histogram) CollectDelta() HistogramPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.snapshotLocked()
	h.counts = make([]uint64, len(h.bounds)+1)
	h.min, h.max, h.sum, h.count = 0, 0, 0, 0
	return p
}

func (h *Histogram) snapshotLocked() HistogramPoint {
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	return HistogramPoint{
		Bounds: h.bounds, Counts: counts,
		Min: h.min, Max: h.max, Sum: h.sum, Count: h.count,
		RecordMinMax: h.recordMinMax, RecordSum: h.recordSum,
	}
}
