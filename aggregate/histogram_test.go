package aggregate

import "testing"

func TestHistogramBucketsByUpperBoundInclusive(t *testing.T) {
	h := NewHistogram([]float64{0.1, 0.2, 0.3}, true, true)
	for _, v := range []float64{1, 2, 3} {
		h.Update(v)
	}
	p := h.CollectCumulative()

	want := []uint64{0, 0, 0, 3}
	for i, c := range want {
		if p.Counts[i] != c {
			t.Fatalf("bucket %d: expected %d, got %d", i, c, p.Counts[i])
		}
	}
	if p.Min != 1 || p.Max != 3 || p.Sum != 6 || p.Count != 3 {
		t.Fatalf("unexpected stats: %+v", p)
	}
}

func TestHistogramValueEqualToBoundGoesInLowerBucket(t *testing.T) {
	h := NewHistogram([]float64{1, 2, 3}, false, false)
	h.Update(2)
	p := h.CollectCumulative()
	if p.Counts[1] != 1 {
		t.Fatalf("expected value==bound to land in bucket 1, got counts=%v", p.Counts)
	}
}

func TestHistogramCountsConserveAcrossBuckets(t *testing.T) {
	h := NewHistogram([]float64{10, 20}, true, true)
	values := []float64{1, 11, 21, 5, 15, 25, 9}
	for _, v := range values {
		h.Update(v)
	}
	p := h.CollectCumulative()
	var total uint64
	for _, c := range p.Counts {
		total += c
	}
	if total != uint64(len(values)) {
		t.Fatalf("expected bucket counts to conserve total count %d, got %d", len(values), total)
	}
}

func TestHistogramDeltaResetsCountsAndStats(t *testing.T) {
	h := NewHistogram([]float64{5}, true, true)
	h.Update(1)
	h.Update(10)
	first := h.CollectDelta()
	if first.Count != 2 {
		t.Fatalf("expected count 2, got %d", first.Count)
	}

	second := h.CollectDelta()
	if second.Count != 0 || second.Sum != 0 {
		t.Fatalf("expected reset stats, got count=%d sum=%v", second.Count, second.Sum)
	}
	for _, c := range second.Counts {
		if c != 0 {
			t.Fatalf("expected reset bucket counts, got %v", second.Counts)
		}
	}
}
