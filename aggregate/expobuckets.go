package aggregate

// expoBuckets is the single-sign bucket store for an exponential histogram
// (spec.md §4.B.5): a contiguous counts array plus the absolute bin index
// of counts[0].
type expoBuckets struct {
	startBin int32
	counts   []uint64
}

// record increments the bucket for absolute index bin, growing the
// contiguous array on either side as needed (spec.md §4.B.5 steps 1-4).
func (b *expoBuckets) record(bin int32) {
	switch {
	case len(b.counts) == 0:
		b.startBin = bin
		b.counts = []uint64{1}
	case bin >= b.startBin && int(bin-b.startBin) <= len(b.counts)-1:
		b.counts[bin-b.startBin]++
	case bin < b.startBin:
		shift := int(b.startBin - bin)
		newCounts := make([]uint64, len(b.counts)+shift)
		copy(newCounts[shift:], b.counts)
		newCounts[0] = 1
		b.counts = newCounts
		b.startBin = bin
	default: // bin > startBin+len-1
		newLen := int(bin-b.startBin) + 1
		if newLen > len(b.counts) {
			grown := make([]uint64, newLen)
			copy(grown, b.counts)
			b.counts = grown
		}
		b.counts[bin-b.startBin] = 1
	}
}

// span returns the inclusive [low, high] absolute bin range currently
// occupied, and whether the buckets are non-empty.
func (b *expoBuckets) span() (low, high int32, ok bool) {
	if len(b.counts) == 0 {
		return 0, 0, false
	}
	return b.startBin, b.startBin + int32(len(b.counts)) - 1, true
}

// downscale collapses buckets by scale delta, per spec.md §4.B.5: step
// S=2^delta, nonnegative residue offset = ((startBin mod S)+S) mod S, and
// target index j=(i+offset)/S for existing index i, summed into a fresh
// array (equivalent to the spec's "first-write vs add" in-place
// description, but expressed as a clean reduction into a zeroed slice).
func (b *expoBuckets) downscale(delta int32) {
	if delta <= 0 || len(b.counts) == 0 {
		return
	}
	s := int32(1) << uint(delta)
	offset := ((b.startBin % s) + s) % s

	newLen := (int32(len(b.counts)-1)+offset)/s + 1
	newCounts := make([]uint64, newLen)
	for i, c := range b.counts {
		if c == 0 {
			continue
		}
		j := (int32(i) + offset) / s
		newCounts[j] += c
	}
	b.counts = newCounts
	b.startBin = b.startBin >> uint(delta)
}

// reset clears the buckets back to empty (identity), used by delta
// collection.
func (b *expoBuckets) reset() {
	b.startBin = 0
	b.counts = nil
}

// clone returns a deep copy, used when snapshotting without resetting
// (cumulative collection).
func (b *expoBuckets) clone() expoBuckets {
	cp := make([]uint64, len(b.counts))
	copy(cp, b.counts)
	return expoBuckets{startBin: b.startBin, counts: cp}
}
