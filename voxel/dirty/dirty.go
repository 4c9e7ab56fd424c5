package dirty

import "sort"

// defaultRangeCapacity is the pre-allocated capacity for tracked ranges.
const defaultRangeCapacity = 16

// Range is a span [Off, Off+Len) in element units.
type Range struct {
	Off int64
	Len int64
}

// End returns the exclusive end of r.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates ranges and coalesces them on demand.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges []Range
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{ranges: make([]Range, 0, defaultRangeCapacity)}
}

// Add records a span. Empty spans are ignored.
func (t *Tracker) Add(off, length int64) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: off, Len: length})
}

// Len returns the number of raw (uncoalesced) spans.
func (t *Tracker) Len() int { return len(t.ranges) }

// Ranges returns the coalesced spans without clearing the tracker.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Take returns the coalesced spans and clears the tracker.
func (t *Tracker) Take() []Range {
	out := t.coalesce()
	t.ranges = t.ranges[:0]
	return out
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// coalesce sorts a copy of the ranges and merges overlapping/adjacent ones.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	sorted := make([]Range, len(t.ranges))
	copy(sorted, t.ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Off < sorted[j].Off
	})

	return Merge(sorted)
}

// Merge folds a slice of ranges sorted by Off into non-overlapping ranges.
// Adjacent ranges are joined.
func Merge(sorted []Range) []Range {
	if len(sorted) == 0 {
		return nil
	}
	merged := make([]Range, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Off <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Off
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// Subtract removes every span in cut from the sorted, non-overlapping spans in
// from, returning what remains. Both inputs must be sorted by Off.
func Subtract(from, cut []Range) []Range {
	out := make([]Range, 0, len(from))
	j := 0
	for _, r := range from {
		start, end := r.Off, r.End()
		for j < len(cut) && cut[j].End() <= start {
			j++
		}
		for k := j; k < len(cut) && cut[k].Off < end; k++ {
			if cut[k].Off > start {
				out = append(out, Range{Off: start, Len: cut[k].Off - start})
			}
			if cut[k].End() > start {
				start = cut[k].End()
			}
			if start >= end {
				break
			}
		}
		if start < end {
			out = append(out, Range{Off: start, Len: end - start})
		}
	}
	return out
}
