package store

import (
	"sync/atomic"

	"github.com/joshuapare/voxkit/voxel/dirty"
)

type counters struct {
	pushes        atomic.Uint64
	exactHits     atomic.Uint64
	overlapHits   atomic.Uint64
	containedHits atomic.Uint64
	gapReuses     atomic.Uint64
	newChunks     atomic.Uint64
	saved         atomic.Uint64
	written       atomic.Uint64
	removed       atomic.Uint64
}

// Stats is a snapshot of store counters. Element counts are in elements,
// not bytes.
type Stats struct {
	Chunks        int
	Capacity      int64 // elements across all chunks
	Live          int64 // elements inside used ranges
	PendingFree   int   // raw spans queued by Remove
	HashEntries   int
	AllocBytes    uint64 // bytes held from the allocator
	Pushes        uint64
	ExactHits     uint64
	OverlapHits   uint64
	ContainedHits uint64
	GapReuses     uint64
	NewChunks     uint64
	Saved         uint64 // elements not written thanks to sharing
	Written       uint64
	Removed       uint64
}

// DedupRatio returns the fraction of pushed elements that were shared.
func (s Stats) DedupRatio() float64 {
	total := s.Saved + s.Written
	if total == 0 {
		return 0
	}
	return float64(s.Saved) / float64(total)
}

// Stats returns a snapshot of the store.
func (s *Store[T]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Chunks:        len(s.chunks),
		Pushes:        s.pushes.Load(),
		ExactHits:     s.exactHits.Load(),
		OverlapHits:   s.overlapHits.Load(),
		ContainedHits: s.containedHits.Load(),
		GapReuses:     s.gapReuses.Load(),
		NewChunks:     s.newChunks.Load(),
		Saved:         s.saved.Load(),
		Written:       s.written.Load(),
		Removed:       s.removed.Load(),
	}
	for _, c := range s.chunks {
		st.Capacity += int64(len(c.data))
		st.Live += c.usedLen()
		st.PendingFree += c.freed.Len()
		st.HashEntries += c.hashes.Len()
		st.AllocBytes += c.alloc.Size()
	}
	return st
}

// Live returns every used range as global index spans, in chunk order.
func (s *Store[T]) Live() []dirty.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []dirty.Range
	for _, c := range s.chunks {
		for _, r := range c.used {
			out = append(out, dirty.Range{Off: int64(c.base) + r.Off, Len: r.Len})
		}
	}
	return out
}
