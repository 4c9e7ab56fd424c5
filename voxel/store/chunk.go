package store

import (
	"sort"

	"github.com/joshuapare/voxkit/voxel/buddy"
	"github.com/joshuapare/voxkit/voxel/dirty"
	"github.com/joshuapare/voxkit/voxel/hashcache"
)

// chunk is one allocator block viewed as a slice of elements.
//   - used holds sorted, non-overlapping live ranges (element units)
//   - written holds ranges modified since the last Flush
//   - freed holds ranges queued by Remove until the next Optimize
type chunk[T comparable] struct {
	alloc *buddy.Allocation
	base  uint32
	data  []T

	used    []dirty.Range
	written *dirty.Tracker
	freed   *dirty.Tracker
	hashes  *hashcache.Cache
}

func newChunk[T comparable](h *buddy.Allocation, base uint32, capacity int, cacheCap int) *chunk[T] {
	return &chunk[T]{
		alloc:   h,
		base:    base,
		data:    make([]T, capacity),
		written: dirty.NewTracker(),
		freed:   dirty.NewTracker(),
		hashes:  hashcache.New(cacheCap),
	}
}

func (c *chunk[T]) capacity() int { return len(c.data) }

// contains reports whether the global index idx falls inside this chunk.
func (c *chunk[T]) contains(idx uint32) bool {
	return idx >= c.base && uint64(idx) < uint64(c.base)+uint64(len(c.data))
}

// limitAfter returns the first element past the free space following used
// range i.
func (c *chunk[T]) limitAfter(i int) int64 {
	if i+1 < len(c.used) {
		return c.used[i+1].Off
	}
	return int64(len(c.data))
}

// live reports whether [off, off+n) lies inside a single used range.
func (c *chunk[T]) live(off, n int64) bool {
	i := sort.Search(len(c.used), func(i int) bool { return c.used[i].End() > off })
	return i < len(c.used) && c.used[i].Off <= off && off+n <= c.used[i].End()
}

// write copies values to local offset off and marks the span used and dirty.
func (c *chunk[T]) write(off int64, values []T) {
	if len(values) == 0 {
		return
	}
	copy(c.data[off:], values)
	c.written.Add(off, int64(len(values)))
	c.markUsed(off, int64(len(values)))
}

// markUsed inserts [off, off+n) into the used list, merging neighbours.
func (c *chunk[T]) markUsed(off, n int64) {
	i := sort.Search(len(c.used), func(i int) bool { return c.used[i].Off > off })
	c.used = append(c.used, dirty.Range{})
	copy(c.used[i+1:], c.used[i:])
	c.used[i] = dirty.Range{Off: off, Len: n}
	c.used = dirty.Merge(c.used)
}

// firstGap returns the offset of the first free gap holding n elements.
func (c *chunk[T]) firstGap(n int64) (int64, bool) {
	prev := int64(0)
	for _, r := range c.used {
		if r.Off-prev >= n {
			return prev, true
		}
		prev = r.End()
	}
	if int64(len(c.data))-prev >= n {
		return prev, true
	}
	return 0, false
}

// usedLen returns the number of live elements.
func (c *chunk[T]) usedLen() int64 {
	var n int64
	for _, r := range c.used {
		n += r.Len
	}
	return n
}
