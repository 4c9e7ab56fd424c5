package buddy

import (
	"fmt"
)

// Allocator is a buddy allocator over [0, size).
//   - free[k] holds free blocks of order minOrder+k (stack, popped from the end)
//   - freeIdx[k] maps start -> position in free[k] for O(1) buddy lookup and removal
//   - sizes maps the start of every live block to its size
type Allocator struct {
	size     uint64
	minOrder uint
	maxOrder uint
	policy   CoalescePolicy

	free    [][]Block
	freeIdx []map[uint64]int
	sizes   map[uint64]uint64

	stats Stats
}

// New creates an allocator for a region of size bytes with blocks no smaller
// than minBlock. Both must be powers of two and minBlock <= size.
func New(size, minBlock uint64, policy CoalescePolicy) (*Allocator, error) {
	if !isPow2(size) || !isPow2(minBlock) || minBlock > size {
		return nil, fmt.Errorf("new allocator size=%d min=%d: %w", size, minBlock, ErrBadConfig)
	}

	a := &Allocator{
		size:     size,
		minOrder: log2(minBlock),
		maxOrder: log2(size),
		policy:   policy,
		sizes:    make(map[uint64]uint64),
	}
	levels := int(a.maxOrder-a.minOrder) + 1
	a.free = make([][]Block, levels)
	a.freeIdx = make([]map[uint64]int, levels)
	for k := range levels {
		a.freeIdx[k] = make(map[uint64]int)
	}
	a.pushFree(a.maxOrder, Block{Start: 0, Size: size})
	a.stats.RegionSize = size
	a.stats.MinBlockSize = minBlock
	return a, nil
}

// Size returns the region size in bytes.
func (a *Allocator) Size() uint64 { return a.size }

// MinBlock returns the smallest block size handed out.
func (a *Allocator) MinBlock() uint64 { return uint64(1) << a.minOrder }

// Policy returns the coalescing policy.
func (a *Allocator) Policy() CoalescePolicy { return a.policy }

// InUse returns the number of bytes currently allocated.
func (a *Allocator) InUse() uint64 { return a.stats.BytesInUse }

// Alloc returns a block of at least size bytes.
//
// The block order is max(minOrder, ceil(log2(size))). If that free list is
// empty the smallest larger free block is split down, pushing each unused
// upper half onto the free list of its order.
func (a *Allocator) Alloc(size uint64) (Block, error) {
	a.stats.AllocCalls++

	n := max(a.minOrder, ceilLog2(size))
	if n > a.maxOrder {
		a.stats.AllocFailed++
		return Block{}, fmt.Errorf("alloc %d bytes: %w", size, ErrOutOfMemory)
	}

	m := n
	for m <= a.maxOrder && len(a.free[m-a.minOrder]) == 0 {
		m++
	}
	if m > a.maxOrder {
		a.stats.AllocFailed++
		return Block{}, fmt.Errorf("alloc %d bytes (order %d): %w", size, n, ErrOutOfMemory)
	}

	blk := a.popFree(m)
	for m > n {
		m--
		half := uint64(1) << m
		a.pushFree(m, Block{Start: blk.Start + half, Size: half})
		blk.Size = half
		a.stats.Splits++
	}

	a.sizes[blk.Start] = blk.Size
	a.stats.BytesInUse += blk.Size
	a.stats.LiveBlocks++
	if a.stats.BytesInUse > a.stats.PeakInUse {
		a.stats.PeakInUse = a.stats.BytesInUse
	}
	return blk, nil
}

// Dealloc releases the block starting at start and merges it with its buddy
// according to the coalescing policy.
func (a *Allocator) Dealloc(start uint64) error {
	size, ok := a.sizes[start]
	if !ok {
		return fmt.Errorf("dealloc %#x: %w", start, ErrInvalidRelease)
	}
	delete(a.sizes, start)
	a.stats.FreeCalls++
	a.stats.BytesInUse -= size
	a.stats.LiveBlocks--

	blk := Block{Start: start, Size: size}
	order := log2(size)
	a.pushFree(order, blk)

	for order < a.maxOrder {
		merged, ok := a.mergeWithBuddy(order, blk)
		if !ok {
			break
		}
		blk = merged
		order++
		if a.policy == CoalesceSingle {
			break
		}
	}
	return nil
}

// mergeWithBuddy merges blk (already on free[order]) with its buddy when the
// buddy is free too. The merged block is pushed onto free[order+1].
func (a *Allocator) mergeWithBuddy(order uint, blk Block) (Block, bool) {
	buddy := blk.Start ^ blk.Size
	if _, free := a.freeIdx[order-a.minOrder][buddy]; !free {
		return Block{}, false
	}
	a.removeFree(order, blk.Start)
	a.removeFree(order, buddy)
	merged := Block{Start: min(blk.Start, buddy), Size: blk.Size << 1}
	a.pushFree(order+1, merged)
	a.stats.Merges++
	return merged, true
}

// Coalesce merges every free buddy pair, lowest order first, so merges
// cascade upward. It returns the number of merges performed.
func (a *Allocator) Coalesce() int {
	merges := 0
	for order := a.minOrder; order < a.maxOrder; order++ {
		k := order - a.minOrder
		snapshot := make([]Block, len(a.free[k]))
		copy(snapshot, a.free[k])
		for _, blk := range snapshot {
			if _, still := a.freeIdx[k][blk.Start]; !still {
				continue
			}
			if _, ok := a.mergeWithBuddy(order, blk); ok {
				merges++
			}
		}
	}
	return merges
}

// FreeBlocks returns a copy of the free list for blocks of the given size.
func (a *Allocator) FreeBlocks(size uint64) []Block {
	if !isPow2(size) {
		return nil
	}
	order := log2(size)
	if order < a.minOrder || order > a.maxOrder {
		return nil
	}
	out := make([]Block, len(a.free[order-a.minOrder]))
	copy(out, a.free[order-a.minOrder])
	return out
}

// SizeOf returns the size of the live block starting at start.
func (a *Allocator) SizeOf(start uint64) (uint64, bool) {
	size, ok := a.sizes[start]
	return size, ok
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.FreeBlocks = 0
	s.LargestFree = 0
	for k, list := range a.free {
		s.FreeBlocks += len(list)
		if len(list) > 0 {
			s.LargestFree = max(s.LargestFree, uint64(1)<<(a.minOrder+uint(k)))
		}
	}
	return s
}

// Reset forgets every allocation and returns the allocator to a single free
// top-order block. Outstanding blocks become invalid.
func (a *Allocator) Reset() {
	for k := range a.free {
		a.free[k] = a.free[k][:0]
		clear(a.freeIdx[k])
	}
	clear(a.sizes)
	a.pushFree(a.maxOrder, Block{Start: 0, Size: a.size})
	a.stats.BytesInUse = 0
	a.stats.LiveBlocks = 0
}

func (a *Allocator) pushFree(order uint, blk Block) {
	k := order - a.minOrder
	a.freeIdx[k][blk.Start] = len(a.free[k])
	a.free[k] = append(a.free[k], blk)
}

func (a *Allocator) popFree(order uint) Block {
	k := order - a.minOrder
	last := len(a.free[k]) - 1
	blk := a.free[k][last]
	a.free[k] = a.free[k][:last]
	delete(a.freeIdx[k], blk.Start)
	return blk
}

// removeFree swap-removes the block starting at start from free[order].
func (a *Allocator) removeFree(order uint, start uint64) {
	k := order - a.minOrder
	pos, ok := a.freeIdx[k][start]
	if !ok {
		return
	}
	last := len(a.free[k]) - 1
	if pos != last {
		moved := a.free[k][last]
		a.free[k][pos] = moved
		a.freeIdx[k][moved.Start] = pos
	}
	a.free[k] = a.free[k][:last]
	delete(a.freeIdx[k], start)
}
