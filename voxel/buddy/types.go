package buddy

import "math/bits"

// Block is an allocated or free span [Start, Start+Size).
type Block struct {
	Start uint64
	Size  uint64
}

// End returns the exclusive end of b.
func (b Block) End() uint64 { return b.Start + b.Size }

// CoalescePolicy selects how far Dealloc merges a released block.
type CoalescePolicy uint8

const (
	// CoalesceCascade merges repeatedly while the buddy is free.
	CoalesceCascade CoalescePolicy = iota
	// CoalesceSingle performs at most one merge per Dealloc.
	CoalesceSingle
)

func (p CoalescePolicy) String() string {
	switch p {
	case CoalesceCascade:
		return "cascade"
	case CoalesceSingle:
		return "single"
	default:
		return "unknown"
	}
}

// Stats holds allocator counters for testing and instrumentation.
type Stats struct {
	AllocCalls   int    // Total Alloc() calls
	AllocFailed  int    // Alloc() calls that returned ErrOutOfMemory
	FreeCalls    int    // Total successful Dealloc() calls
	Splits       int    // Block halvings during Alloc()
	Merges       int    // Buddy merges (Dealloc and Coalesce)
	BytesInUse   uint64 // Bytes currently handed out
	PeakInUse    uint64 // High-water mark of BytesInUse
	LiveBlocks   int    // Blocks currently handed out
	FreeBlocks   int    // Blocks on all free lists
	LargestFree  uint64 // Size of the largest free block
	RegionSize   uint64
	MinBlockSize uint64
}

func isPow2(v uint64) bool { return v != 0 && v&(v-1) == 0 }

// log2 returns log2(v) for a power of two v.
func log2(v uint64) uint { return uint(bits.TrailingZeros64(v)) }

// ceilLog2 returns the smallest n with 1<<n >= v.
func ceilLog2(v uint64) uint {
	if v <= 1 {
		return 0
	}
	return uint(bits.Len64(v - 1))
}
