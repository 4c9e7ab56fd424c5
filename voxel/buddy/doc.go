// Package buddy provides a power-of-two buddy allocator over a flat address space.
//
// # Overview
//
// An Allocator manages a region of Size bytes (a power of two) and hands out
// blocks whose sizes are powers of two no smaller than MinBlock. Free blocks
// live in one free list per order (log2 of the block size). Allocation pops
// the requested order or splits the smallest larger free block; release
// pushes the block back and merges it with its buddy, found at
// start XOR size.
//
// # Coalescing Policy
//
// The merge step on release is configurable:
//
//   - CoalesceSingle: at most one merge per Dealloc (bounded latency). Pairs
//     one order up may stay split until Coalesce is called.
//   - CoalesceCascade: keep merging while the merged block's buddy is free.
//
// Coalesce performs a full pass over every order, so an allocator that has
// had every block released always ends with a single top-order block after
// Coalesce, whichever policy is in use.
//
// # Usage Example
//
//	a, err := buddy.New(1<<20, 256, buddy.CoalesceCascade)
//	if err != nil {
//	    return err
//	}
//	blk, err := a.Alloc(3000) // 4096-byte block
//	if err != nil {
//	    return err // buddy.ErrOutOfMemory
//	}
//	defer a.Dealloc(blk.Start)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Shared wraps an Allocator behind a
// mutex and returns refcounted Allocation handles whose final Release
// re-acquires the lock and deallocates. A handle that is never released leaks
// its block until the allocator is discarded.
package buddy
