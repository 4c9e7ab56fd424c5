// Package store implements a deduplicating, append-mostly element store.
//
// # Overview
//
// A Store holds fixed-size elements (bytes, node records, ...) in chunks
// whose memory comes from a shared buddy allocator. Push returns a stable
// global index for a slice of elements and reuses previously stored content
// whenever it can:
//
//  1. Exact match: the content hash is looked up in every chunk's hash cache.
//  2. Overlap-extend: if a used range already ends with a prefix of the
//     values, only the remaining suffix is written right after it. Full
//     containment inside a used range costs no write at all.
//  3. Free-gap reuse: the first gap large enough between or after used ranges.
//  4. New chunk: max(MinAllocBytes, len*elemSize) bytes from the allocator.
//
// # Strategies
//
// The overlap search in step 2 is pluggable; all strategies honour the same
// contract and differ in cost and in how much sharing they find:
//
//	StrategyExact       hash cache only
//	StrategyOverlap     suffix/prefix overlap at every used-range end (default)
//	StrategySubstring   KMP per used range: containment anywhere + best overlap
//	StrategyBruteForce  parallel scan of every position of every chunk
//
// # Indices
//
// Each chunk gets a base index when it is created; bases grow monotonically
// by chunk capacity, so an index never moves. Index 0 is returned for empty
// pushes and is also a valid element index, callers that need a null
// sentinel (the voxel DAG uses mask 0) must carry it separately.
//
// # Removal
//
// Remove only queues a span on its chunk's pending-free list. Optimize
// merges the queue, returns the spans to the chunk's free space and forgets
// any cached content overlapping them. Memory is never returned to the
// allocator before Close. Because content is shared, removing a span that
// another push still refers to is the caller's bug.
//
// # Thread Safety
//
// Store is safe for concurrent use. Exact-match lookup runs under a read
// lock; anything that writes takes the exclusive lock and looks again
// before writing. All elements of a push are written before its index is
// returned.
package store
