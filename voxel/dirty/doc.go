// Package dirty tracks spans of a linear address space and coalesces them.
//
// # Overview
//
// A Tracker accumulates [Off, Off+Len) spans with Add and later returns them
// sorted and merged. The element store uses two trackers per chunk:
//
//   - a dirty tracker recording which elements were written since the last
//     flush, so Flush only copies changed spans to the destination;
//   - a pending-free tracker recording spans handed to Remove, which Optimize
//     merges before returning them to the chunk's free space.
//
// Collect also gathers the byte spans it frees in a tracker so callers can
// discard them from a flushed region.
//
// # Range Coalescing
//
// Overlapping and adjacent spans are merged:
//
//	Added: [0,4) [4,8) [10,12) [11,20) -> Ranges: [0,8) [10,20)
//
// # Thread Safety
//
// Tracker instances are not thread-safe. The store only touches them while
// holding its write lock.
package dirty
