// Package format defines the binary layout of voxel DAG records.
//
// Node records are the one byte layout other components depend on: GPU
// traversal code reads them verbatim, so the layout is versioned and only
// produced through EncodeNode and consumed through DecodeNode.
//
// Layout (version 1, little endian):
//
//	0x00  uint32  pointer (bits 0-30), leaf flag (bit 31)
//	0x04  uint64  occupancy mask, bit i set iff sub-cell i is non-empty
//
// Leaf payloads are one material byte per set mask bit in canonical slot order.
package format

const (
	// Version is the current record layout version.
	Version uint8 = 1

	// NodeRecordSize is the encoded size of a node record in bytes.
	NodeRecordSize = 12

	// ValueSize is the encoded size of one leaf material value.
	ValueSize = 1

	// Branching is the number of sub-cells per axis of every node.
	Branching = 4

	// Children is the number of sub-cells of every node (4x4x4).
	Children = Branching * Branching * Branching

	// FullMask has every sub-cell occupied.
	FullMask uint64 = 0xFFFF_FFFF_FFFF_FFFF

	// leafFlag marks the pointer field of a leaf record.
	leafFlag uint32 = 1 << 31

	// MaxPointer is the largest pointer representable in a record.
	MaxPointer uint32 = leafFlag - 1

	// MaxLevels bounds the depth of a DAG so extents fit in int32 coordinates.
	MaxLevels = 15
)

// Offsets within a node record.
const (
	nodePointerOffset = 0
	nodeMaskOffset    = 4
)
