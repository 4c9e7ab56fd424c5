package format

import (
	"fmt"
	"math/bits"

	"github.com/joshuapare/voxkit/internal/buf"
)

// Node is one DAG node. Pointer indexes the node store (interior nodes) or
// the leaf store (leaves); Mask marks occupied sub-cells.
type Node struct {
	Leaf    bool
	Pointer uint32
	Mask    uint64
}

// Empty is the canonical empty node. It never owns storage.
var Empty = Node{}

// IsEmpty reports whether n has no occupied sub-cells.
func (n Node) IsEmpty() bool { return n.Mask == 0 }

// Count returns the number of occupied sub-cells, which is also the length of
// the compact list at Pointer.
func (n Node) Count() int { return bits.OnesCount64(n.Mask) }

// Has reports whether sub-cell slot is occupied.
func (n Node) Has(slot int) bool { return n.Mask&(1<<uint(slot)) != 0 }

// Position returns the index of slot's payload within the compact list.
// The result is only meaningful when Has(slot) is true.
func (n Node) Position(slot int) int {
	return bits.OnesCount64(n.Mask & (1<<uint(slot) - 1))
}

func (n Node) String() string {
	kind := "node"
	if n.Leaf {
		kind = "leaf"
	}
	return fmt.Sprintf("%s{ptr=%d mask=%016x}", kind, n.Pointer, n.Mask)
}

// EncodeNode writes n into b using the current layout version.
func EncodeNode(b []byte, n Node) error {
	if len(b) < NodeRecordSize {
		return fmt.Errorf("encode node: %w", ErrTruncated)
	}
	if n.Pointer > MaxPointer {
		return fmt.Errorf("encode node %d: %w", n.Pointer, ErrPointerRange)
	}
	word := n.Pointer
	if n.Leaf {
		word |= leafFlag
	}
	buf.PutU32LE(b[nodePointerOffset:], word)
	buf.PutU64LE(b[nodeMaskOffset:], n.Mask)
	return nil
}

// DecodeNode reads a node record written by EncodeNode.
func DecodeNode(b []byte) (Node, error) {
	return DecodeNodeVersion(Version, b)
}

// DecodeNodeVersion reads a node record of the given layout version.
func DecodeNodeVersion(version uint8, b []byte) (Node, error) {
	if version != Version {
		return Node{}, fmt.Errorf("decode node v%d: %w", version, ErrUnsupportedVersion)
	}
	if len(b) < NodeRecordSize {
		return Node{}, fmt.Errorf("decode node: %w", ErrTruncated)
	}
	word := buf.U32LE(b[nodePointerOffset:])
	return Node{
		Leaf:    word&leafFlag != 0,
		Pointer: word &^ leafFlag,
		Mask:    buf.U64LE(b[nodeMaskOffset:]),
	}, nil
}

// DecodeNodes reads count records starting at record index first of b.
func DecodeNodes(b []byte, first, count int) ([]Node, error) {
	if _, err := buf.CheckRecords(len(b), first, count, NodeRecordSize); err != nil {
		return nil, fmt.Errorf("node list: %w: %w", ErrTruncated, err)
	}
	out := make([]Node, count)
	for i := range count {
		n, err := DecodeNode(b[(first+i)*NodeRecordSize:])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// CheckLeafPayload validates that a leaf payload matches its mask.
func CheckLeafPayload(mask uint64, payload []byte) error {
	if want := bits.OnesCount64(mask); len(payload) != want*ValueSize {
		return fmt.Errorf("leaf payload has %d bytes, mask wants %d: %w", len(payload), want, ErrMaskMismatch)
	}
	return nil
}
