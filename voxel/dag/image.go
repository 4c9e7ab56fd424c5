package dag

import (
	"fmt"
	"slices"

	"github.com/joshuapare/voxkit/internal/buf"
	"github.com/joshuapare/voxkit/internal/format"
)

// VerifyImage decodes the records of entry k from image, a flush destination
// laid out like the allocator region, and checks them against the stores.
// Every child list, leaf payload and the root record must match.
func (d *DAG) VerifyImage(k Key, image []byte) error {
	e, err := d.Entry(k)
	if err != nil {
		return err
	}
	root, err := d.Node(e.Root)
	if err != nil {
		return err
	}
	got, err := d.decodeNodes(image, e.Root, 1)
	if err != nil {
		return fmt.Errorf("verify %v root: %w", k, err)
	}
	if got[0] != root {
		return fmt.Errorf("verify %v root: image has %v, store has %v: %w", k, got[0], root, ErrCorrupt)
	}

	return d.Walk(k, func(v Visit) error {
		if v.Node.Leaf {
			return d.verifyLeaf(image, v)
		}
		want, err := d.Children(v.Node)
		if err != nil {
			return err
		}
		got, err := d.decodeNodes(image, v.Node.Pointer, len(want))
		if err != nil {
			return fmt.Errorf("verify %v at %v: %w", v.Node, v.Offset, err)
		}
		if !slices.Equal(got, want) {
			return fmt.Errorf("verify %v at %v: child list differs: %w", v.Node, v.Offset, ErrCorrupt)
		}
		return nil
	})
}

// decodeNodes reads count node records stored from global index ptr.
func (d *DAG) decodeNodes(image []byte, ptr uint32, count int) ([]Node, error) {
	at, err := d.nodes.ByteOffset(ptr)
	if err != nil {
		return nil, err
	}
	if at > int64(len(image)) {
		return nil, fmt.Errorf("records at %#x: %w", at, format.ErrTruncated)
	}
	return format.DecodeNodes(image[at:], 0, count)
}

func (d *DAG) verifyLeaf(image []byte, v Visit) error {
	at, err := d.leaves.ByteOffset(v.Node.Pointer)
	if err != nil {
		return err
	}
	payload, ok := buf.Slice(image, int(at), v.Node.Count()*format.ValueSize)
	if !ok {
		return fmt.Errorf("verify %v at %v: payload at %#x: %w", v.Node, v.Offset, at, format.ErrTruncated)
	}
	if err := format.CheckLeafPayload(v.Node.Mask, payload); err != nil {
		return fmt.Errorf("verify %v at %v: %w", v.Node, v.Offset, err)
	}
	want, err := d.Leaves(v.Node.Pointer, v.Node.Count())
	if err != nil {
		return err
	}
	if !slices.Equal(payload, want) {
		return fmt.Errorf("verify %v at %v: payload differs: %w", v.Node, v.Offset, ErrCorrupt)
	}
	return nil
}
