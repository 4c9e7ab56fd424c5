package dag

import (
	"context"
	"fmt"

	"github.com/joshuapare/voxkit/internal/format"
)

// Build builds the cell of edge 4^level at offset and returns its node. The
// node is stored but not registered; pass it to Register to keep it.
func (d *DAG) Build(ctx context.Context, src Source, offset Vec3, level int) (Node, error) {
	if level < 1 || level > format.MaxLevels {
		return Node{}, fmt.Errorf("build level %d: %w", level, ErrBadLevel)
	}
	d.gc.RLock()
	defer d.gc.RUnlock()
	return d.build(ctx, src, offset, level)
}

// Create builds src over the smallest cube covering its bounds and
// registers it.
func (d *DAG) Create(ctx context.Context, src Source) (Key, error) {
	b := src.Bounds()
	levels := format.LevelsFor(max(b.MaxExtent(), 1))
	if levels > format.MaxLevels {
		return Key{}, fmt.Errorf("create %v: %d levels: %w", b, levels, ErrBadLevel)
	}
	d.gc.RLock()
	defer d.gc.RUnlock()
	n, err := d.build(ctx, src, b.Min, levels)
	if err != nil {
		return Key{}, err
	}
	return d.register(b.Min, levels, n)
}

func (d *DAG) build(ctx context.Context, src Source, offset Vec3, level int) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}
	s := src.SampleBox(Cube(offset, format.CellSize(level)))
	switch {
	case s.Full:
		return d.uniform(s.Value)
	case level == 1:
		return d.sparseLeaf(src, offset)
	}

	nodes, mask, err := d.fanOut(ctx, level, func(ctx context.Context, slot int) (Node, error) {
		return d.build(ctx, src, childOffset(offset, level, slot), level-1)
	})
	if err != nil {
		return Node{}, err
	}
	return d.interior(nodes, mask)
}

// uniform returns the node of a cell filled with v: empty for 0, otherwise
// a full leaf whose 64 sub-cells all hold v.
func (d *DAG) uniform(v Value) (Node, error) {
	if v == 0 {
		return format.Empty, nil
	}
	var payload [format.Children]Value
	for i := range payload {
		payload[i] = v
	}
	ptr, err := d.leaves.Push(payload[:])
	if err != nil {
		return Node{}, fmt.Errorf("uniform leaf %d: %w", v, exhausted(err))
	}
	return Node{Leaf: true, Pointer: ptr, Mask: format.FullMask}, nil
}

// sparseLeaf samples the 64 voxels of a level-1 cell.
func (d *DAG) sparseLeaf(src Source, offset Vec3) (Node, error) {
	var (
		mask    uint64
		payload = make([]Value, 0, format.Children)
	)
	for slot := range format.Children {
		x, y, z := format.SlotCoords(slot)
		v := src.ValueAt(offset.Add(Vec3{int64(x), int64(y), int64(z)}))
		if v == 0 {
			continue
		}
		mask |= 1 << uint(slot)
		payload = append(payload, v)
	}
	if mask == 0 {
		return format.Empty, nil
	}
	ptr, err := d.leaves.Push(payload)
	if err != nil {
		return Node{}, fmt.Errorf("leaf at %v: %w", offset, exhausted(err))
	}
	return Node{Leaf: true, Pointer: ptr, Mask: mask}, nil
}

// interior stores a compact child list.
func (d *DAG) interior(children []Node, mask uint64) (Node, error) {
	if mask == 0 {
		return format.Empty, nil
	}
	ptr, err := d.nodes.Push(children)
	if err != nil {
		return Node{}, fmt.Errorf("push %d children: %w", len(children), exhausted(err))
	}
	return Node{Pointer: ptr, Mask: mask}, nil
}
