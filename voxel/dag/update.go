package dag

import (
	"context"
	"fmt"

	"github.com/joshuapare/voxkit/internal/format"
)

// Update rebuilds the cells of k's volume that intersect region from src and
// registers the result under a new key. k stays valid and keeps its old
// content; every node outside region is shared by both entries.
func (d *DAG) Update(ctx context.Context, k Key, src Source, region AABB) (Key, error) {
	d.gc.RLock()
	defer d.gc.RUnlock()

	e, err := d.update(ctx, k, src, region)
	if err != nil {
		return Key{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.add(e), nil
}

// UpdateInPlace is Update that rebinds k to the new root instead of issuing
// a new key.
func (d *DAG) UpdateInPlace(ctx context.Context, k Key, src Source, region AABB) error {
	d.gc.RLock()
	defer d.gc.RUnlock()

	e, err := d.update(ctx, k, src, region)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.set(k, e)
}

func (d *DAG) update(ctx context.Context, k Key, src Source, region AABB) (Entry, error) {
	e, err := d.Entry(k)
	if err != nil {
		return Entry{}, err
	}
	root, err := d.Node(e.Root)
	if err != nil {
		return Entry{}, fmt.Errorf("%v root %d: %w", k, e.Root, err)
	}
	if region.Empty() {
		return e, nil
	}

	offset, levels := e.Offset, int(e.Levels)
	offset, levels, root, err = d.grow(offset, levels, root, region)
	if err != nil {
		return Entry{}, err
	}

	root, err = d.rebuild(ctx, src, root, offset, levels, region)
	if err != nil {
		return Entry{}, err
	}
	return d.rootEntry(offset, levels, root)
}

// grow adds levels above root until its cube contains region. Each new root
// has the old root as its only child, in the slot that extends the cube
// toward the region on every axis.
func (d *DAG) grow(offset Vec3, levels int, root Node, region AABB) (Vec3, int, Node, error) {
	for !Cube(offset, format.CellSize(levels)).ContainsBox(region) {
		if levels >= format.MaxLevels {
			return offset, levels, root, fmt.Errorf("grow toward %v: %w", region, ErrBadLevel)
		}
		size := format.CellSize(levels)
		sx := growSlot(offset.X, size, region.Min.X, region.Max.X)
		sy := growSlot(offset.Y, size, region.Min.Y, region.Max.Y)
		sz := growSlot(offset.Z, size, region.Min.Z, region.Max.Z)

		next := Node{}
		if !root.IsEmpty() {
			slot := format.Slot(sx, sy, sz)
			var err error
			next, err = d.interior([]Node{root}, 1<<uint(slot))
			if err != nil {
				return offset, levels, root, err
			}
		}
		offset = offset.Sub(Vec3{int64(sx), int64(sy), int64(sz)}.Scale(size))
		levels++
		root = next
		d.log.Debug("grow root",
			"levels", levels,
			"offset", offset.String(),
			"slot", format.Slot(sx, sy, sz))
	}
	return offset, levels, root, nil
}

// growSlot picks the position of the old cube [lo, lo+size) along one axis
// of a parent four times as wide.
func growSlot(lo, size, rmin, rmax int64) int {
	below := rmin < lo
	above := rmax > lo+size
	switch {
	case below && above:
		return 1
	case below:
		return 3
	default:
		return 0
	}
}

// rebuild is the copy-on-write step for one node. Leaves and level-1 nodes
// are rebuilt whole; interior nodes keep every child outside region.
func (d *DAG) rebuild(ctx context.Context, src Source, n Node, offset Vec3, level int, region AABB) (Node, error) {
	if n.Leaf || level == 1 {
		return d.build(ctx, src, offset, level)
	}
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}

	existing, err := d.Children(n)
	if err != nil {
		return Node{}, fmt.Errorf("children of %v: %w", n, err)
	}
	childSize := format.CellSize(level - 1)

	nodes, mask, err := d.fanOut(ctx, level, func(ctx context.Context, slot int) (Node, error) {
		sub := childOffset(offset, level, slot)
		cell := Cube(sub, childSize)
		var old Node
		if n.Has(slot) {
			old = existing[n.Position(slot)]
		}
		switch {
		case !region.Intersects(cell):
			return old, nil
		case old.IsEmpty() || region.ContainsBox(cell):
			return d.build(ctx, src, sub, level-1)
		default:
			return d.rebuild(ctx, src, old, sub, level-1, region)
		}
	})
	if err != nil {
		return Node{}, err
	}
	return d.interior(nodes, mask)
}
