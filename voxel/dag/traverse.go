package dag

import (
	"fmt"

	"github.com/joshuapare/voxkit/internal/format"
)

// ValueAt returns the material at p in k's volume. Points outside the
// entry's cube are empty.
func (d *DAG) ValueAt(k Key, p Vec3) (Value, error) {
	e, err := d.Entry(k)
	if err != nil {
		return 0, err
	}
	if !e.Bounds().Contains(p) {
		return 0, nil
	}
	n, err := d.Node(e.Root)
	if err != nil {
		return 0, fmt.Errorf("%v root %d: %w", k, e.Root, err)
	}

	offset, level := e.Offset, int(e.Levels)
	for {
		slot := slotOf(offset, level, p)
		if !n.Has(slot) {
			return 0, nil
		}
		idx := n.Pointer + uint32(n.Position(slot))
		if n.Leaf {
			return d.leaves.Get(idx)
		}
		if level == 1 {
			return 0, fmt.Errorf("interior node at level 1: %w", ErrCorrupt)
		}
		if n, err = d.nodes.Get(idx); err != nil {
			return 0, err
		}
		offset = childOffset(offset, level, slot)
		level--
	}
}

// Visit describes one node reached by Walk.
type Visit struct {
	Node   Node
	Level  int
	Offset Vec3 // offset of the first path that reached the node
}

// Walk calls fn once for every distinct non-empty node reachable from k,
// parents before children. A node shared by several parents is visited, and
// descended into, only the first time.
func (d *DAG) Walk(k Key, fn func(Visit) error) error {
	e, err := d.Entry(k)
	if err != nil {
		return err
	}
	root, err := d.Node(e.Root)
	if err != nil {
		return err
	}
	seen := make(map[visitKey]struct{})
	return d.walk(Visit{Node: root, Level: int(e.Levels), Offset: e.Offset}, seen, fn)
}

type visitKey struct {
	node  Node
	level int
}

func (d *DAG) walk(v Visit, seen map[visitKey]struct{}, fn func(Visit) error) error {
	if v.Node.IsEmpty() {
		return nil
	}
	key := visitKey{v.Node, v.Level}
	if _, ok := seen[key]; ok {
		return nil
	}
	seen[key] = struct{}{}
	if err := fn(v); err != nil {
		return err
	}
	if v.Node.Leaf {
		return nil
	}
	children, err := d.Children(v.Node)
	if err != nil {
		return err
	}
	for slot := range format.Children {
		if !v.Node.Has(slot) {
			continue
		}
		c := Visit{
			Node:   children[v.Node.Position(slot)],
			Level:  v.Level - 1,
			Offset: childOffset(v.Offset, v.Level, slot),
		}
		if err := d.walk(c, seen, fn); err != nil {
			return err
		}
	}
	return nil
}

// Summary describes the structure of one entry.
type Summary struct {
	Entry    Entry
	Interior int   // distinct interior nodes
	Leaves   int   // distinct leaves
	Filled   int64 // non-empty voxels
	Voxels   int64 // voxels in the entry's cube
}

// Inspect walks k and counts its distinct nodes and filled voxels.
func (d *DAG) Inspect(k Key) (Summary, error) {
	e, err := d.Entry(k)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Entry: e}
	ext := e.Extent()
	s.Voxels = ext * ext * ext

	filled := make(map[visitKey]int64)
	err = d.Walk(k, func(v Visit) error {
		if v.Node.Leaf {
			s.Leaves++
			sub := format.CellSize(v.Level - 1)
			filled[visitKey{v.Node, v.Level}] = int64(v.Node.Count()) * sub * sub * sub
		} else {
			s.Interior++
		}
		return nil
	})
	if err != nil {
		return s, err
	}

	root, err := d.Node(e.Root)
	if err != nil {
		return s, err
	}
	s.Filled, err = d.countFilled(root, int(e.Levels), filled)
	return s, err
}

// countFilled sums leaf voxel counts bottom up, memoized per node.
func (d *DAG) countFilled(n Node, level int, memo map[visitKey]int64) (int64, error) {
	if n.IsEmpty() {
		return 0, nil
	}
	key := visitKey{n, level}
	if c, ok := memo[key]; ok {
		return c, nil
	}
	children, err := d.Children(n)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range children {
		m, err := d.countFilled(c, level-1, memo)
		if err != nil {
			return 0, err
		}
		total += m
	}
	memo[key] = total
	return total, nil
}
