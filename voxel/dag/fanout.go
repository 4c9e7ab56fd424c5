package dag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/voxkit/internal/format"
)

// child is one occupied sub-cell of a node under construction.
type child struct {
	slot int
	node Node
}

// partial is a set of evaluated children. Partials combine by concatenation
// and mask union, which is associative, so workers may merge in any order.
type partial struct {
	children []child
	mask     uint64
}

func (p partial) combine(o partial) partial {
	return partial{
		children: append(p.children, o.children...),
		mask:     p.mask | o.mask,
	}
}

// canonical sorts children back into slot order. Stored lists must not
// depend on evaluation order, or equal subtrees would stop sharing.
func (p partial) canonical() ([]Node, uint64, error) {
	sort.Slice(p.children, func(i, j int) bool { return p.children[i].slot < p.children[j].slot })
	nodes := make([]Node, len(p.children))
	var seen uint64
	for i, c := range p.children {
		bit := uint64(1) << uint(c.slot)
		if seen&bit != 0 {
			return nil, 0, fmt.Errorf("slot %d evaluated twice: %w", c.slot, ErrCorrupt)
		}
		seen |= bit
		nodes[i] = c.node
	}
	if seen != p.mask {
		return nil, 0, fmt.Errorf("mask %016x disagrees with children %016x: %w", p.mask, seen, ErrCorrupt)
	}
	return nodes, p.mask, nil
}

// childFunc evaluates the sub-cell at slot.
type childFunc func(ctx context.Context, slot int) (Node, error)

// fanOut evaluates all 64 sub-cells of a node at level and returns the
// non-empty ones in slot order.
//
// In parallel mode a sub-cell runs on its own goroutine when a worker slot
// is free and inline otherwise, so nested fan-outs never wait on each other.
// The first failure cancels the remaining work.
func (d *DAG) fanOut(ctx context.Context, level int, fn childFunc) ([]Node, uint64, error) {
	if !d.opts.Parallel || level < d.opts.ParallelMinLevel {
		var acc partial
		for slot := range format.Children {
			n, err := fn(ctx, slot)
			if err != nil {
				return nil, 0, err
			}
			if !n.IsEmpty() {
				acc = acc.combine(partial{children: []child{{slot, n}}, mask: 1 << uint(slot)})
			}
		}
		return acc.canonical()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu  sync.Mutex
		acc partial
	)
	run := func(slot int) error {
		n, err := fn(gctx, slot)
		if err != nil {
			return err
		}
		if n.IsEmpty() {
			return nil
		}
		p := partial{children: []child{{slot, n}}, mask: 1 << uint(slot)}
		mu.Lock()
		acc = acc.combine(p)
		mu.Unlock()
		return nil
	}

	var inlineErr error
	for slot := range format.Children {
		if d.workers.TryAcquire(1) {
			g.Go(func() error {
				defer d.workers.Release(1)
				return run(slot)
			})
			continue
		}
		if err := run(slot); err != nil {
			inlineErr = err
			cancel()
			break
		}
	}
	// a sibling's cancellation must not mask the failure that caused it
	werr := g.Wait()
	switch {
	case inlineErr != nil && !errors.Is(inlineErr, context.Canceled):
		return nil, 0, inlineErr
	case werr != nil:
		return nil, 0, werr
	case inlineErr != nil:
		return nil, 0, inlineErr
	}
	return acc.canonical()
}

// childOffset returns the low corner of sub-cell slot of the node at level.
func childOffset(offset Vec3, level, slot int) Vec3 {
	x, y, z := format.SlotCoords(slot)
	return offset.Add(Vec3{int64(x), int64(y), int64(z)}.Scale(format.CellSize(level - 1)))
}

// slotOf returns the sub-cell of the node at level holding p.
func slotOf(offset Vec3, level int, p Vec3) int {
	size := format.CellSize(level - 1)
	rel := p.Sub(offset)
	return format.Slot(int(rel.X/size), int(rel.Y/size), int(rel.Z/size))
}
