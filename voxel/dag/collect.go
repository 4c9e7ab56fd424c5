package dag

import (
	"errors"
	"sort"

	"github.com/joshuapare/voxkit/internal/format"
	"github.com/joshuapare/voxkit/voxel/dirty"
	"github.com/joshuapare/voxkit/voxel/store"
)

// CollectResult summarizes one Collect pass.
type CollectResult struct {
	NodesFreed  int64 // node records returned to free space
	LeavesFreed int64 // leaf bytes returned to free space
	Nodes       store.OptimizeResult
	Leaves      store.OptimizeResult

	// Freed holds the byte spans of a flush destination that no live entry
	// references any more, sorted and merged.
	Freed []dirty.Range
}

// Collect frees every stored range that no live entry reaches, then
// optimizes both stores so the space is reused by later pushes.
func (d *DAG) Collect() (CollectResult, error) {
	d.gc.Lock()
	defer d.gc.Unlock()

	var nodeMarks, leafMarks []dirty.Range
	for _, k := range d.Keys() {
		e, err := d.Entry(k)
		if err != nil {
			continue
		}
		nodeMarks = append(nodeMarks, dirty.Range{Off: int64(e.Root), Len: 1})
		err = d.Walk(k, func(v Visit) error {
			r := dirty.Range{Off: int64(v.Node.Pointer), Len: int64(v.Node.Count())}
			if v.Node.Leaf {
				leafMarks = append(leafMarks, r)
			} else {
				nodeMarks = append(nodeMarks, r)
			}
			return nil
		})
		if err != nil {
			return CollectResult{}, err
		}
	}

	var res CollectResult
	freed := dirty.NewTracker()
	res.NodesFreed = d.sweep(d.nodes.Live(), nodeMarks, d.nodes, format.NodeRecordSize, freed)
	res.LeavesFreed = d.sweep(d.leaves.Live(), leafMarks, d.leaves, format.ValueSize, freed)
	res.Freed = freed.Take()
	res.Nodes = d.nodes.Optimize()
	res.Leaves = d.leaves.Optimize()

	d.log.Debug("collect",
		"nodes_freed", res.NodesFreed,
		"leaves_freed", res.LeavesFreed)
	return res, nil
}

// sweeper is the store surface sweep uses.
type sweeper interface {
	Remove(idx uint32, count int) error
	ByteOffset(idx uint32) (int64, error)
}

// sweep removes every live range not covered by marks and records the bytes
// each removed range occupies in a flush destination.
func (d *DAG) sweep(live, marks []dirty.Range, st sweeper, size int64, freed *dirty.Tracker) int64 {
	sort.Slice(marks, func(i, j int) bool { return marks[i].Off < marks[j].Off })
	var n int64
	for _, r := range dirty.Subtract(live, dirty.Merge(marks)) {
		at, offErr := st.ByteOffset(uint32(r.Off))
		if err := st.Remove(uint32(r.Off), int(r.Len)); err != nil {
			// a miss here only loses the chance to reuse the range
			if errors.Is(err, store.ErrIndexNotFound) {
				d.log.Warn("collect: range not owned by store", "index", r.Off, "count", r.Len)
				continue
			}
			d.log.Warn("collect: remove failed", "index", r.Off, "count", r.Len, "err", err)
			continue
		}
		if offErr == nil {
			freed.Add(at, r.Len*size)
		}
		n += r.Len
	}
	return n
}
