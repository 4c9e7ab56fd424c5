package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/voxkit/internal/format"
	"github.com/joshuapare/voxkit/internal/logger"
	"github.com/joshuapare/voxkit/voxel/buddy"
	"github.com/joshuapare/voxkit/voxel/dag"
	"github.com/joshuapare/voxkit/voxel/store"
	"github.com/joshuapare/voxkit/voxel/volume"
)

// sceneFlags are shared by every command that builds a volume.
type sceneFlags struct {
	shape    string
	size     int64
	radius   float64
	value    uint8
	region   uint64
	minAlloc uint64
	strategy string
	coalesce string
	serial   bool
	workers  int
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.shape, "shape", "sphere", "Volume: sphere, box, checker, terrain")
	cmd.Flags().Int64Var(&f.size, "size", 64, "Edge length of the scene in voxels")
	cmd.Flags().Float64Var(&f.radius, "radius", 0, "Sphere radius (default: 0.4 * size)")
	cmd.Flags().Uint8Var(&f.value, "value", 1, "Material of the shape")
	cmd.Flags().Uint64Var(&f.region, "region", 1<<26, "Allocator region in bytes (power of two)")
	cmd.Flags().Uint64Var(&f.minAlloc, "min-alloc", 64<<10, "Smallest store chunk in bytes")
	cmd.Flags().StringVar(&f.strategy, "strategy", "overlap", "Store strategy: exact, overlap, substring, bruteforce")
	cmd.Flags().StringVar(&f.coalesce, "coalesce", "cascade", "Buddy coalescing: cascade, single")
	cmd.Flags().BoolVar(&f.serial, "serial", false, "Build on one goroutine")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Parallel build workers (default: GOMAXPROCS)")
}

// source returns the volume selected by the flags.
func (f *sceneFlags) source() (dag.Source, error) {
	if f.size < 1 {
		return nil, fmt.Errorf("size must be positive, got %d", f.size)
	}
	bounds := dag.Cube(dag.V(0, 0, 0), f.size)
	switch f.shape {
	case "sphere":
		r := f.radius
		if r == 0 {
			r = 0.4 * float64(f.size)
		}
		c := f.size / 2
		return volume.NewSphere(dag.V(c, c, c), r, f.value), nil
	case "box":
		q := f.size / 4
		return &volume.Box{Box: dag.AABB{Min: dag.V(q, q, q), Max: dag.V(3*q, 3*q, 3*q)}, Value: f.value}, nil
	case "checker":
		v := f.value
		return &volume.Func{Box: bounds, Fn: func(p dag.Vec3) dag.Value {
			if (p.X/4+p.Y/4+p.Z/4)%2 == 0 {
				return v
			}
			return 0
		}}, nil
	case "terrain":
		v := f.value
		return &volume.Func{Box: bounds, Fn: func(p dag.Vec3) dag.Value {
			h := f.size/3 + (p.X*7+p.Z*13)%(f.size/8+1)
			if p.Y < h {
				return v
			}
			return 0
		}}, nil
	}
	return nil, fmt.Errorf("unknown shape %q", f.shape)
}

func (f *sceneFlags) policy() (buddy.CoalescePolicy, error) {
	switch f.coalesce {
	case "cascade":
		return buddy.CoalesceCascade, nil
	case "single":
		return buddy.CoalesceSingle, nil
	}
	return 0, fmt.Errorf("unknown coalesce policy %q", f.coalesce)
}

// newDAG creates an allocator and a DAG configured by the flags.
func (f *sceneFlags) newDAG(strategy string) (*dag.DAG, *buddy.Shared, error) {
	s, ok := store.ParseStrategy(strategy)
	if !ok {
		return nil, nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	policy, err := f.policy()
	if err != nil {
		return nil, nil, err
	}
	a, err := buddy.New(f.region, 16, policy)
	if err != nil {
		return nil, nil, err
	}
	shared := buddy.NewShared(a)

	opts := dag.DefaultOptions()
	opts.Parallel = !f.serial
	if f.workers > 0 {
		opts.MaxWorkers = f.workers
	}
	so := store.DefaultOptions()
	so.Strategy = s
	so.MinAllocBytes = f.minAlloc
	opts.NodeStore = so
	opts.LeafStore = so
	opts.Logger = logger.L

	d, err := dag.New(shared, opts)
	if err != nil {
		return nil, nil, err
	}
	return d, shared, nil
}

// parseVec parses "x,y,z".
func parseVec(s string) (dag.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return dag.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var xyz [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return dag.Vec3{}, fmt.Errorf("coordinate %q: %w", p, err)
		}
		xyz[i] = n
	}
	return dag.V(xyz[0], xyz[1], xyz[2]), nil
}

// report is the summary printed by build and update.
type report struct {
	Key          string  `json:"key"`
	Offset       string  `json:"offset"`
	Levels       int     `json:"levels"`
	Filled       int64   `json:"filled_voxels"`
	Interior     int     `json:"interior_nodes"`
	Leaves       int     `json:"leaves"`
	NodeRecords  int64   `json:"node_records"`
	LeafBytes    int64   `json:"leaf_bytes"`
	StoredBytes  int64   `json:"stored_bytes"`
	AllocBytes   uint64  `json:"alloc_bytes"`
	DedupRatio   float64 `json:"dedup_ratio"`
	Chunks       int     `json:"chunks"`
	Milliseconds int64   `json:"ms"`
}

func makeReport(d *dag.DAG, k dag.Key) (report, error) {
	sum, err := d.Inspect(k)
	if err != nil {
		return report{}, err
	}
	st := d.Stats()
	return report{
		Key:         k.String(),
		Offset:      sum.Entry.Offset.String(),
		Levels:      int(sum.Entry.Levels),
		Filled:      sum.Filled,
		Interior:    sum.Interior,
		Leaves:      sum.Leaves,
		NodeRecords: st.Nodes.Live,
		LeafBytes:   st.Leaves.Live,
		StoredBytes: st.Nodes.Live*format.NodeRecordSize + st.Leaves.Live,
		AllocBytes:  st.Alloc.BytesInUse,
		DedupRatio:  (st.Nodes.DedupRatio() + st.Leaves.DedupRatio()) / 2,
		Chunks:      st.Nodes.Chunks + st.Leaves.Chunks,
	}, nil
}

func printReport(r report) {
	printInfo("Entry %s at %s, %d levels\n", r.Key, r.Offset, r.Levels)
	printInfo("  filled voxels:  %d\n", r.Filled)
	printInfo("  distinct nodes: %d interior, %d leaves\n", r.Interior, r.Leaves)
	printInfo("  stored:         %d node records, %d leaf bytes (%d bytes)\n", r.NodeRecords, r.LeafBytes, r.StoredBytes)
	printInfo("  allocated:      %d bytes in %d chunks\n", r.AllocBytes, r.Chunks)
	printInfo("  dedup ratio:    %.1f%%\n", r.DedupRatio*100)
	printInfo("  time:           %d ms\n", r.Milliseconds)
}
