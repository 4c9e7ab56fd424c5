package dag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/voxkit/internal/format"
	"github.com/joshuapare/voxkit/internal/testutil"
	"github.com/joshuapare/voxkit/voxel/buddy"
	"github.com/joshuapare/voxkit/voxel/dag"
	"github.com/joshuapare/voxkit/voxel/store"
	"github.com/joshuapare/voxkit/voxel/volume"
)

// Test_Build_FullLeaf covers a 4x4x4 cell inside a Full(7) region: one leaf
// with every mask bit set and 64 payload bytes of 7.
func Test_Build_FullLeaf(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, testutil.Serial())
	src := &volume.Box{Box: dag.Cube(dag.V(0, 0, 0), 4), Value: 7}

	n, err := d.Build(context.Background(), src, dag.V(0, 0, 0), 1)
	require.NoError(t, err)
	require.True(t, n.Leaf)
	require.Equal(t, format.FullMask, n.Mask)

	payload, err := d.Leaves(n.Pointer, format.Children)
	require.NoError(t, err)
	for i, v := range payload {
		require.Equal(t, dag.Value(7), v, "payload[%d]", i)
	}

	k, err := d.Register(dag.V(0, 0, 0), 1, n)
	require.NoError(t, err)
	testutil.RequireMatches(t, d, k, src, dag.Cube(dag.V(0, 0, 0), 4))
}

func Test_Build_UniformAboveLevelOne(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, testutil.Serial())
	src := &volume.Box{Box: dag.Cube(dag.V(0, 0, 0), 64), Value: 2}

	n, err := d.Build(context.Background(), src, dag.V(0, 0, 0), 3)
	require.NoError(t, err)
	assert.True(t, n.Leaf, "uniform cells skip recursion at any level")
	assert.Equal(t, format.FullMask, n.Mask)

	k, err := d.Register(dag.V(0, 0, 0), 3, n)
	require.NoError(t, err)
	for _, p := range []dag.Vec3{dag.V(0, 0, 0), dag.V(63, 63, 63), dag.V(17, 40, 3)} {
		v, err := d.ValueAt(k, p)
		require.NoError(t, err)
		assert.Equal(t, dag.Value(2), v)
	}
}

func Test_Build_EmptyOwnsNoStorage(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, testutil.Serial())
	src := &volume.Box{Box: dag.Cube(dag.V(100, 100, 100), 4), Value: 1}

	n, err := d.Build(context.Background(), src, dag.V(0, 0, 0), 3)
	require.NoError(t, err)
	assert.Equal(t, format.Empty, n)

	st := d.Stats()
	assert.Zero(t, st.Nodes.Chunks)
	assert.Zero(t, st.Leaves.Chunks)
}

func Test_Build_SparseLeaf(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, testutil.Serial())
	g := volume.NewGrid(dag.Cube(dag.V(0, 0, 0), 4))
	require.NoError(t, g.Set(dag.V(1, 0, 0), 4))
	require.NoError(t, g.Set(dag.V(0, 0, 1), 6))

	n, err := d.Build(context.Background(), g, dag.V(0, 0, 0), 1)
	require.NoError(t, err)
	require.True(t, n.Leaf)
	assert.Equal(t, uint64(1)<<format.Slot(1, 0, 0)|uint64(1)<<format.Slot(0, 0, 1), n.Mask)

	payload, err := d.Leaves(n.Pointer, n.Count())
	require.NoError(t, err)
	assert.Equal(t, []dag.Value{4, 6}, payload, "payload follows slot order")
}

// Test_Build_SharesIdenticalSubtrees builds the same sphere at two aligned
// offsets; both builds must return the very same node.
func Test_Build_SharesIdenticalSubtrees(t *testing.T) {
	for name, opts := range map[string]*dag.Options{
		"serial":   testutil.Serial(),
		"parallel": testutil.Parallel(8),
	} {
		t.Run(name, func(t *testing.T) {
			d, _ := testutil.NewDAG(t, testutil.DefaultRegion, opts)
			ctx := context.Background()

			a := volume.NewSphere(dag.V(32, 32, 32), 20, 3)
			b := volume.NewSphere(dag.V(96, 32, 32), 20, 3)

			na, err := d.Build(ctx, a, dag.V(0, 0, 0), 3)
			require.NoError(t, err)
			before := d.Stats()

			nb, err := d.Build(ctx, b, dag.V(64, 0, 0), 3)
			require.NoError(t, err)
			require.Equal(t, na, nb)

			after := d.Stats()
			assert.Equal(t, before.Nodes.Live, after.Nodes.Live, "second build must not add node records")
			assert.Equal(t, before.Leaves.Live, after.Leaves.Live, "second build must not add leaf bytes")
		})
	}
}

func Test_Build_ParallelMatchesSerial(t *testing.T) {
	ctx := context.Background()
	src := volume.Union{
		volume.NewSphere(dag.V(20, 20, 20), 14, 1),
		&volume.Box{Box: dag.AABB{Min: dag.V(0, 30, 0), Max: dag.V(50, 34, 9)}, Value: 2},
		&volume.Func{
			Box: dag.Cube(dag.V(40, 0, 40), 8),
			Fn:  func(p dag.Vec3) dag.Value { return dag.Value((p.X + p.Y*3 + p.Z) % 4) },
		},
	}

	serial, _ := testutil.NewDAG(t, testutil.DefaultRegion, testutil.Serial())
	ks, err := serial.Create(ctx, src)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 8, 64} {
		par, _ := testutil.NewDAG(t, testutil.DefaultRegion, testutil.Parallel(workers))
		kp, err := par.Create(ctx, src)
		require.NoError(t, err)

		require.Equal(t, testutil.Dump(t, serial, ks), testutil.Dump(t, par, kp), "workers=%d", workers)
		testutil.RequireMatches(t, par, kp, src, src.Bounds())
	}
}

func Test_Create_LevelsFromBounds(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	src := &volume.Box{Box: dag.AABB{Min: dag.V(-5, 0, 0), Max: dag.V(12, 3, 3)}, Value: 1}

	k, err := d.Create(context.Background(), src)
	require.NoError(t, err)
	e, err := d.Entry(k)
	require.NoError(t, err)
	assert.Equal(t, dag.V(-5, 0, 0), e.Offset)
	assert.Equal(t, uint8(3), e.Levels, "17 voxels need a 64 cube")
	testutil.RequireMatches(t, d, k, src, e.Bounds())
}

func Test_Build_BadLevel(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	src := &volume.Box{Box: dag.Cube(dag.V(0, 0, 0), 4), Value: 1}

	_, err := d.Build(context.Background(), src, dag.V(0, 0, 0), 0)
	require.ErrorIs(t, err, dag.ErrBadLevel)
	_, err = d.Build(context.Background(), src, dag.V(0, 0, 0), format.MaxLevels+1)
	require.ErrorIs(t, err, dag.ErrBadLevel)
	_, err = d.Register(dag.V(0, 0, 0), 0, format.Empty)
	require.ErrorIs(t, err, dag.ErrBadLevel)
}

func Test_Build_AllocationExhausted(t *testing.T) {
	for name, opts := range map[string]*dag.Options{
		"serial":   testutil.Serial(),
		"parallel": testutil.Parallel(4),
	} {
		t.Run(name, func(t *testing.T) {
			small := store.DefaultOptions()
			small.MinAllocBytes = 256
			opts.NodeStore = small
			opts.LeafStore = small

			d, _ := testutil.NewDAG(t, 1<<10, opts)
			_, err := d.Create(context.Background(), volume.NewSphere(dag.V(32, 32, 32), 30, 1))
			require.Error(t, err)
			assert.True(t, errors.Is(err, dag.ErrAllocationExhausted), "got %v", err)
			assert.True(t, errors.Is(err, buddy.ErrOutOfMemory), "cause must stay visible: %v", err)
		})
	}
}

func Test_Build_Cancelled(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Create(ctx, volume.NewSphere(dag.V(8, 8, 8), 6, 1))
	require.ErrorIs(t, err, context.Canceled)
}
