package dag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/voxkit/internal/format"
	"github.com/joshuapare/voxkit/internal/testutil"
	"github.com/joshuapare/voxkit/voxel/dag"
	"github.com/joshuapare/voxkit/voxel/volume"
)

func Test_Entry_GenerationalKeys(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)

	k1, err := d.Register(dag.V(0, 0, 0), 1, format.Empty)
	require.NoError(t, err)
	require.NoError(t, d.Delete(k1))

	_, err = d.Entry(k1)
	require.ErrorIs(t, err, dag.ErrStaleKey)
	require.ErrorIs(t, d.Delete(k1), dag.ErrStaleKey)

	k2, err := d.Register(dag.V(4, 4, 4), 2, format.Empty)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2, "a reused slot gets a new generation")

	_, err = d.Entry(k1)
	require.ErrorIs(t, err, dag.ErrStaleKey)
	e, err := d.Entry(k2)
	require.NoError(t, err)
	assert.Equal(t, dag.V(4, 4, 4), e.Offset)

	_, err = d.Entry(dag.Key{})
	require.ErrorIs(t, err, dag.ErrStaleKey)
	assert.Equal(t, []dag.Key{k2}, d.Keys())
}

func Test_Entry_RegisterSharesRootRecord(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	n := dag.Node{Leaf: true, Pointer: 5, Mask: 0xF0}

	k1, err := d.Register(dag.V(0, 0, 0), 1, n)
	require.NoError(t, err)
	k2, err := d.Register(dag.V(8, 0, 0), 1, n)
	require.NoError(t, err)

	e1, _ := d.Entry(k1)
	e2, _ := d.Entry(k2)
	assert.Equal(t, e1.Root, e2.Root)

	got, err := d.Node(e1.Root)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func Test_Entry_NamesFoldCase(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	k1, err := d.Register(dag.V(0, 0, 0), 1, format.Empty)
	require.NoError(t, err)
	k2, err := d.Register(dag.V(0, 0, 0), 1, format.Empty)
	require.NoError(t, err)

	require.NoError(t, d.Bind("Straße", k1))
	got, ok := d.Lookup("STRASSE")
	require.True(t, ok)
	assert.Equal(t, k1, got)

	require.ErrorIs(t, d.Bind("strasse", k2), dag.ErrNameTaken)
	require.NoError(t, d.Bind("straße", k1), "rebinding the same key is allowed")

	require.NoError(t, d.Bind("Terrain", k1))
	_, ok = d.Lookup("strasse")
	assert.False(t, ok, "rebinding drops the previous name")

	require.NoError(t, d.Delete(k1))
	_, ok = d.Lookup("terrain")
	assert.False(t, ok)
	require.NoError(t, d.Bind("TERRAIN", k2))
}

func Test_Walk_VisitsSharedNodesOnce(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	checker := &volume.Func{
		Box: dag.Cube(dag.V(0, 0, 0), 16),
		Fn:  func(p dag.Vec3) dag.Value { return dag.Value((p.X+p.Y+p.Z)%2 + 1) },
	}
	k, err := d.Create(context.Background(), checker)
	require.NoError(t, err)

	var visits []dag.Visit
	require.NoError(t, d.Walk(k, func(v dag.Visit) error {
		visits = append(visits, v)
		return nil
	}))
	require.Len(t, visits, 2, "root plus one shared leaf")
	assert.False(t, visits[0].Node.Leaf)
	assert.Equal(t, 2, visits[0].Level)
	assert.True(t, visits[1].Node.Leaf)
	assert.Equal(t, dag.V(0, 0, 0), visits[1].Offset)

	sum, err := d.Inspect(k)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Interior)
	assert.Equal(t, 1, sum.Leaves)
	assert.Equal(t, int64(16*16*16), sum.Filled)
	assert.Equal(t, int64(16*16*16), sum.Voxels)
	assert.Equal(t, int64(64), d.Stats().Leaves.Live)
}

func Test_Inspect_CountsFilledVoxels(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	src := volume.Union{
		&volume.Box{Box: dag.Cube(dag.V(0, 0, 0), 16), Value: 1},
		&volume.Box{Box: dag.AABB{Min: dag.V(20, 0, 0), Max: dag.V(23, 2, 1)}, Value: 2},
	}
	k, err := d.Create(context.Background(), src)
	require.NoError(t, err)

	sum, err := d.Inspect(k)
	require.NoError(t, err)
	assert.Equal(t, int64(16*16*16+3*2*1), sum.Filled)
}

func Test_ValueAt_OutsideIsEmpty(t *testing.T) {
	d, _ := testutil.NewDAG(t, testutil.DefaultRegion, nil)
	k, err := d.Create(context.Background(), &volume.Box{Box: dag.Cube(dag.V(0, 0, 0), 4), Value: 3})
	require.NoError(t, err)

	v, err := d.ValueAt(k, dag.V(-1, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, v)
	v, err = d.ValueAt(k, dag.V(4, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, v)
}
