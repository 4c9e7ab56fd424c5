package volume

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/voxkit/voxel/dag"
)

// checkConsistent verifies that every Full answer over random boxes agrees
// with the point queries of the box.
func checkConsistent(t *testing.T, src dag.Source, space dag.AABB, boxes int) {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	size := space.Size()
	fulls := 0
	for range boxes {
		edge := int64(1) << (2 * uint(rng.Intn(3)))
		lo := dag.V(
			space.Min.X+rng.Int63n(size.X),
			space.Min.Y+rng.Int63n(size.Y),
			space.Min.Z+rng.Int63n(size.Z),
		)
		box := dag.Cube(lo, edge)
		s := src.SampleBox(box)
		if !s.Full {
			continue
		}
		fulls++
		for z := box.Min.Z; z < box.Max.Z; z++ {
			for y := box.Min.Y; y < box.Max.Y; y++ {
				for x := box.Min.X; x < box.Max.X; x++ {
					p := dag.V(x, y, z)
					require.Equal(t, s.Value, src.ValueAt(p), "box %v claims Full(%d), voxel %v", box, s.Value, p)
				}
			}
		}
	}
	require.Positive(t, fulls, "no Full sample was exercised")
}

func TestSphere_SamplesAgreeWithPoints(t *testing.T) {
	s := NewSphere(dag.V(16, 16, 16), 10, 3)
	checkConsistent(t, s, dag.Cube(dag.V(0, 0, 0), 32), 400)

	assert.Equal(t, dag.Value(3), s.ValueAt(dag.V(16, 16, 16)))
	assert.Equal(t, dag.Value(0), s.ValueAt(dag.V(0, 0, 0)))
	assert.True(t, s.Bounds().Contains(dag.V(6, 16, 16)))
	assert.Equal(t, dag.Full(3), s.SampleBox(dag.Cube(dag.V(14, 14, 14), 4)))
	assert.Equal(t, dag.Full(0), s.SampleBox(dag.Cube(dag.V(-64, 0, 0), 16)))
}

func TestBox_Sample(t *testing.T) {
	b := &Box{Box: dag.AABB{Min: dag.V(2, 2, 2), Max: dag.V(10, 6, 6)}, Value: 5}
	checkConsistent(t, b, dag.Cube(dag.V(-4, -4, -4), 20), 400)

	assert.Equal(t, dag.Full(5), b.SampleBox(dag.Cube(dag.V(2, 2, 2), 4)))
	assert.Equal(t, dag.Mixed, b.SampleBox(dag.Cube(dag.V(0, 0, 0), 4)))
	assert.Equal(t, dag.Full(0), b.SampleBox(dag.Cube(dag.V(20, 0, 0), 4)))
}

func TestGrid_SetAndSample(t *testing.T) {
	g := NewGrid(dag.Cube(dag.V(0, 0, 0), 8))
	require.NoError(t, g.Set(dag.V(1, 2, 3), 9))
	require.Error(t, g.Set(dag.V(8, 0, 0), 1))

	assert.Equal(t, dag.Value(9), g.ValueAt(dag.V(1, 2, 3)))
	assert.Equal(t, dag.Mixed, g.SampleBox(dag.Cube(dag.V(0, 0, 0), 4)))
	assert.Equal(t, dag.Full(0), g.SampleBox(dag.Cube(dag.V(4, 4, 4), 4)))

	g.Fill(dag.Cube(dag.V(4, 0, 0), 4), 2)
	assert.Equal(t, dag.Full(2), g.SampleBox(dag.Cube(dag.V(4, 0, 0), 4)))
	// part of this box lies outside the grid, where voxels are empty
	assert.Equal(t, dag.Mixed, g.SampleBox(dag.Cube(dag.V(4, 0, 0), 16)))

	checkConsistent(t, g, dag.Cube(dag.V(-2, -2, -2), 12), 400)
}

func TestUnion_FirstNonEmptyWins(t *testing.T) {
	u := Union{
		&Box{Box: dag.Cube(dag.V(0, 0, 0), 4), Value: 1},
		&Box{Box: dag.Cube(dag.V(0, 0, 0), 16), Value: 2},
	}
	assert.Equal(t, dag.Value(1), u.ValueAt(dag.V(1, 1, 1)))
	assert.Equal(t, dag.Value(2), u.ValueAt(dag.V(8, 8, 8)))
	assert.Equal(t, dag.Full(1), u.SampleBox(dag.Cube(dag.V(0, 0, 0), 4)))
	assert.Equal(t, dag.Full(2), u.SampleBox(dag.Cube(dag.V(4, 4, 4), 4)))
	assert.Equal(t, dag.Cube(dag.V(0, 0, 0), 16), u.Bounds())

	checkConsistent(t, u, dag.Cube(dag.V(-4, -4, -4), 24), 400)
}

func TestFunc_AlwaysMixedInside(t *testing.T) {
	f := &Func{
		Box: dag.Cube(dag.V(0, 0, 0), 8),
		Fn:  func(p dag.Vec3) dag.Value { return dag.Value(p.X % 3) },
	}
	assert.Equal(t, dag.Mixed, f.SampleBox(dag.Cube(dag.V(0, 0, 0), 4)))
	assert.Equal(t, dag.Full(0), f.SampleBox(dag.Cube(dag.V(8, 0, 0), 4)))
	assert.Equal(t, dag.Value(2), f.ValueAt(dag.V(5, 0, 0)))
	assert.Equal(t, dag.Value(0), f.ValueAt(dag.V(9, 0, 0)))
}
