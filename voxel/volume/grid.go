package volume

import (
	"fmt"

	"github.com/joshuapare/voxkit/voxel/dag"
)

// Grid is a dense block of voxels. Everything outside it is empty.
type Grid struct {
	origin dag.Vec3
	size   dag.Vec3
	data   []dag.Value
}

// NewGrid returns an empty grid covering box.
func NewGrid(box dag.AABB) *Grid {
	s := box.Size()
	if box.Empty() {
		s = dag.Vec3{}
	}
	return &Grid{origin: box.Min, size: s, data: make([]dag.Value, s.X*s.Y*s.Z)}
}

func (g *Grid) index(p dag.Vec3) (int64, bool) {
	if !g.Bounds().Contains(p) {
		return 0, false
	}
	r := p.Sub(g.origin)
	return r.X + g.size.X*(r.Y+g.size.Y*r.Z), true
}

// Set stores v at p.
func (g *Grid) Set(p dag.Vec3, v dag.Value) error {
	i, ok := g.index(p)
	if !ok {
		return fmt.Errorf("set %v outside %v", p, g.Bounds())
	}
	g.data[i] = v
	return nil
}

// Fill stores v in every voxel of box that lies inside the grid.
func (g *Grid) Fill(box dag.AABB, v dag.Value) {
	box = box.Intersect(g.Bounds())
	if box.Empty() {
		return
	}
	for z := box.Min.Z; z < box.Max.Z; z++ {
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				i, _ := g.index(dag.V(x, y, z))
				g.data[i] = v
			}
		}
	}
}

func (g *Grid) ValueAt(p dag.Vec3) dag.Value {
	if i, ok := g.index(p); ok {
		return g.data[i]
	}
	return 0
}

// SampleBox scans the part of box inside the grid and stops at the first
// voxel that differs.
func (g *Grid) SampleBox(box dag.AABB) dag.Sample {
	in := box.Intersect(g.Bounds())
	if in.Empty() {
		return dag.Full(0)
	}
	first := g.ValueAt(in.Min)
	if first != 0 && !g.Bounds().ContainsBox(box) {
		return dag.Mixed
	}
	for z := in.Min.Z; z < in.Max.Z; z++ {
		for y := in.Min.Y; y < in.Max.Y; y++ {
			for x := in.Min.X; x < in.Max.X; x++ {
				i, _ := g.index(dag.V(x, y, z))
				if g.data[i] != first {
					return dag.Mixed
				}
			}
		}
	}
	return dag.Full(first)
}

func (g *Grid) Bounds() dag.AABB { return dag.AABB{Min: g.origin, Max: g.origin.Add(g.size)} }
