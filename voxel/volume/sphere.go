package volume

import (
	"math"

	"github.com/joshuapare/voxkit/voxel/dag"
)

// Sphere fills every voxel whose center lies within Radius of Center.
type Sphere struct {
	Center [3]float64
	Radius float64
	Value  dag.Value
}

// NewSphere returns a sphere centered on the corner shared by the eight
// voxels around c.
func NewSphere(c dag.Vec3, radius float64, v dag.Value) *Sphere {
	return &Sphere{
		Center: [3]float64{float64(c.X), float64(c.Y), float64(c.Z)},
		Radius: radius,
		Value:  v,
	}
}

func (s *Sphere) ValueAt(p dag.Vec3) dag.Value {
	dx := float64(p.X) + 0.5 - s.Center[0]
	dy := float64(p.Y) + 0.5 - s.Center[1]
	dz := float64(p.Z) + 0.5 - s.Center[2]
	if dx*dx+dy*dy+dz*dz <= s.Radius*s.Radius {
		return s.Value
	}
	return 0
}

// SampleBox compares the nearest and farthest voxel centers of box with the
// radius.
func (s *Sphere) SampleBox(box dag.AABB) dag.Sample {
	if box.Empty() {
		return dag.Full(0)
	}
	lo := [3]float64{float64(box.Min.X) + 0.5, float64(box.Min.Y) + 0.5, float64(box.Min.Z) + 0.5}
	hi := [3]float64{float64(box.Max.X) - 0.5, float64(box.Max.Y) - 0.5, float64(box.Max.Z) - 0.5}

	var near, far float64
	for i := range 3 {
		c := s.Center[i]
		d := math.Max(0, math.Max(lo[i]-c, c-hi[i]))
		near += d * d
		f := math.Max(math.Abs(c-lo[i]), math.Abs(hi[i]-c))
		far += f * f
	}
	r2 := s.Radius * s.Radius
	switch {
	case near > r2:
		return dag.Full(0)
	case far <= r2:
		return dag.Full(s.Value)
	default:
		return dag.Mixed
	}
}

func (s *Sphere) Bounds() dag.AABB {
	r := math.Ceil(s.Radius)
	return dag.AABB{
		Min: dag.V(int64(math.Floor(s.Center[0]-r)), int64(math.Floor(s.Center[1]-r)), int64(math.Floor(s.Center[2]-r))),
		Max: dag.V(int64(math.Ceil(s.Center[0]+r)), int64(math.Ceil(s.Center[1]+r)), int64(math.Ceil(s.Center[2]+r))),
	}
}
