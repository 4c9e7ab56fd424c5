package volume

import "github.com/joshuapare/voxkit/voxel/dag"

// Union layers sources: the first non-empty value in order wins.
type Union []dag.Source

func (u Union) ValueAt(p dag.Vec3) dag.Value {
	for _, s := range u {
		if v := s.ValueAt(p); v != 0 {
			return v
		}
	}
	return 0
}

// SampleBox is Full(v) when the first source that is not empty over box
// is uniformly v, since nothing behind it shows through.
func (u Union) SampleBox(box dag.AABB) dag.Sample {
	for _, s := range u {
		smp := s.SampleBox(box)
		if smp.Full && smp.Value == 0 {
			continue
		}
		return smp
	}
	return dag.Full(0)
}

func (u Union) Bounds() dag.AABB {
	var b dag.AABB
	for _, s := range u {
		b = b.Union(s.Bounds())
	}
	return b
}

// Func adapts a point function limited to Box. Boxes that intersect Box are
// always Mixed, so builds fall back to point queries.
type Func struct {
	Box dag.AABB
	Fn  func(p dag.Vec3) dag.Value
}

func (f *Func) ValueAt(p dag.Vec3) dag.Value {
	if !f.Box.Contains(p) {
		return 0
	}
	return f.Fn(p)
}

func (f *Func) SampleBox(box dag.AABB) dag.Sample {
	if !f.Box.Intersects(box) {
		return dag.Full(0)
	}
	return dag.Mixed
}

func (f *Func) Bounds() dag.AABB { return f.Box }
