package volume

import "github.com/joshuapare/voxkit/voxel/dag"

// Box fills Bounds with Value.
type Box struct {
	Box   dag.AABB
	Value dag.Value
}

func (b *Box) ValueAt(p dag.Vec3) dag.Value {
	if b.Box.Contains(p) {
		return b.Value
	}
	return 0
}

func (b *Box) SampleBox(box dag.AABB) dag.Sample {
	switch {
	case b.Value == 0 || !b.Box.Intersects(box):
		return dag.Full(0)
	case b.Box.ContainsBox(box):
		return dag.Full(b.Value)
	default:
		return dag.Mixed
	}
}

func (b *Box) Bounds() dag.AABB { return b.Box }
