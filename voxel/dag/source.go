package dag

import "github.com/joshuapare/voxkit/internal/format"

// Value is a material. 0 is empty space.
type Value = uint8

// Node is a DAG node record.
type Node = format.Node

// Sample is the answer to a box query: either the whole box holds one value
// or it is mixed and must be subdivided.
type Sample struct {
	Full  bool
	Value Value
}

// Full returns a uniform sample of v.
func Full(v Value) Sample { return Sample{Full: true, Value: v} }

// Mixed is the sample of a box holding more than one value.
var Mixed = Sample{}

// Source answers volume queries. A Full answer must agree with ValueAt for
// every voxel in the box; Mixed is always a safe answer.
// Implementations must be safe for concurrent use when the DAG builds in
// parallel.
type Source interface {
	SampleBox(box AABB) Sample
	ValueAt(p Vec3) Value
	Bounds() AABB
}
