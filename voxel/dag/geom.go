package dag

import "fmt"

// Vec3 is an integer voxel coordinate.
type Vec3 struct {
	X, Y, Z int64
}

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z int64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k int64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

func (v Vec3) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// AABB is an axis-aligned box. Min is inclusive, Max exclusive.
type AABB struct {
	Min, Max Vec3
}

// Cube returns the box of edge size with its low corner at origin.
func Cube(origin Vec3, size int64) AABB {
	return AABB{Min: origin, Max: origin.Add(Vec3{size, size, size})}
}

// Empty reports whether b holds no voxel.
func (b AABB) Empty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y || b.Max.Z <= b.Min.Z
}

// Size returns the edge lengths of b.
func (b AABB) Size() Vec3 { return b.Max.Sub(b.Min) }

// MaxExtent returns the longest edge of b.
func (b AABB) MaxExtent() int64 {
	s := b.Size()
	return max(s.X, s.Y, s.Z)
}

// Contains reports whether p lies inside b.
func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// ContainsBox reports whether o lies entirely inside b. An empty o is
// contained in every box.
func (b AABB) ContainsBox(o AABB) bool {
	if o.Empty() {
		return true
	}
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// Intersects reports whether b and o share a voxel.
func (b AABB) Intersects(o AABB) bool {
	return !b.Intersect(o).Empty()
}

// Intersect returns the overlap of b and o, possibly empty.
func (b AABB) Intersect(o AABB) AABB {
	return AABB{
		Min: Vec3{max(b.Min.X, o.Min.X), max(b.Min.Y, o.Min.Y), max(b.Min.Z, o.Min.Z)},
		Max: Vec3{min(b.Max.X, o.Max.X), min(b.Max.Y, o.Max.Y), min(b.Max.Z, o.Max.Z)},
	}
}

// Union returns the smallest box holding b and o. Empty boxes are ignored.
func (b AABB) Union(o AABB) AABB {
	switch {
	case b.Empty():
		return o
	case o.Empty():
		return b
	}
	return AABB{
		Min: Vec3{min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y), min(b.Min.Z, o.Min.Z)},
		Max: Vec3{max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y), max(b.Max.Z, o.Max.Z)},
	}
}

func (b AABB) String() string { return fmt.Sprintf("[%v,%v)", b.Min, b.Max) }
