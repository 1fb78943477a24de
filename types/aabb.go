package types

import "github.com/chewxy/math32"

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Boxes built from points that share a coordinate along an axis are widened
// by this amount along that axis so that slab tests never see a zero-width slab.
const DegenerateAxisEpsilon float32 = 1e-4

// An axis-aligned bounding box. A valid box satisfies Min[i] <= Max[i] for
// every axis; the box returned by EmptyAABB is the only exception and acts as
// the identity element for Merge.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create an inverted box that contains nothing.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Calculate the tightest box enclosing a set of points. Degenerate axes are
// widened by DegenerateAxisEpsilon.
func BoundsOfPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.ExtendPoint(p)
	}
	if len(points) == 0 {
		return box
	}

	for axis := XAxis; axis <= ZAxis; axis++ {
		if box.Max[axis]-box.Min[axis] <= 0 {
			box.Min[axis] -= 0.5 * DegenerateAxisEpsilon
			box.Max[axis] += 0.5 * DegenerateAxisEpsilon
		}
	}
	return box
}

// Calculate the box that encloses a sphere. Zero-radius spheres get the same
// widening as degenerate point sets.
func BoundsOfSphere(center Vec3, radius float32) AABB {
	r := Splat3(math32.Abs(radius))
	return BoundsOfPoints(center.Sub(r), center.Add(r))
}

// Merge two boxes.
func Merge(a, b AABB) AABB {
	return AABB{
		Min: MinVec3(a.Min, b.Min),
		Max: MaxVec3(a.Max, b.Max),
	}
}

// Grow the box so it includes point p.
func (b AABB) ExtendPoint(p Vec3) AABB {
	return AABB{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Returns true if this is an inverted (empty) box.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get the box side lengths.
func (b AABB) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get the box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Calculate the box surface area. Empty boxes have zero area.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Extent()
	return 2.0 * (d[0]*d[1] + d[0]*d[2] + d[1]*d[2])
}

// Get the axis with the greatest extent. Ties resolve to the earlier axis.
func (b AABB) LongestAxis() Axis {
	d := b.Extent()
	axis := XAxis
	if d[YAxis] > d[axis] {
		axis = YAxis
	}
	if d[ZAxis] > d[axis] {
		axis = ZAxis
	}
	return axis
}

// Returns true if other lies completely inside this box.
func (b AABB) Contains(other AABB) bool {
	for axis := XAxis; axis <= ZAxis; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Slab test for a ray with the given origin and reciprocal direction. Returns
// true if the ray enters the box within [tMin, tMax].
func (b AABB) IntersectRay(origin, invDir Vec3, tMin, tMax float32) bool {
	for axis := XAxis; axis <= ZAxis; axis++ {
		t0 := (b.Min[axis] - origin[axis]) * invDir[axis]
		t1 := (b.Max[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math32.Max(tMin, t0)
		tMax = math32.Min(tMax, t1)
		if tMin > tMax {
			return false
		}
	}
	return true
}
