package scene

import (
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

// The shape of a primitive. Values match the ID field read by the
// traversal kernels.
type ShapeKind int32

const (
	TriangleShape ShapeKind = iota
	SphereShape
)

func (k ShapeKind) String() string {
	switch k {
	case TriangleShape:
		return "triangle"
	case SphereShape:
		return "sphere"
	}
	return "unknown"
}

// The surface response used by the shading kernels.
type MaterialType int32

const (
	DiffuseMaterial MaterialType = iota
	MirrorMaterial
	GlassMaterial
)

func (m MaterialType) String() string {
	switch m {
	case DiffuseMaterial:
		return "diffuse"
	case MirrorMaterial:
		return "mirror"
	case GlassMaterial:
		return "glass"
	}
	return "unknown"
}

// A scene primitive. Triangles use all three vertices; spheres store their
// center in Vertices[0] and use Radius.
type Primitive struct {
	Vertices [3]types.Vec3
	Radius   float32

	// Shading attributes. The BVH builder never looks at these.
	Color      types.Vec3
	Normal     types.Vec3
	Kind       ShapeKind
	BounceOdds float32
	Material   MaterialType
	IOR        float32
	Smoothness float32
}

// Default shading attributes for new primitives.
var (
	DefaultColor      = types.Vec3{1.0, 100.0 / 255.0, 100.0 / 255.0}
	DefaultBounceOdds = float32(1.0)
	DefaultIOR        = float32(1.0)
)

// Create a triangle primitive. If normal is the zero vector it is derived
// from the vertex winding.
func NewTriangle(v0, v1, v2, normal types.Vec3) Primitive {
	if normal == (types.Vec3{}) {
		normal = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	}

	return Primitive{
		Vertices:   [3]types.Vec3{v0, v1, v2},
		Normal:     normal,
		Color:      DefaultColor,
		Kind:       TriangleShape,
		BounceOdds: DefaultBounceOdds,
		Material:   DiffuseMaterial,
		IOR:        DefaultIOR,
	}
}

// Create a sphere primitive.
func NewSphere(center types.Vec3, radius float32) Primitive {
	return Primitive{
		Vertices:   [3]types.Vec3{center, center, center},
		Radius:     radius,
		Color:      DefaultColor,
		Kind:       SphereShape,
		BounceOdds: DefaultBounceOdds,
		Material:   DiffuseMaterial,
		IOR:        DefaultIOR,
	}
}

// Get the primitive AABB.
func (p *Primitive) BBox() types.AABB {
	if p.Kind == SphereShape {
		return types.BoundsOfSphere(p.Vertices[0], p.Radius)
	}
	return types.BoundsOfPoints(p.Vertices[0], p.Vertices[1], p.Vertices[2])
}

// Get the primitive centroid.
func (p *Primitive) Center() types.Vec3 {
	if p.Kind == SphereShape {
		return p.Vertices[0]
	}
	return p.Vertices[0].Add(p.Vertices[1]).Add(p.Vertices[2]).Mul(1.0 / 3.0)
}

// Get the primitive surface area.
func (p *Primitive) Area() float32 {
	if p.Kind == SphereShape {
		return 4.0 * math32.Pi * p.Radius * p.Radius
	}
	return 0.5 * p.Vertices[1].Sub(p.Vertices[0]).Cross(p.Vertices[2].Sub(p.Vertices[0])).Len()
}
