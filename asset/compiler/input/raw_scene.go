package input

import (
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/types"
)

// The raw scene produced by scene readers. Primitive order is significant:
// the compiled index list refers to primitives by their position here.
type Scene struct {
	Name       string
	Primitives []scene.Primitive

	// Names of the groups/objects encountered while parsing, in order.
	Groups []string
}

// Create a new scene.
func NewScene(name string) *Scene {
	return &Scene{
		Name:       name,
		Primitives: make([]scene.Primitive, 0),
		Groups:     make([]string, 0),
	}
}

// Get the bounding box enclosing all scene primitives. Returns an empty
// (inverted) box if the scene has no primitives.
func (sc *Scene) BBox() types.AABB {
	bbox := types.EmptyAABB()
	for index := range sc.Primitives {
		bbox = types.Merge(bbox, sc.Primitives[index].BBox())
	}
	return bbox
}
