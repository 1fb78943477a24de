package bvh

import (
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/types"
)

// Walk a flattened BVH without a stack, the same way the traversal kernels
// do. The hit callback decides whether a node's subtree is entered; when it
// returns false the walk jumps to the node's escape index. For each entered
// leaf, visit is invoked with the original index of every primitive the leaf
// owns. Returning false from visit stops the walk.
func Walk(nodes []scene.BvhNode, indices []uint32, hit func(types.AABB) bool, visit func(primIndex uint32) bool) {
	nodeCount := int32(len(nodes))
	for nodeIndex := int32(0); nodeIndex < nodeCount; {
		node := &nodes[nodeIndex]
		if !hit(node.BBox()) {
			nodeIndex = node.EscapeIndex
			continue
		}

		if !node.IsLeaf() {
			nodeIndex = node.LeftChild
			continue
		}

		for _, primIndex := range indices[node.StartIndex : node.StartIndex+node.PrimitiveCount] {
			if !visit(primIndex) {
				return
			}
		}
		nodeIndex = node.EscapeIndex
	}
}

// Collect the original indices of primitives whose leafs are reached by a
// ray. Useful for checking traversal results against a brute force search.
func RayCandidates(nodes []scene.BvhNode, indices []uint32, origin, dir types.Vec3, tMax float32) []uint32 {
	invDir := dir.Inv()
	candidates := make([]uint32, 0)
	Walk(
		nodes, indices,
		func(bbox types.AABB) bool {
			return bbox.IntersectRay(origin, invDir, 0, tMax)
		},
		func(primIndex uint32) bool {
			candidates = append(candidates, primIndex)
			return true
		},
	)
	return candidates
}
