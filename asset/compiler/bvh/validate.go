package bvh

import (
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/pkg/errors"
)

// The result of a successful structural check.
type ValidationReport struct {
	Nodes    int
	Leafs    int
	MaxDepth int

	// Leafs that exceed the configured leaf size. These are only accepted
	// when the builder was forced to emit them: either all their centroids
	// coincide or the leaf sits at the depth limit.
	OversizedLeafs []int32
}

// Check the structural invariants of a flattened BVH built over volumes:
//
// - indices is a permutation of [0, len(volumes))
// - nodes are laid out in pre-order with the left child following its parent
// - every node's box contains its children boxes or owned primitive boxes
// - leaf ranges cover the index list exactly once
// - every escape index points to the first node after the node's subtree
// - leafs respect the leaf size unless forced
func Validate(nodes []scene.BvhNode, indices []uint32, volumes []BoundedVolume, opts Options) (*ValidationReport, error) {
	if len(indices) != len(volumes) {
		return nil, errors.Errorf("index list has %d entries; expected %d", len(indices), len(volumes))
	}

	seen := make([]bool, len(volumes))
	for pos, volIndex := range indices {
		if int(volIndex) >= len(volumes) {
			return nil, errors.Errorf("index list entry %d references out of range primitive %d", pos, volIndex)
		}
		if seen[volIndex] {
			return nil, errors.Errorf("index list entry %d references primitive %d more than once", pos, volIndex)
		}
		seen[volIndex] = true
	}

	report := &ValidationReport{Nodes: len(nodes)}
	if len(volumes) == 0 {
		if len(nodes) != 0 {
			return nil, errors.Errorf("expected no nodes for an empty primitive list; got %d", len(nodes))
		}
		return report, nil
	}
	if len(nodes) == 0 {
		return nil, errors.New("node list is empty")
	}

	v := &validator{
		nodes:       nodes,
		indices:     indices,
		volumes:     volumes,
		opts:        opts,
		maxLeafSize: opts.LeafSizeFor(len(volumes)),
		covered:     make([]bool, len(indices)),
		report:      report,
	}
	end, err := v.check(0, 0)
	if err != nil {
		return nil, err
	}
	if int(end) != len(nodes) {
		return nil, errors.Errorf("tree rooted at node 0 spans %d nodes; node list has %d", end, len(nodes))
	}

	for pos, isCovered := range v.covered {
		if !isCovered {
			return nil, errors.Errorf("index list entry %d is not owned by any leaf", pos)
		}
	}

	return report, nil
}

type validator struct {
	nodes       []scene.BvhNode
	indices     []uint32
	volumes     []BoundedVolume
	opts        Options
	maxLeafSize int
	covered     []bool
	report      *ValidationReport
}

// Check the subtree rooted at nodeIndex and return the index one past its
// last node. Recursion depth is bounded by the tree depth which the builder
// caps at opts.MaxDepth.
func (v *validator) check(nodeIndex int32, depth int) (int32, error) {
	if depth > v.report.MaxDepth {
		v.report.MaxDepth = depth
	}

	nodeCount := int32(len(v.nodes))
	node := &v.nodes[nodeIndex]
	bbox := node.BBox()

	var end int32
	if node.IsLeaf() {
		if err := v.checkLeaf(nodeIndex, depth); err != nil {
			return 0, err
		}
		end = nodeIndex + 1
	} else {
		if node.StartIndex != -1 || node.PrimitiveCount != 0 {
			return 0, errors.Errorf("node %d: internal node has primitive range [%d, +%d)", nodeIndex, node.StartIndex, node.PrimitiveCount)
		}
		if node.LeftChild != nodeIndex+1 {
			return 0, errors.Errorf("node %d: expected left child %d; got %d", nodeIndex, nodeIndex+1, node.LeftChild)
		}
		if node.RightChild <= node.LeftChild || node.RightChild >= nodeCount {
			return 0, errors.Errorf("node %d: right child %d out of range", nodeIndex, node.RightChild)
		}

		for _, child := range []int32{node.LeftChild, node.RightChild} {
			if !bbox.Contains(v.nodes[child].BBox()) {
				return 0, errors.Errorf("node %d: bounds %v do not contain child %d bounds %v", nodeIndex, bbox, child, v.nodes[child].BBox())
			}
		}

		leftEnd, err := v.check(node.LeftChild, depth+1)
		if err != nil {
			return 0, err
		}
		if leftEnd != node.RightChild {
			return 0, errors.Errorf("node %d: left subtree ends at %d but right child is %d", nodeIndex, leftEnd, node.RightChild)
		}
		end, err = v.check(node.RightChild, depth+1)
		if err != nil {
			return 0, err
		}
	}

	if node.EscapeIndex != end {
		return 0, errors.Errorf("node %d: expected escape index %d; got %d", nodeIndex, end, node.EscapeIndex)
	}
	return end, nil
}

func (v *validator) checkLeaf(nodeIndex int32, depth int) error {
	node := &v.nodes[nodeIndex]
	v.report.Leafs++

	if node.LeftChild != -1 || node.RightChild != -1 {
		return errors.Errorf("node %d: leaf has children (%d, %d)", nodeIndex, node.LeftChild, node.RightChild)
	}
	if node.PrimitiveCount <= 0 || node.StartIndex < 0 || int(node.StartIndex+node.PrimitiveCount) > len(v.indices) {
		return errors.Errorf("node %d: leaf range [%d, +%d) out of bounds", nodeIndex, node.StartIndex, node.PrimitiveCount)
	}

	bbox := node.BBox()
	centroidBox := types.EmptyAABB()
	for pos := node.StartIndex; pos < node.StartIndex+node.PrimitiveCount; pos++ {
		if v.covered[pos] {
			return errors.Errorf("node %d: index list entry %d is owned by more than one leaf", nodeIndex, pos)
		}
		v.covered[pos] = true

		vol := v.volumes[v.indices[pos]]
		if !bbox.Contains(vol.BBox()) {
			return errors.Errorf("node %d: bounds %v do not contain primitive %d bounds %v", nodeIndex, bbox, v.indices[pos], vol.BBox())
		}
		centroidBox = centroidBox.ExtendPoint(vol.Center())
	}

	if int(node.PrimitiveCount) > v.maxLeafSize {
		axis := centroidBox.LongestAxis()
		coincident := centroidBox.Max[axis]-centroidBox.Min[axis] < minCentroidExtent
		if !coincident && depth < v.opts.MaxDepth {
			return errors.Errorf("node %d: leaf holds %d primitives; limit is %d", nodeIndex, node.PrimitiveCount, v.maxLeafSize)
		}
		v.report.OversizedLeafs = append(v.report.OversizedLeafs, nodeIndex)
	}

	return nil
}
