package bvh

import "github.com/pkg/errors"

const (
	// Scenes with fewer primitives than this use larger leafs when the leaf
	// size is selected automatically.
	smallSceneThreshold = 64

	smallSceneLeafSize = 12
	largeSceneLeafSize = 2
)

// Options control the BVH build. Use DefaultOptions to obtain a sensible
// starting point.
type Options struct {
	// Ranges with at most this many primitives become leafs. A zero value
	// selects the leaf size based on the primitive count (see AutoLeafSize).
	MaxLeafSize int

	// The number of bins used for the binned SAH split search.
	BinCount int

	// SAH cost model constants.
	TraversalCost    float32
	IntersectionCost float32

	// Split planes with |left-right|/(left+right) >= ImbalanceThreshold are
	// rejected.
	ImbalanceThreshold float32

	// If the best SAH split costs more than this (per primitive), the builder
	// falls back to a median split.
	SplitCostThreshold float32

	// Nodes at this depth are always turned into leafs.
	MaxDepth int
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		MaxLeafSize:        4,
		BinCount:           16,
		TraversalCost:      0.5,
		IntersectionCost:   1.0,
		ImbalanceThreshold: 0.9,
		SplitCostThreshold: 1.0,
		MaxDepth:           64,
	}
}

// Select a leaf size for a scene with the given number of primitives. Small
// scenes get larger leafs to avoid tree overhead; larger scenes get smaller
// leafs to keep traversal tight.
func AutoLeafSize(primitiveCount int) int {
	if primitiveCount < smallSceneThreshold {
		return smallSceneLeafSize
	}
	return largeSceneLeafSize
}

// Get the effective leaf size for a scene with the given number of primitives.
func (o Options) LeafSizeFor(primitiveCount int) int {
	if o.MaxLeafSize == 0 {
		return AutoLeafSize(primitiveCount)
	}
	return o.MaxLeafSize
}

// Check that the options describe a usable build configuration.
func (o Options) Validate() error {
	switch {
	case o.MaxLeafSize < 0:
		return errors.Errorf("bvh: max leaf size must be >= 0; got %d", o.MaxLeafSize)
	case o.BinCount < 2:
		return errors.Errorf("bvh: bin count must be >= 2; got %d", o.BinCount)
	case o.TraversalCost < 0:
		return errors.Errorf("bvh: traversal cost must be >= 0; got %f", o.TraversalCost)
	case o.IntersectionCost <= 0:
		return errors.Errorf("bvh: intersection cost must be > 0; got %f", o.IntersectionCost)
	case o.ImbalanceThreshold <= 0 || o.ImbalanceThreshold > 1:
		return errors.Errorf("bvh: imbalance threshold must be in (0, 1]; got %f", o.ImbalanceThreshold)
	case o.SplitCostThreshold <= 0:
		return errors.Errorf("bvh: split cost threshold must be > 0; got %f", o.SplitCostThreshold)
	case o.MaxDepth < 1:
		return errors.Errorf("bvh: max depth must be >= 1; got %d", o.MaxDepth)
	}
	return nil
}
