package bvh

import (
	"time"

	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
)

// If the centroid box extent along the split axis is below this threshold
// all centroids are treated as coincident and the range becomes a leaf.
const minCentroidExtent float32 = 1e-6

// The BoundedVolume interface is implemented by all primitives that can
// be partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() types.AABB
	Center() types.Vec3
}

// Wrap a primitive list so it can be passed to the builder. The returned
// volumes point into prims.
func FromPrimitives(prims []scene.Primitive) []BoundedVolume {
	volumes := make([]BoundedVolume, len(prims))
	for index := range prims {
		volumes[index] = &prims[index]
	}
	return volumes
}

// A Tree owns a flattened BVH and the primitive index permutation it
// references. Both lists are rebuilt from scratch by Rebuild; callers must
// not read them while a rebuild is in progress.
type Tree struct {
	logger log.Logger
	opts   Options

	volumes []BoundedVolume
	nodes   []scene.BvhNode
	indices []uint32
	stats   Stats
}

// Build a BVH tree for the given volumes.
func New(volumes []BoundedVolume, opts Options) (*Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	t := &Tree{
		logger: log.New("bvh tree"),
		opts:   opts,
	}
	t.build(volumes)
	return t, nil
}

// Replace the tree volumes and rebuild the hierarchy from scratch.
func (t *Tree) Rebuild(volumes []BoundedVolume) {
	t.logger.Infof("rebuilding BVH tree (%d -> %d primitives)", len(t.volumes), len(volumes))
	t.build(volumes)
}

func (t *Tree) build(volumes []BoundedVolume) {
	t.volumes = make([]BoundedVolume, len(volumes))
	copy(t.volumes, volumes)
	t.nodes, t.indices, t.stats = Build(t.volumes, t.opts)
}

// Get the flattened node list. The returned slice must be treated as read-only.
func (t *Tree) Nodes() []scene.BvhNode {
	return t.nodes
}

// Get the primitive index permutation. The returned slice must be treated as read-only.
func (t *Tree) Indices() []uint32 {
	return t.indices
}

// Get the volumes the tree was built from.
func (t *Tree) Volumes() []BoundedVolume {
	return t.volumes
}

// Get build statistics.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Get the options used for building the tree.
func (t *Tree) Options() Options {
	return t.opts
}

// Walk the tree using its escape indices. See Walk.
func (t *Tree) Walk(hit func(types.AABB) bool, visit func(primIndex uint32) bool) {
	Walk(t.nodes, t.indices, hit, visit)
}

type bin struct {
	bbox  types.AABB
	count int
}

type builder struct {
	logger log.Logger
	opts   Options

	maxLeafSize int

	// Per-volume bounds and centroids, indexed by original volume index.
	bounds  []types.AABB
	centers []types.Vec3

	nodes   []scene.BvhNode
	indices []uint32

	// Reusable buffers for the split search and partitioning.
	bins        []bin
	leftArea    []float32
	leftCount   []int
	rightArea   []float32
	rightCount  []int
	partitioned []uint32

	stats Stats
}

// Construct a flattened BVH from a set of bounded volumes. It returns the
// node list in pre-order and a permutation of [0, len(volumes)) whose
// contiguous ranges are owned by the tree leafs. Options are assumed to be
// valid. An empty volume list yields empty node and index lists.
func Build(volumes []BoundedVolume, opts Options) ([]scene.BvhNode, []uint32, Stats) {
	count := len(volumes)
	b := &builder{
		logger:      log.New("bvh builder"),
		opts:        opts,
		maxLeafSize: opts.LeafSizeFor(count),
		bounds:      make([]types.AABB, count),
		centers:     make([]types.Vec3, count),
		nodes:       make([]scene.BvhNode, 0, 2*count),
		indices:     make([]uint32, count),
		bins:        make([]bin, opts.BinCount),
		leftArea:    make([]float32, opts.BinCount-1),
		leftCount:   make([]int, opts.BinCount-1),
		rightArea:   make([]float32, opts.BinCount-1),
		rightCount:  make([]int, opts.BinCount-1),
		partitioned: make([]uint32, count),
		stats: Stats{
			Primitives:  count,
			MaxLeafSize: opts.LeafSizeFor(count),
		},
	}

	for index, vol := range volumes {
		b.indices[index] = uint32(index)
		b.bounds[index] = vol.BBox()
		b.centers[index] = vol.Center()
	}

	start := time.Now()
	if count > 0 {
		b.partition(0, count, 0)
	}
	b.stats.Nodes = len(b.nodes)
	b.stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, sah splits: %d, median splits: %d, forced leafs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leafs,
		b.stats.SAHSplits, b.stats.MedianSplits, b.stats.ForcedLeafs,
	)
	return b.nodes, b.indices, b.stats
}

// Partition the index range [start, start+count) and return the index of
// the emitted node. Nodes are emitted in pre-order so the left subtree
// immediately follows its parent and the right subtree follows the left one.
func (b *builder) partition(start, count, depth int) int32 {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, scene.BvhNode{})
	b.nodes[nodeIndex].SetBBox(b.rangeBounds(start, count))

	// Do we have few enough items for a leaf?
	if count <= b.maxLeafSize {
		return b.createLeaf(nodeIndex, start, count)
	}

	if depth >= b.opts.MaxDepth {
		b.logger.Warningf("reached max depth %d; forcing leaf with %d primitives", b.opts.MaxDepth, count)
		return b.createLeaf(nodeIndex, start, count)
	}

	// Split along the longest axis of the centroid box. If all centroids
	// coincide no plane can separate them.
	centroidBox := b.rangeCentroidBounds(start, count)
	axis := centroidBox.LongestAxis()
	if centroidBox.Max[axis]-centroidBox.Min[axis] < minCentroidExtent {
		return b.createLeaf(nodeIndex, start, count)
	}

	mid, found := b.sahSplit(start, count, axis, centroidBox, b.nodes[nodeIndex].BBox())
	if found {
		b.stats.SAHSplits++
	} else {
		mid = b.medianSplit(start, count, axis)
		b.stats.MedianSplits++
	}

	// Never recurse into an empty side
	if mid <= start || mid >= start+count {
		return b.createLeaf(nodeIndex, start, count)
	}

	leftNodeIndex := b.partition(start, mid-start, depth+1)
	rightNodeIndex := b.partition(mid, start+count-mid, depth+1)

	// b.nodes may have been reallocated by the recursive calls
	node := &b.nodes[nodeIndex]
	node.SetChildNodes(leftNodeIndex, rightNodeIndex)

	// Skipping the left subtree lands on the right child; skipping the
	// right subtree is the same as skipping this node's subtree which now
	// ends at the last emitted node.
	node.EscapeIndex = int32(len(b.nodes))
	b.nodes[leftNodeIndex].EscapeIndex = rightNodeIndex
	b.nodes[rightNodeIndex].EscapeIndex = node.EscapeIndex

	return nodeIndex
}

// Setup the given node as a leaf owning the index range [start, start+count).
func (b *builder) createLeaf(nodeIndex int32, start, count int) int32 {
	node := &b.nodes[nodeIndex]
	node.SetLeaf(int32(start), int32(count))
	node.EscapeIndex = nodeIndex + 1

	b.stats.Leafs++
	if count > b.stats.MaxLeafPrimitives {
		b.stats.MaxLeafPrimitives = count
	}
	if count > b.maxLeafSize {
		b.stats.ForcedLeafs++
	}

	return nodeIndex
}

// Calculate the union of the volume bounds in the given index range.
func (b *builder) rangeBounds(start, count int) types.AABB {
	bbox := types.EmptyAABB()
	for _, volIndex := range b.indices[start : start+count] {
		bbox = types.Merge(bbox, b.bounds[volIndex])
	}
	return bbox
}

// Calculate the box enclosing the volume centroids in the given index range.
func (b *builder) rangeCentroidBounds(start, count int) types.AABB {
	bbox := types.EmptyAABB()
	for _, volIndex := range b.indices[start : start+count] {
		bbox = bbox.ExtendPoint(b.centers[volIndex])
	}
	return bbox
}
