package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/achilleasa/polaris-bvh/types"
	"github.com/olekukonko/tablewriter"
)

// Bvh nodes are stored in pre-order so a node's left child, when present, is
// always the next node in the list. The layout mirrors the struct read by the
// traversal kernels (see BvhNodeSize):
//
// - For internal nodes LeftChild/RightChild index the child nodes while
//   StartIndex is -1 and PrimitiveCount is 0.
// - For leafs LeftChild/RightChild are -1 and [StartIndex, StartIndex+PrimitiveCount)
//   selects a range from the index list.
// - EscapeIndex points to the node visited next when the subtree rooted at
//   this node is skipped. A value equal to the node count ends traversal.
type BvhNode struct {
	Min       types.Vec3
	LeftChild int32

	Max        types.Vec3
	RightChild int32

	StartIndex     int32
	PrimitiveCount int32
	EscapeIndex    int32

	padding int32
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox types.AABB) {
	n.Min = bbox.Min
	n.Max = bbox.Max
}

// Get bounding box.
func (n *BvhNode) BBox() types.AABB {
	return types.AABB{Min: n.Min, Max: n.Max}
}

// Set left and right child node indices and clear the primitive range.
func (n *BvhNode) SetChildNodes(left, right int32) {
	n.LeftChild = left
	n.RightChild = right
	n.StartIndex = -1
	n.PrimitiveCount = 0
}

// Turn node into a leaf that owns count entries of the index list starting at start.
func (n *BvhNode) SetLeaf(start, count int32) {
	n.LeftChild = -1
	n.RightChild = -1
	n.StartIndex = start
	n.PrimitiveCount = count
}

// Returns true if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.LeftChild < 0 && n.RightChild < 0
}

// A summary of the parameters and results of the BVH build that produced a
// compiled scene.
type BuildInfo struct {
	MaxLeafSize      int
	BinCount         int
	TraversalCost    float32
	IntersectionCost float32
	DepthLimit       int

	Nodes        int
	Leafs        int
	MaxDepth     int
	ForcedLeafs  int
	MedianSplits int
	BuildTime    time.Duration
}

// A compiled scene ready to be uploaded to the GPU.
type Scene struct {
	Name string

	BvhNodeList []BvhNode

	// A permutation of [0, len(PrimitiveList)); leafs reference
	// contiguous ranges of this list.
	IndexList []uint32

	// Primitives in their original order.
	PrimitiveList []Primitive

	BuildInfo BuildInfo
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", " ", fmtSize(sc.PrimitiveList)})
	table.Append([]string{"", "Triangles", fmt.Sprint(sc.countKind(TriangleShape)), " "})
	table.Append([]string{"", "Spheres", fmt.Sprint(sc.countKind(SphereShape)), " "})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"BVH", "---", " ", fmtSize(sc.BvhNodeList, sc.IndexList)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(sc.BvhNodeList)), fmtSize(sc.BvhNodeList)})
	table.Append([]string{"", "Indices", fmt.Sprint(len(sc.IndexList)), fmtSize(sc.IndexList)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.PrimitiveList, sc.BvhNodeList, sc.IndexList), " ")})

	table.Render()
	return buf.String()
}

func (sc *Scene) countKind(kind ShapeKind) int {
	count := 0
	for index := range sc.PrimitiveList {
		if sc.PrimitiveList[index].Kind == kind {
			count++
		}
	}
	return count
}

// Sum the GPU buffer space used by a set of slices and return back a
// formatted value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(gpuStride(v.Type().Elem()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}

// Get the size of an encoded GPU buffer element for a slice element type.
func gpuStride(t reflect.Type) int {
	switch t {
	case reflect.TypeOf(BvhNode{}):
		return BvhNodeSize
	case reflect.TypeOf(Primitive{}):
		return PrimitiveSize
	case reflect.TypeOf(uint32(0)):
		return IndexSize
	}
	return int(t.Size())
}
