package bvh

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats collected while building a BVH tree.
type Stats struct {
	Primitives int
	Nodes      int
	Leafs      int
	MaxDepth   int

	// The leaf size used for the build and the largest leaf emitted.
	MaxLeafSize       int
	MaxLeafPrimitives int

	SAHSplits    int
	MedianSplits int

	// Leafs holding more than MaxLeafSize primitives because their
	// centroids coincided or the depth limit was reached.
	ForcedLeafs int

	BuildTime time.Duration
}

// Build a tabular representation of the build statistics.
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"BVH Stat", "Value"})
	table.Append([]string{"Primitives", fmt.Sprint(s.Primitives)})
	table.Append([]string{"Nodes", fmt.Sprint(s.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprint(s.Leafs)})
	table.Append([]string{"Max depth", fmt.Sprint(s.MaxDepth)})
	table.Append([]string{"Leaf size (limit / max)", fmt.Sprintf("%d / %d", s.MaxLeafSize, s.MaxLeafPrimitives)})
	table.Append([]string{"SAH splits", fmt.Sprint(s.SAHSplits)})
	table.Append([]string{"Median splits", fmt.Sprint(s.MedianSplits)})
	table.Append([]string{"Forced leafs", fmt.Sprint(s.ForcedLeafs)})
	table.SetFooter([]string{"Build time", fmt.Sprintf("%d ms", s.BuildTime.Nanoseconds()/1e6)})

	table.Render()
	return buf.String()
}
