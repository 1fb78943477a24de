package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/polaris-bvh/asset/compiler/bvh"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Get the build options recorded in a compiled scene. Settings missing from
// the archive fall back to the defaults.
func recordedOptions(info scene.BuildInfo) bvh.Options {
	opts := bvh.DefaultOptions()
	if info.MaxLeafSize > 0 {
		opts.MaxLeafSize = info.MaxLeafSize
	}
	if info.BinCount > 0 {
		opts.BinCount = info.BinCount
	}
	if info.DepthLimit > 0 {
		opts.MaxDepth = info.DepthLimit
	}
	return opts
}

// Check the structural invariants of a compiled scene BVH.
func VerifyScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := loadCompiledScene(ctx)
	if err != nil {
		return err
	}

	report, err := bvh.Validate(sc.BvhNodeList, sc.IndexList, bvh.FromPrimitives(sc.PrimitiveList), recordedOptions(sc.BuildInfo))
	if err != nil {
		logger.Errorf("scene %q failed verification", sc.Name)
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Check", "Result"})
	table.Append([]string{"Nodes", fmt.Sprint(report.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprint(report.Leafs)})
	table.Append([]string{"Max depth", fmt.Sprint(report.MaxDepth)})
	table.Append([]string{"Oversized leafs", fmt.Sprint(len(report.OversizedLeafs))})
	table.Render()

	logger.Noticef("scene %q passed verification:\n%s", sc.Name, buf.String())
	return nil
}
