package cmd

import (
	"strings"

	"github.com/achilleasa/polaris-bvh/asset/compiler/bvh"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/asset/scene/reader"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Load the compiled scene passed as the only command argument.
func loadCompiledScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing compiled scene zip file")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".zip") {
		return nil, errors.New("only compiled scene files with a .zip extension are supported")
	}

	return reader.ReadScene(sceneFile)
}

// Recover BVH build statistics from a compiled scene.
func buildStats(sc *scene.Scene) bvh.Stats {
	info := sc.BuildInfo
	stats := bvh.Stats{
		Primitives:   len(sc.PrimitiveList),
		Nodes:        len(sc.BvhNodeList),
		Leafs:        info.Leafs,
		MaxDepth:     info.MaxDepth,
		MaxLeafSize:  info.MaxLeafSize,
		MedianSplits: info.MedianSplits,
		SAHSplits:    info.Nodes - info.Leafs - info.MedianSplits,
		ForcedLeafs:  info.ForcedLeafs,
		BuildTime:    info.BuildTime,
	}

	for index := range sc.BvhNodeList {
		if count := int(sc.BvhNodeList[index].PrimitiveCount); count > stats.MaxLeafPrimitives {
			stats.MaxLeafPrimitives = count
		}
	}

	return stats
}

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := loadCompiledScene(ctx)
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef("BVH statistics:\n%s", buildStats(sc).Table())

	return nil
}
