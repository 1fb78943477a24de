package cmd

import (
	"strings"

	"github.com/achilleasa/polaris-bvh/asset/compiler"
	"github.com/achilleasa/polaris-bvh/asset/compiler/bvh"
	"github.com/achilleasa/polaris-bvh/asset/scene/reader"
	"github.com/achilleasa/polaris-bvh/asset/scene/writer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var defaultOptions = bvh.DefaultOptions()

// Flags controlling the BVH build. Each one can also be set through an
// environment variable.
var BuildFlags = []cli.Flag{
	cli.IntFlag{
		Name:   "max-leaf-size",
		Value:  defaultOptions.MaxLeafSize,
		Usage:  "max primitives per leaf; 0 selects a size based on the primitive count",
		EnvVar: "BVH_MAX_LEAF_SIZE",
	},
	cli.IntFlag{
		Name:   "bins",
		Value:  defaultOptions.BinCount,
		Usage:  "number of bins for the SAH split search",
		EnvVar: "BVH_BINS",
	},
	cli.Float64Flag{
		Name:   "traversal-cost",
		Value:  float64(defaultOptions.TraversalCost),
		Usage:  "SAH node traversal cost",
		EnvVar: "BVH_TRAVERSAL_COST",
	},
	cli.Float64Flag{
		Name:   "intersection-cost",
		Value:  float64(defaultOptions.IntersectionCost),
		Usage:  "SAH primitive intersection cost",
		EnvVar: "BVH_INTERSECTION_COST",
	},
	cli.Float64Flag{
		Name:   "imbalance",
		Value:  float64(defaultOptions.ImbalanceThreshold),
		Usage:  "reject SAH splits whose |left-right|/(left+right) reaches this value",
		EnvVar: "BVH_IMBALANCE",
	},
	cli.Float64Flag{
		Name:   "split-cost",
		Value:  float64(defaultOptions.SplitCostThreshold),
		Usage:  "fall back to a median split when the best SAH cost exceeds this value",
		EnvVar: "BVH_SPLIT_COST",
	},
	cli.IntFlag{
		Name:   "max-depth",
		Value:  defaultOptions.MaxDepth,
		Usage:  "force leafs at this tree depth",
		EnvVar: "BVH_MAX_DEPTH",
	},
	cli.StringFlag{
		Name:   "out, o",
		Usage:  "output file; only valid when compiling a single scene",
		EnvVar: "BVH_OUT",
	},
}

func buildOptions(ctx *cli.Context) bvh.Options {
	return bvh.Options{
		MaxLeafSize:        ctx.Int("max-leaf-size"),
		BinCount:           ctx.Int("bins"),
		TraversalCost:      float32(ctx.Float64("traversal-cost")),
		IntersectionCost:   float32(ctx.Float64("intersection-cost")),
		ImbalanceThreshold: float32(ctx.Float64("imbalance")),
		SplitCostThreshold: float32(ctx.Float64("split-cost")),
		MaxDepth:           ctx.Int("max-depth"),
	}
}

// Parse wavefront scenes, build their BVH and write the compiled scenes to
// zip archives.
func BuildScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene file(s)")
	}

	outFile := ctx.String("out")
	if outFile != "" && ctx.NArg() > 1 {
		return errors.New("the --out flag can only be used with a single scene file")
	}

	opts := buildOptions(ctx)
	if err := opts.Validate(); err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		in, err := reader.ReadInput(sceneFile)
		if err != nil {
			return err
		}

		sc, err := compiler.Compile(in, opts)
		if err != nil {
			return errors.Wrapf(err, "could not compile %s", sceneFile)
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())
		logger.Infof("BVH statistics:\n%s", buildStats(sc).Table())

		zipFile := outFile
		if zipFile == "" {
			zipFile = strings.TrimSuffix(sceneFile, ".obj") + ".zip"
		}
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			return err
		}
	}

	return nil
}
