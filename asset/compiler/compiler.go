package compiler

import (
	"time"

	"github.com/achilleasa/polaris-bvh/asset/compiler/bvh"
	"github.com/achilleasa/polaris-bvh/asset/compiler/input"
	"github.com/achilleasa/polaris-bvh/asset/scene"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/pkg/errors"
)

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	opts           bvh.Options
	logger         log.Logger
}

// Compile a scene representation parsed by a scene reader into a GPU-friendly
// optimized scene format.
func Compile(parsedScene *input.Scene, opts bvh.Options) (*scene.Scene, error) {
	if parsedScene == nil {
		return nil, errors.New("compiler: nil scene")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	compiler := &sceneCompiler{
		parsedScene: parsedScene,
		optimizedScene: &scene.Scene{
			Name: parsedScene.Name,
		},
		opts:   opts,
		logger: log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene %q", parsedScene.Name)

	if err := compiler.partitionGeometry(); err != nil {
		return nil, err
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Build the scene BVH tree and populate the node, index and primitive lists.
func (sc *sceneCompiler) partitionGeometry() error {
	start := time.Now()
	sc.logger.Notice("partitioning geometry")

	if len(sc.parsedScene.Primitives) == 0 {
		sc.logger.Warning("the scene contains no primitives; the compiled BVH will be empty")
	}

	// The compiled scene owns a copy of the primitive list so later changes
	// to the parsed scene do not leak into it.
	prims := make([]scene.Primitive, len(sc.parsedScene.Primitives))
	copy(prims, sc.parsedScene.Primitives)

	sc.logger.Infof("building BVH tree (%d primitives)", len(prims))
	tree, err := bvh.New(bvh.FromPrimitives(prims), sc.opts)
	if err != nil {
		return err
	}

	stats := tree.Stats()
	sc.optimizedScene.BvhNodeList = tree.Nodes()
	sc.optimizedScene.IndexList = tree.Indices()
	sc.optimizedScene.PrimitiveList = prims
	sc.optimizedScene.BuildInfo = scene.BuildInfo{
		MaxLeafSize:      stats.MaxLeafSize,
		BinCount:         sc.opts.BinCount,
		TraversalCost:    sc.opts.TraversalCost,
		IntersectionCost: sc.opts.IntersectionCost,
		DepthLimit:       sc.opts.MaxDepth,
		Nodes:            stats.Nodes,
		Leafs:            stats.Leafs,
		MaxDepth:         stats.MaxDepth,
		ForcedLeafs:      stats.ForcedLeafs,
		MedianSplits:     stats.MedianSplits,
		BuildTime:        stats.BuildTime,
	}

	if stats.ForcedLeafs > 0 {
		sc.logger.Warningf("emitted %d oversized leafs (coincident centroids or depth limit reached)", stats.ForcedLeafs)
	}

	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
