package main

import (
	"os"

	"github.com/achilleasa/polaris-bvh/cmd"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "polaris-bvh"
	app.Usage = "build bounding volume hierarchies for GPU ray tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "notice",
			Usage:  "log level (debug, info, notice, warning, error)",
			EnvVar: "BVH_LOG_LEVEL",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:    "build",
			Aliases: []string{"compile"},
			Usage:   "compile a wavefront scene into a GPU-friendly BVH archive",
			Description: `
Parse a scene definition from a wavefront obj file, build a BVH tree using
binned SAH splits and write the flattened nodes, the primitive index list and
the primitives to a zip archive.

Each leaf references a contiguous range of the index list and each node stores
an escape index so the tree can be traversed without a stack.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags:     cmd.BuildFlags,
			Action:    cmd.BuildScene,
		},
		{
			Name:      "info",
			Usage:     "print information about a compiled scene",
			ArgsUsage: "scene_file.zip",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:      "verify",
			Usage:     "check the BVH stored in a compiled scene",
			ArgsUsage: "scene_file.zip",
			Action:    cmd.VerifyScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("polaris-bvh").Error(err.Error())
		os.Exit(1)
	}
}
