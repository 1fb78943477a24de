package cmd

import (
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/urfave/cli"
)

var logger = log.New("polaris-bvh")

// Apply the global logging flags. The -v and -vv flags take precedence
// over --log-level.
func setupLogging(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.GlobalString("log-level"))
	if err != nil {
		return err
	}

	if ctx.GlobalBool("v") {
		level = log.Info
	}

	if ctx.GlobalBool("vv") {
		level = log.Debug
	}

	log.SetLevel(level)
	return nil
}
