// Command novasar inspects and catalogs NovaSAR products.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/beetlebugorg/novasar/internal/config"
	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/observability"
	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the state shared by all commands, resolved once flags are parsed.
type env struct {
	cfg    config.Config
	log    logging.Logger
	reader novasar.Reader
	out    io.Writer
}

func (e *env) context() context.Context {
	return logging.ContextWithLogger(context.Background(), e.log)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{out: stdout}

	app := cli.NewApp()
	app.Name = "novasar"
	app.Usage = "inspect and catalog NovaSAR products"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "JSON configuration file",
		},
		cli.BoolFlag{
			Name:  "flip",
			Usage: "reorder tie points into SAR geometry",
		},
		cli.BoolFlag{
			Name:  "slant-range-time",
			Usage: "add the slant range time grid to ground range products",
		},
	}
	app.Before = func(c *cli.Context) error {
		cfg := config.Default()
		if path := c.GlobalString("config"); path != "" {
			var err error
			if cfg, err = config.Load(path); err != nil {
				return err
			}
		}
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		if c.GlobalBool("flip") {
			cfg.FlipToSARGeometry = true
		}
		if c.GlobalBool("slant-range-time") {
			cfg.SlantRangeTimeGrid = true
		}

		e.cfg = cfg
		e.log = logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})
		e.reader = novasar.NewReader(
			novasar.WithConfig(cfg),
			novasar.WithLogger(e.log),
			novasar.WithMetrics(observability.Default()),
		)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Aliases:   []string{"i"},
			Usage:     "print product summary and normalized metadata",
			ArgsUsage: "<product>",
			Action:    e.info,
		},
		{
			Name:      "bands",
			Aliases:   []string{"b"},
			Usage:     "list the bands of a product",
			ArgsUsage: "<product>",
			Action:    e.bands,
		},
		{
			Name:      "grids",
			Aliases:   []string{"g"},
			Usage:     "list the tie-point grids of a product",
			ArgsUsage: "<product>",
			Action:    e.grids,
		},
		{
			Name:      "index",
			Usage:     "find products below directories intersecting a bounding box",
			ArgsUsage: "<dir>...",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "bbox", Usage: "minLon,minLat,maxLon,maxLat"},
				cli.StringFlag{Name: "type", Usage: "comma separated product types"},
				cli.StringFlag{Name: "pass", Usage: "ASCENDING or DESCENDING"},
				cli.StringFlag{Name: "pol", Usage: "polarization code"},
				cli.IntFlag{Name: "workers", Usage: "parallel loaders (0 uses all CPUs)"},
			},
			Action: e.index,
		},
		{
			Name:  "catalog",
			Usage: "maintain a SQLite catalog of product footprints",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "record products in the catalog",
					ArgsUsage: "<product>...",
					Flags:     []cli.Flag{cli.StringFlag{Name: "db", Usage: "catalog database"}},
					Action:    e.catalogAdd,
				},
				{
					Name:  "list",
					Usage: "list cataloged products",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "db", Usage: "catalog database"},
						cli.StringFlag{Name: "bbox", Usage: "minLon,minLat,maxLon,maxLat"},
					},
					Action: e.catalogList,
				},
				{
					Name:      "remove",
					Usage:     "drop products from the catalog",
					ArgsUsage: "<product>...",
					Flags:     []cli.Flag{cli.StringFlag{Name: "db", Usage: "catalog database"}},
					Action:    e.catalogRemove,
				},
			},
		},
	}
	return app
}
