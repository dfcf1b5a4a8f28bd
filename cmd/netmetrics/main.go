package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/KyungWonPark/Connectome/internal/config"
	"github.com/KyungWonPark/Connectome/internal/errors"
	"github.com/KyungWonPark/Connectome/internal/logger"
	"github.com/KyungWonPark/Connectome/internal/sweep"
)

// Example calls:
// NETMETRICS_ROOT=/imaging netmetrics run sub-01 vat_left
// netmetrics --config netmetrics.yaml run --lower 70 --upper 75 --dump-npy sub-01 vat_left

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "netmetrics"
	app.Usage = "Degree and betweenness of tractography networks over a density sweep"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "YAML configuration file",
			EnvVar: "NETMETRICS_CONFIG",
		},
		cli.StringFlag{
			Name:  "root",
			Usage: "data root holding <subject>/diffusion/stats/<source>",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Compute the metrics table of one subject and source directory",
			ArgsUsage: "<subject> <source>",
			Description: "Loads fdt_network_matrix and waytotal, normalizes rows by waytotal,\n" +
				"   symmetrizes, and for every integer percentile in [lower, upper] binarizes\n" +
				"   the matrix and computes degree and betweenness per node. The table is\n" +
				"   written to network_metrics.csv next to the inputs.",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "lower, l",
					Value: 60,
					Usage: "lowest percentile threshold",
				},
				cli.IntFlag{
					Name:  "upper, u",
					Value: 80,
					Usage: "highest percentile threshold",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "thresholds computed in parallel (0: one per CPU)",
				},
				cli.BoolFlag{
					Name:  "include-diagonal",
					Usage: "take percentiles over all entries including the diagonal",
				},
				cli.BoolFlag{
					Name:  "dump-npy",
					Usage: "also write the symmetric and every binary matrix as .npy",
				},
			},
			Action: runAction,
		},
		{
			Name:      "paths",
			Usage:     "Print the files a run would read and write",
			ArgsUsage: "<subject> <source>",
			Action:    pathsAction,
		},
	}

	return app
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	if root := c.GlobalString("root"); root != "" {
		cfg.Root = root
	}
	if level := c.GlobalString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	if c.IsSet("lower") {
		cfg.Sweep.Lower = c.Int("lower")
	}
	if c.IsSet("upper") {
		cfg.Sweep.Upper = c.Int("upper")
	}
	if c.IsSet("workers") {
		cfg.Sweep.Workers = c.Int("workers")
	}
	if c.Bool("include-diagonal") {
		cfg.Sweep.ExcludeDiagonal = false
	}
	if c.Bool("dump-npy") {
		cfg.Sweep.DumpNpy = true
	}

	return cfg, nil
}

func subjectAndSource(c *cli.Context) (string, string, error) {
	if c.NArg() != 2 {
		return "", "", errors.New(errors.Config, "cli", "want <subject> <source>, got %d arguments", c.NArg())
	}

	return c.Args().Get(0), c.Args().Get(1), nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return exit(nil, err)
	}

	lg, err := logger.New(cfg.Log.Level)
	if err != nil {
		return exit(nil, err)
	}
	defer lg.Sync()

	subject, source, err := subjectAndSource(c)
	if err != nil {
		return exit(lg, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sweep.Run(ctx, cfg, subject, source, lg)
	if err != nil {
		return exit(lg, err)
	}

	fmt.Println(res.Paths.Output)
	return nil
}

func pathsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return exit(nil, err)
	}

	subject, source, err := subjectAndSource(c)
	if err != nil {
		return exit(nil, err)
	}
	if err := cfg.Validate(); err != nil {
		return exit(nil, err)
	}

	paths, err := cfg.Paths(subject, source)
	if err != nil {
		return exit(nil, err)
	}

	fmt.Printf("matrix\t%s\nwaytotal\t%s\noutput\t%s\n", paths.Matrix, paths.Waytotal, paths.Output)
	return nil
}

var exitCodes = map[errors.Kind]int{
	errors.NotFound:    2,
	errors.FileFormat:  3,
	errors.DataQuality: 4,
	errors.Dependency:  5,
	errors.Config:      6,
}

// exit logs err with its kind and turns it into a cli exit error
func exit(lg *zap.Logger, err error) error {
	kind := errors.KindOf(err)

	code, ok := exitCodes[kind]
	if !ok {
		code = 1
	}

	if lg == nil {
		return cli.NewExitError(fmt.Sprintf("netmetrics: %v", err), code)
	}

	lg.Error("run failed", zap.String("kind", string(kind)), zap.Error(err))
	return cli.NewExitError("", code)
}
