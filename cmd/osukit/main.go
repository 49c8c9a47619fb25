package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/osukit/osukit/config"
)

var (
	configPath string
	verbose    bool
)

func main() {
	app := cli.NewApp()
	app.Name = "osukit"
	app.Version = version
	app.EnableBashCompletion = true
	app.Usage = "command line interface for parsing, scoring and indexing osu! beatmaps and replays"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to the config file or the directory holding it",
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "enable debug logging",
			Destination: &verbose,
		},
	}
	app.Commands = []*cli.Command{
		beatmapCommand,
		replayCommand,
		libraryCommand,
		apiCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "INFO|WARN|DEBUG|ERROR"
		cfg.Database.Verbose = true
	}
	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}
