package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/model"
)

var beatmapCommand = &cli.Command{
	Name:      "beatmap",
	Usage:     "inspect and rate local .osu and .osz files",
	ArgsUsage: "<path>",
	Subcommands: []*cli.Command{
		{
			Name:      "info",
			Usage:     "print metadata, difficulty settings and star ratings",
			ArgsUsage: "<path>",
			Flags:     modFlags,
			Action:    beatmapInfo,
		},
		{
			Name:      "pp",
			Usage:     "print the performance points awarded at a given accuracy",
			ArgsUsage: "<path>",
			Flags: append([]cli.Flag{
				&cli.Float64Flag{
					Name:  "accuracy",
					Value: 1.0,
					Usage: "accuracy of the play in the range [0, 1]",
				},
				&cli.IntFlag{
					Name:  "combo",
					Usage: "maximum combo reached, 0 for a full combo",
				},
				&cli.IntFlag{
					Name:  "misses",
					Usage: "number of misses",
				},
				&cli.IntFlag{
					Name:  "version",
					Value: 1,
					Usage: "performance points algorithm version, 1 or 2",
				},
			}, modFlags...),
			Action: beatmapPP,
		},
		{
			Name:      "features",
			Usage:     "print the model feature vector for a map",
			ArgsUsage: "<path>",
			Flags:     modFlags,
			Action:    beatmapFeatures,
		},
		{
			Name:      "unpack",
			Usage:     "list the difficulties inside a .osz archive",
			ArgsUsage: "<path>",
			Action:    beatmapUnpack,
		},
	},
}

func beatmapArg(c *cli.Context) (*beatmap.Beatmap, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one path argument")
	}
	return beatmap.FromPath(c.Args().First())
}

func beatmapInfo(c *cli.Context) error {
	b, err := beatmapArg(c)
	if err != nil {
		return err
	}
	summary, err := beatmapSummary(b, modsFromContext(c))
	if err != nil {
		return err
	}
	jsonOutput(summary)
	return nil
}

func beatmapPP(c *cli.Context) error {
	b, err := beatmapArg(c)
	if err != nil {
		return err
	}
	pp, err := b.PerformancePoints(beatmap.PerformanceParams{
		Accuracy:  c.Float64("accuracy"),
		Combo:     c.Int("combo"),
		CountMiss: c.Int("misses"),
		Mods:      modsFromContext(c),
		Version:   c.Int("version"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%.2fpp\n", pp)
	return nil
}

func beatmapFeatures(c *cli.Context) error {
	b, err := beatmapArg(c)
	if err != nil {
		return err
	}
	features, err := model.ExtractFeatures(b, modsFromContext(c))
	if err != nil {
		return err
	}
	jsonOutput(features)
	return nil
}

func beatmapUnpack(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one path argument")
	}
	path := c.Args().First()
	if !strings.HasSuffix(path, ".osz") {
		return fmt.Errorf("%s is not a .osz archive", path)
	}
	beatmaps, err := beatmap.FromOSZPath(path)
	if err != nil {
		return err
	}
	for version, b := range beatmaps {
		var length time.Duration
		if times := b.HitObjectTimes(); len(times) > 0 {
			length = times[len(times)-1]
		}
		fmt.Printf("[%s] %s (%.2f stars, %s)\n",
			version, b.DisplayName(), b.Stars(beatmap.ModCombo{}), length)
	}
	return nil
}
