package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/osukit/osukit/replay"
)

var replayCommand = &cli.Command{
	Name:  "replay",
	Usage: "inspect .osr replay files",
	Subcommands: []*cli.Command{
		{
			Name:      "info",
			Usage:     "print the score, mods and accuracy of a replay",
			ArgsUsage: "<path>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "no-library",
					Usage: "skip resolving the beatmap from the local library",
				},
			},
			Action: replayInfo,
		},
		{
			Name:      "hits",
			Usage:     "reconstruct the hit judgements of a replay from its input stream",
			ArgsUsage: "<path>",
			Action:    replayHits,
		},
	},
}

func replayArg(c *cli.Context, needBeatmap bool) (*replay.Replay, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one path argument")
	}

	var source replay.BeatmapSource
	if needBeatmap {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		lib, err := openLibrary(cfg)
		if err != nil {
			return nil, err
		}
		source = lib
	}
	return replay.FromPath(c.Args().First(), source)
}

func replayInfo(c *cli.Context) error {
	r, err := replayArg(c, !c.Bool("no-library"))
	if err != nil {
		return err
	}

	out := map[string]any{
		"player":     r.PlayerName,
		"mode":       r.Mode.String(),
		"mods":       r.Mods.String(),
		"score":      r.Score,
		"maxCombo":   r.MaxCombo,
		"fullCombo":  r.FullCombo,
		"count300":   r.Count300,
		"count100":   r.Count100,
		"count50":    r.Count50,
		"countMiss":  r.CountMiss,
		"failed":     r.Failed(),
		"timestamp":  r.Timestamp,
		"beatmapMD5": r.BeatmapMD5,
	}
	if accuracy, err := r.Accuracy(); err == nil {
		out["accuracy"] = accuracy
	}
	if r.Beatmap != nil {
		out["beatmap"] = r.Beatmap.DisplayName()
		pp, err := r.PerformancePoints()
		if err != nil {
			return err
		}
		out["pp"] = pp
	}
	jsonOutput(out)
	return nil
}

func replayHits(c *cli.Context) error {
	r, err := replayArg(c, true)
	if err != nil {
		return err
	}
	hits, err := r.Hits()
	if err != nil {
		return err
	}
	jsonOutput(map[string]any{
		"hit300s":      len(hits.Hit300s),
		"hit100s":      len(hits.Hit100s),
		"hit50s":       len(hits.Hit50s),
		"misses":       len(hits.Misses),
		"sliderBreaks": len(hits.SliderBreaks),
	})
	return nil
}
