package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/osukit/osukit/client"
)

var apiCommand = &cli.Command{
	Name:  "api",
	Usage: "query the osu! web API",
	Subcommands: []*cli.Command{
		{
			Name:  "beatmap",
			Usage: "look up beatmap metadata",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "id", Usage: "beatmap id"},
				&cli.StringFlag{Name: "md5", Usage: "md5 hash of the .osu file"},
				&cli.IntFlag{Name: "set", Usage: "beatmap set id"},
				&cli.IntFlag{Name: "limit", Usage: "maximum number of results"},
			},
			Action: apiBeatmap,
		},
		{
			Name:      "download",
			Usage:     "download the .osu file for a beatmap id",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "file to write, defaults to <id>.osu",
				},
				&cli.BoolFlag{
					Name:  "save",
					Usage: "save the map into the configured library instead",
				},
			},
			Action: apiDownload,
		},
	},
}

func apiClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newClient(cfg)
}

func apiBeatmap(c *cli.Context) error {
	cl, err := apiClient()
	if err != nil {
		return err
	}

	results, err := cl.Beatmaps(c.Context, client.BeatmapRequest{
		BeatmapID:    c.Int("id"),
		BeatmapMD5:   c.String("md5"),
		BeatmapSetID: c.Int("set"),
		Limit:        c.Int("limit"),
	})
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Println(result)
	}
	return nil
}

func apiDownload(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one beatmap id argument")
	}
	var beatmapID int
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &beatmapID); err != nil {
		return fmt.Errorf("beatmap id should be an int, got %q", c.Args().First())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cl, err := newClient(cfg)
	if err != nil {
		return err
	}

	data, err := cl.DownloadBeatmapContext(c.Context, beatmapID)
	if err != nil {
		return err
	}

	if c.Bool("save") {
		lib, err := openLibrary(cfg)
		if err != nil {
			return err
		}
		defer lib.Close()
		b, err := lib.Save(data)
		if err != nil {
			return err
		}
		fmt.Printf("saved %s\n", b.DisplayName())
		return nil
	}

	output := c.String("output")
	if output == "" {
		output = fmt.Sprintf("%d.osu", beatmapID)
	}
	return os.WriteFile(output, data, 0o644)
}
