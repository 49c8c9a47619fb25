package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/osukit/osukit/library"
)

var libraryCommand = &cli.Command{
	Name:  "library",
	Usage: "manage the local beatmap index",
	Subcommands: []*cli.Command{
		{
			Name:   "build",
			Usage:  "index every .osu file under the configured library path",
			Action: libraryBuild,
		},
		{
			Name:  "lookup",
			Usage: "find an indexed beatmap by md5 hash or beatmap id",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "md5", Usage: "md5 hash of the .osu file"},
				&cli.IntFlag{Name: "id", Usage: "beatmap id"},
			},
			Action: libraryLookup,
		},
		{
			Name:   "list",
			Usage:  "print the md5 hash of every indexed beatmap",
			Action: libraryList,
		},
	},
}

func libraryOpen() (*library.Library, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openLibrary(cfg)
}

func libraryBuild(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateLibrary(); err != nil {
		return err
	}
	lib, err := library.Create(cfg.Library.Path, cfg.Library.Recurse)
	if err != nil {
		return err
	}
	return lib.Close()
}

func libraryLookup(c *cli.Context) error {
	lib, err := libraryOpen()
	if err != nil {
		return err
	}
	defer lib.Close()

	md5 := c.String("md5")
	id := c.Int("id")
	switch {
	case md5 != "" && id != 0:
		return fmt.Errorf("md5 and id are mutually exclusive")
	case md5 != "":
		b, err := lib.LookupByMD5(md5)
		if err != nil {
			return err
		}
		summary, err := beatmapSummary(b, 0)
		if err != nil {
			return err
		}
		jsonOutput(summary)
	case id != 0:
		b, err := lib.LookupByID(id)
		if err != nil {
			return err
		}
		summary, err := beatmapSummary(b, 0)
		if err != nil {
			return err
		}
		jsonOutput(summary)
	default:
		return fmt.Errorf("either md5 or id is required")
	}
	return nil
}

func libraryList(c *cli.Context) error {
	lib, err := libraryOpen()
	if err != nil {
		return err
	}
	defer lib.Close()

	md5s, err := lib.MD5s()
	if err != nil {
		return err
	}
	for _, sum := range md5s {
		fmt.Println(sum)
	}
	return nil
}
