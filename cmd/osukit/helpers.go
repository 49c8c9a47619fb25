package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/client"
	"github.com/osukit/osukit/config"
	"github.com/osukit/osukit/game"
	"github.com/osukit/osukit/library"
)

// version is overridden at build time with -ldflags
var version = "dev"

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

// modFlags are shared by every command that scores or rates a play
var modFlags = []cli.Flag{
	&cli.BoolFlag{Name: "easy", Aliases: []string{"ez"}, Usage: "apply the Easy mod"},
	&cli.BoolFlag{Name: "hardrock", Aliases: []string{"hr"}, Usage: "apply the HardRock mod"},
	&cli.BoolFlag{Name: "halftime", Aliases: []string{"ht"}, Usage: "apply the HalfTime mod"},
	&cli.BoolFlag{Name: "doubletime", Aliases: []string{"dt"}, Usage: "apply the DoubleTime mod"},
	&cli.BoolFlag{Name: "hidden", Aliases: []string{"hd"}, Usage: "apply the Hidden mod"},
	&cli.BoolFlag{Name: "flashlight", Aliases: []string{"fl"}, Usage: "apply the Flashlight mod"},
}

func modsFromContext(c *cli.Context) game.Mods {
	var m game.Mods
	if c.Bool("easy") {
		m |= game.ModEasy
	}
	if c.Bool("hardrock") {
		m |= game.ModHardRock
	}
	if c.Bool("halftime") {
		m |= game.ModHalfTime
	}
	if c.Bool("doubletime") {
		m |= game.ModDoubleTime
	}
	if c.Bool("hidden") {
		m |= game.ModHidden
	}
	if c.Bool("flashlight") {
		m |= game.ModFlashlight
	}
	return m
}

func newClient(cfg *config.Config) (*client.Client, error) {
	if cfg.API.Key == "" {
		return nil, fmt.Errorf("no API key configured, set api.key or %s_API_KEY", config.EnvPrefix)
	}
	var opts []client.Option
	if cfg.API.URL != "" {
		opts = append(opts, client.WithAPIURL(cfg.API.URL))
	}
	return client.New(cfg.API.Key, opts...), nil
}

// openLibrary opens the configured library, attaching a downloader when one
// is configured and an API key is available
func openLibrary(cfg *config.Config) (*library.Library, error) {
	if err := cfg.ValidateLibrary(); err != nil {
		return nil, err
	}
	opts := []library.Option{}
	if cfg.Library.CacheSize > 0 {
		opts = append(opts, library.WithCacheSize(cfg.Library.CacheSize))
	}
	if cfg.Library.Download {
		cl, err := newClient(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, library.WithDownloader(cl))
	}
	return library.New(cfg.Library.Path, opts...)
}

func beatmapSummary(b *beatmap.Beatmap, mods game.Mods) (map[string]any, error) {
	combo := beatmap.ModComboFromMods(mods)
	bpmMin, err := b.BPMMin(combo)
	if err != nil {
		return nil, err
	}
	bpmMax, err := b.BPMMax(combo)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":         b.DisplayName(),
		"creator":      b.Creator,
		"beatmapID":    b.BeatmapID,
		"beatmapSetID": b.BeatmapSetID,
		"mode":         b.Mode.String(),
		"mods":         mods.String(),
		"HP":           b.HP(combo),
		"CS":           b.CS(combo),
		"OD":           b.OD(combo),
		"AR":           b.AR(combo),
		"bpmMin":       bpmMin,
		"bpmMax":       bpmMax,
		"maxCombo":     b.MaxCombo(),
		"aimStars":     b.AimStars(combo),
		"speedStars":   b.SpeedStars(combo),
		"stars":        b.Stars(combo),
	}, nil
}
