// Package replay parses .osr replay files.
package replay

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/encoding/osubinary"
	"github.com/osukit/osukit/game"
)

// BeatmapSource looks up beatmaps by the md5 hash of their .osu file.
// Implemented by library.Library.
type BeatmapSource interface {
	LookupByMD5(md5 string) (*beatmap.Beatmap, error)
}

// Action is a single recorded cursor state
type Action struct {
	// Offset since the beginning of the song
	Offset time.Duration
	// Position of the cursor
	Position game.Position
	// Key1 reports whether the first keyboard key was pressed
	Key1 bool
	// Key2 reports whether the second keyboard key was pressed
	Key2 bool
	// Mouse1 reports whether the first mouse button was pressed
	Mouse1 bool
	// Mouse2 reports whether the second mouse button was pressed
	Mouse2 bool
}

// Pressed reports whether any key or button was down
func (a Action) Pressed() bool {
	return a.Key1 || a.Key2 || a.Mouse1 || a.Mouse2
}

// action bitmask values; the keyboard flags include their paired mouse flag
const (
	actionM1 = 1
	actionM2 = 2
	actionK1 = 5
	actionK2 = 10
)

// LifeBarState is the value of the life bar at a point in time. Life is in
// the range [0, 1].
type LifeBarState struct {
	Offset time.Duration
	Life   float64
}

// Replay is a parsed .osr replay
type Replay struct {
	// Mode the replay was recorded in
	Mode game.Mode
	// Version of the game client that recorded this replay
	Version int
	// BeatmapMD5 is the hash of the .osu file of the map played
	BeatmapMD5 string
	// PlayerName of the recording player
	PlayerName string
	// ReplayMD5 is the hash of part of the replay data
	ReplayMD5 string

	// Count300 is the number of 300s hit
	Count300 int
	// Count100 is the number of 100s hit
	Count100 int
	// Count50 is the number of 50s hit
	Count50 int
	// CountGeki is the number of gekis, a geki is scoring all 300s within
	// a color section
	CountGeki int
	// CountKatu is the number of katus, a katu is completing a color
	// section with no 50s or misses
	CountKatu int
	// CountMiss is the number of misses
	CountMiss int

	// Score earned, this is regular score and not performance points
	Score int
	// MaxCombo reached during the play
	MaxCombo int
	// FullCombo reports whether the play was a full combo
	FullCombo bool
	// Mods enabled during the play
	Mods game.Mods

	// LifeBarGraph holds the sorted life bar samples
	LifeBarGraph []LifeBarState
	// Timestamp is when the replay was recorded
	Timestamp time.Time
	// Actions is the sorted input stream of the play
	Actions []Action

	// Beatmap played, nil when parsed without a beatmap source
	Beatmap *beatmap.Beatmap
}

// String implements fmt.Stringer
func (r *Replay) String() string {
	acc := "<unknown>"
	if a, err := r.Accuracy(); err == nil {
		acc = fmt.Sprintf("%.2f%%", a*100)
	}
	mapName := "<unknown>"
	if r.Beatmap != nil {
		mapName = r.Beatmap.DisplayName()
	}
	return fmt.Sprintf("<Replay: %s (%d/%d/%d/%d) on %s>",
		acc, r.Count300, r.Count100, r.Count50, r.CountMiss, mapName)
}

// Accuracy returns the accuracy achieved in the range [0, 1]. Only
// osu!standard replays are supported.
func (r *Replay) Accuracy() (float64, error) {
	if r.Mode != game.ModeStandard {
		return 0, fmt.Errorf("accuracy is not supported for %s replays", r.Mode)
	}
	return game.Accuracy(r.Count300, r.Count100, r.Count50, r.CountMiss), nil
}

// Failed reports whether the player's life bar emptied during the play
func (r *Replay) Failed() bool {
	for _, state := range r.LifeBarGraph {
		if state.Life == 0 {
			return true
		}
	}
	return false
}

// PerformancePoints computes the performance points earned by this play.
// The replay must carry its beatmap.
func (r *Replay) PerformancePoints() (float64, error) {
	if r.Beatmap == nil {
		return 0, errors.New("replay has no beatmap to score against")
	}
	return r.Beatmap.PerformancePoints(beatmap.PerformanceParams{
		UseHitCounts: true,
		Count300:     r.Count300,
		Count100:     r.Count100,
		Count50:      r.Count50,
		CountMiss:    r.CountMiss,
		Mods: r.Mods & (game.ModEasy |
			game.ModHardRock |
			game.ModHalfTime |
			game.ModDoubleTime |
			game.ModNightcore |
			game.ModHidden |
			game.ModFlashlight |
			game.ModSpunOut),
	})
}

// FromPath reads a replay from a .osr file on disk. source may be nil to
// skip beatmap retrieval.
func FromPath(path string, source BeatmapSource) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data, source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return r, nil
}

// FromFile reads a replay from an open .osr stream
func FromFile(f io.Reader, source BeatmapSource) (*Replay, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(data, source)
}

// FromDirectory reads every .osr file in a directory
func FromDirectory(dir string, source BeatmapSource) ([]*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []*Replay
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".osr") {
			continue
		}
		r, err := FromPath(filepath.Join(dir, entry.Name()), source)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Parse parses a replay from .osr data. When source is non-nil the beatmap
// is looked up by its md5 hash and attached to the replay.
func Parse(data []byte, source BeatmapSource) (*Replay, error) {
	d := osubinary.NewDecoder(data)

	rawMode, err := d.Byte()
	if err != nil {
		return nil, err
	}
	mode, err := game.ParseMode(int(rawMode))
	if err != nil {
		return nil, err
	}

	version, err := d.Int()
	if err != nil {
		return nil, err
	}
	beatmapMD5, err := d.String()
	if err != nil {
		return nil, err
	}
	playerName, err := d.String()
	if err != nil {
		return nil, err
	}
	replayMD5, err := d.String()
	if err != nil {
		return nil, err
	}

	var counts [6]uint16
	for i := range counts {
		if counts[i], err = d.Short(); err != nil {
			return nil, err
		}
	}

	score, err := d.Int()
	if err != nil {
		return nil, err
	}
	maxCombo, err := d.Short()
	if err != nil {
		return nil, err
	}
	fullCombo, err := d.Byte()
	if err != nil {
		return nil, err
	}
	modMask, err := d.Int()
	if err != nil {
		return nil, err
	}

	lifeBarGraph, err := parseLifeBarGraph(d)
	if err != nil {
		return nil, err
	}
	timestamp, err := d.DateTime()
	if err != nil {
		return nil, err
	}
	actions, err := parseActions(d)
	if err != nil {
		return nil, err
	}

	r := &Replay{
		Mode:         mode,
		Version:      int(version),
		BeatmapMD5:   beatmapMD5,
		PlayerName:   playerName,
		ReplayMD5:    replayMD5,
		Count300:     int(counts[0]),
		Count100:     int(counts[1]),
		Count50:      int(counts[2]),
		CountGeki:    int(counts[3]),
		CountKatu:    int(counts[4]),
		CountMiss:    int(counts[5]),
		Score:        int(score),
		MaxCombo:     int(maxCombo),
		FullCombo:    fullCombo != 0,
		Mods:         game.Mods(modMask),
		LifeBarGraph: lifeBarGraph,
		Timestamp:    timestamp,
		Actions:      actions,
	}

	if source != nil {
		r.Beatmap, err = source.LookupByMD5(beatmapMD5)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to retrieve beatmap %s", beatmapMD5)
		}
	}
	return r, nil
}

func parseLifeBarGraph(d *osubinary.Decoder) ([]LifeBarState, error) {
	raw, err := d.String()
	if err != nil {
		return nil, err
	}

	var out []LifeBarState
	for _, pair := range strings.Split(raw, ",") {
		if pair == "" {
			continue
		}
		rawOffset, rawLife, ok := strings.Cut(pair, "|")
		if !ok {
			return nil, fmt.Errorf("invalid life bar graph entry %q", pair)
		}
		offset, err := strconv.Atoi(rawOffset)
		if err != nil {
			return nil, fmt.Errorf("life bar offset should be an int, got %q", rawOffset)
		}
		life, err := strconv.ParseFloat(rawLife, 64)
		if err != nil {
			return nil, fmt.Errorf("life bar value should be a float, got %q", rawLife)
		}
		out = append(out, LifeBarState{
			Offset: time.Duration(offset) * time.Millisecond,
			Life:   life,
		})
	}
	return out, nil
}

func parseActions(d *osubinary.Decoder) ([]Action, error) {
	compressedByteCount, err := d.Int()
	if err != nil {
		return nil, err
	}
	compressed, err := d.Take(int(compressedByteCount))
	if err != nil {
		return nil, err
	}

	lr, err := lzma.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read action stream header")
	}
	decompressed, err := io.ReadAll(lr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress action stream")
	}

	var out []Action
	// action offsets are stored relative to the previous action
	offset := 0
	for _, raw := range strings.Split(string(decompressed), ",") {
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "|")
		if len(fields) != 4 {
			return nil, fmt.Errorf("invalid action %q", raw)
		}
		rawOffset, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("action offset should be an int, got %q", fields[0])
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("action x should be a float, got %q", fields[1])
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("action y should be a float, got %q", fields[2])
		}
		mask, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("action mask should be an int, got %q", fields[3])
		}

		offset += rawOffset
		out = append(out, Action{
			Offset:   time.Duration(offset) * time.Millisecond,
			Position: game.Position{X: x, Y: y},
			Key1:     mask&actionM1 == actionM1,
			Key2:     mask&actionM2 == actionM2,
			Mouse1:   mask&actionK1 == actionK1,
			Mouse2:   mask&actionK2 == actionK2,
		})
	}
	return out, nil
}
