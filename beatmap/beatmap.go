// Package beatmap parses .osu beatmap files and computes gameplay
// attributes from them such as effective difficulty values, star ratings
// and performance points.
package beatmap

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/osukit/osukit/game"
)

var versionRegex = regexp.MustCompile(`^osu file format v(\d+)$`)

// sections whose lines hold "Key: Value" pairs; the remaining sections hold
// one record per line
var mappingSections = map[string]bool{
	"General":    true,
	"Editor":     true,
	"Metadata":   true,
	"Difficulty": true,
}

// ModCombo selects the difficulty adjusting mods for attribute and star
// calculations. Easy and HardRock are mutually exclusive, as are HalfTime
// and DoubleTime; when both are set the first of the pair wins.
type ModCombo struct {
	Easy       bool
	HardRock   bool
	HalfTime   bool
	DoubleTime bool
}

// ModComboFromMods extracts the difficulty adjusting mods from a full mod
// bitmask. Nightcore implies double time.
func ModComboFromMods(m game.Mods) ModCombo {
	return ModCombo{
		Easy:       m.Has(game.ModEasy),
		HardRock:   m.Has(game.ModHardRock),
		HalfTime:   m.Has(game.ModHalfTime),
		DoubleTime: m.Has(game.ModDoubleTime) || m.Has(game.ModNightcore),
	}
}

type stackKey struct {
	ar float64
	cs float64
}

type starValues struct {
	aim               float64
	speed             float64
	stars             float64
	rhythmAwkwardness float64
}

// Beatmap is a parsed .osu beatmap
type Beatmap struct {
	// FormatVersion is the version of the .osu file format this map was
	// written in
	FormatVersion int
	// AudioFilename is the location of the audio file relative to the
	// unpacked .osz directory
	AudioFilename string
	// AudioLeadIn is the amount of time added before the audio begins
	AudioLeadIn time.Duration
	// PreviewTime is when the audio preview should start in song
	// selection
	PreviewTime time.Duration
	// Countdown reports whether a countdown plays before the first hit
	// object
	Countdown bool
	// SampleSet is the set of hit sound samples to use
	SampleSet string
	// StackLeniency scales how lenient stacking rules are
	StackLeniency float64
	// Mode is the game mode this map is made for
	Mode game.Mode
	// LetterboxInBreaks reports whether breaks are letterboxed
	LetterboxInBreaks bool
	// WidescreenStoryboard reports whether the storyboard should be
	// widescreen
	WidescreenStoryboard bool

	// Bookmarks are the editor bookmark times
	Bookmarks []time.Duration
	// DistanceSpacing is the editor's distance snapping multiplier
	DistanceSpacing float64
	// BeatDivisor is the editor's beat snap divisor
	BeatDivisor int
	// GridSize is the editor's grid size
	GridSize int
	// TimelineZoom is the editor's object timeline zoom
	TimelineZoom float64

	// Title of the song, romanized
	Title string
	// TitleUnicode is the title in the source language
	TitleUnicode string
	// Artist of the song, romanized
	Artist string
	// ArtistUnicode is the artist in the source language
	ArtistUnicode string
	// Creator is the username of the mapper
	Creator string
	// Version is the difficulty name
	Version string
	// Source material of the song
	Source string
	// Tags for searching
	Tags []string
	// BeatmapID on the osu! website, 0 for unsubmitted maps
	BeatmapID int
	// BeatmapSetID on the osu! website, 0 for unsubmitted maps
	BeatmapSetID int

	// HPDrainRate is the health drain setting
	HPDrainRate float64
	// CircleSize is the circle size setting
	CircleSize float64
	// OverallDifficulty is the overall difficulty setting
	OverallDifficulty float64
	// ApproachRate is the approach rate setting
	ApproachRate float64
	// SliderMultiplier scales slider velocity
	SliderMultiplier float64
	// SliderTickRate is the number of slider ticks per beat
	SliderTickRate float64

	// TimingPoints of the map sorted by offset
	TimingPoints []*TimingPoint

	hitObjects []HitObject

	mu         sync.Mutex
	stackCache map[stackKey][]HitObject
	starsCache map[ModCombo]starValues
}

// DisplayName returns the name of the map as it appears in game
func (b *Beatmap) DisplayName() string {
	return fmt.Sprintf("%s - %s [%s]", b.Artist, b.Title, b.Version)
}

// String implements fmt.Stringer
func (b *Beatmap) String() string {
	return fmt.Sprintf("<Beatmap: %s>", b.DisplayName())
}

// FromPath reads a beatmap from a .osu file on disk
func FromPath(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := FromFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return b, nil
}

// FromFile reads a beatmap from an open .osu stream
func FromFile(r io.Reader) (*Beatmap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse parses a beatmap from text in the .osu format
func Parse(data string) (*Beatmap, error) {
	// skip any byte order mark and leading blank lines
	data = strings.TrimPrefix(data, "\ufeff")
	data = strings.TrimLeft(data, " \t\r\n")

	lines := strings.Split(data, "\n")
	if len(lines) == 0 {
		return nil, errors.New("empty beatmap")
	}
	match := versionRegex.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if match == nil {
		return nil, fmt.Errorf("missing osu file format specifier in: %q", lines[0])
	}
	formatVersion, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, err
	}

	groups := findGroups(lines[1:])

	artist := getStr(groups, "Metadata", "Artist", "")
	title := getStr(groups, "Metadata", "Title", "")

	od, err := getFloat(groups, "Difficulty", "OverallDifficulty", math.NaN())
	if err != nil {
		return nil, err
	}

	var timingPoints []*TimingPoint
	// the first timing point can never be inherited so the parent starts
	// out nil
	var parent *TimingPoint
	for _, raw := range groups.lists["TimingPoints"] {
		tp, err := parseTimingPoint(raw, parent)
		if err != nil {
			return nil, err
		}
		if tp.Parent == nil {
			parent = tp
		}
		timingPoints = append(timingPoints, tp)
	}
	if len(timingPoints) == 0 {
		return nil, errors.New("missing timing points")
	}

	sliderMultiplier, err := getFloat(groups, "Difficulty", "SliderMultiplier", 1.4)
	if err != nil {
		return nil, err
	}
	sliderTickRate, err := getFloat(groups, "Difficulty", "SliderTickRate", 1.0)
	if err != nil {
		return nil, err
	}

	b := &Beatmap{
		FormatVersion:    formatVersion,
		AudioFilename:    getStr(groups, "General", "AudioFilename", ""),
		Title:            title,
		TitleUnicode:     getStr(groups, "Metadata", "TitleUnicode", title),
		Artist:           artist,
		ArtistUnicode:    getStr(groups, "Metadata", "ArtistUnicode", artist),
		Creator:          getStr(groups, "Metadata", "Creator", ""),
		Version:          getStr(groups, "Metadata", "Version", ""),
		Source:           getStr(groups, "Metadata", "Source", ""),
		Tags:             strings.Fields(getStr(groups, "Metadata", "Tags", "")),
		SampleSet:        getStr(groups, "General", "SampleSet", "Normal"),
		SliderMultiplier: sliderMultiplier,
		SliderTickRate:   sliderTickRate,
		TimingPoints:     timingPoints,
		stackCache:       map[stackKey][]HitObject{},
		starsCache:       map[ModCombo]starValues{},
	}

	audioLeadIn, err := getInt(groups, "General", "AudioLeadIn", 0)
	if err != nil {
		return nil, err
	}
	b.AudioLeadIn = time.Duration(audioLeadIn) * time.Millisecond

	previewTime, err := getInt(groups, "General", "PreviewTime", -1)
	if err != nil {
		return nil, err
	}
	b.PreviewTime = time.Duration(previewTime) * time.Millisecond

	if b.Countdown, err = getBool(groups, "General", "Countdown", false); err != nil {
		return nil, err
	}
	if b.StackLeniency, err = getFloat(groups, "General", "StackLeniency", 0); err != nil {
		return nil, err
	}
	modeInt, err := getInt(groups, "General", "Mode", 0)
	if err != nil {
		return nil, err
	}
	if b.Mode, err = game.ParseMode(modeInt); err != nil {
		return nil, err
	}
	if b.LetterboxInBreaks, err = getBool(groups, "General", "LetterboxInBreaks", false); err != nil {
		return nil, err
	}
	if b.WidescreenStoryboard, err = getBool(groups, "General", "WidescreenStoryboard", false); err != nil {
		return nil, err
	}

	// some maps write this key in lowercase
	rawBookmarks := getStr(groups, "Editor", "Bookmarks",
		getStr(groups, "Editor", "bookmarks", ""))
	if rawBookmarks != "" {
		for _, raw := range strings.Split(rawBookmarks, ",") {
			ms, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("bookmarks should be ints, got %q", raw)
			}
			b.Bookmarks = append(b.Bookmarks, time.Duration(ms)*time.Millisecond)
		}
	}
	if b.DistanceSpacing, err = getFloat(groups, "Editor", "DistanceSpacing", 1); err != nil {
		return nil, err
	}
	if b.BeatDivisor, err = getInt(groups, "Editor", "BeatDivisor", 4); err != nil {
		return nil, err
	}
	if b.GridSize, err = getInt(groups, "Editor", "GridSize", 4); err != nil {
		return nil, err
	}
	if b.TimelineZoom, err = getFloat(groups, "Editor", "TimelineZoom", 1.0); err != nil {
		return nil, err
	}

	if b.BeatmapID, err = getInt(groups, "Metadata", "BeatmapID", 0); err != nil {
		return nil, err
	}
	if b.BeatmapSetID, err = getInt(groups, "Metadata", "BeatmapSetID", 0); err != nil {
		return nil, err
	}

	if b.HPDrainRate, err = getFloat(groups, "Difficulty", "HPDrainRate", math.NaN()); err != nil {
		return nil, err
	}
	if b.CircleSize, err = getFloat(groups, "Difficulty", "CircleSize", math.NaN()); err != nil {
		return nil, err
	}
	b.OverallDifficulty = od
	// old maps do not carry an approach rate, the overall difficulty is
	// used in its place
	if b.ApproachRate, err = getFloat(groups, "Difficulty", "ApproachRate", od); err != nil {
		return nil, err
	}

	for _, raw := range groups.lists["HitObjects"] {
		ob, err := parseHitObject(raw, timingPoints, sliderMultiplier, sliderTickRate)
		if err != nil {
			return nil, err
		}
		b.hitObjects = append(b.hitObjects, ob)
	}

	return b, nil
}

// sectionGroups is the raw sectioned form of a .osu file
type sectionGroups struct {
	mappings map[string]map[string]string
	lists    map[string][]string
}

func findGroups(lines []string) *sectionGroups {
	groups := &sectionGroups{
		mappings: map[string]map[string]string{},
		lists:    map[string][]string{},
	}

	current := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = line[1 : len(line)-1]
			continue
		}
		if current == "" {
			continue
		}
		if mappingSections[current] {
			m := groups.mappings[current]
			if m == nil {
				m = map[string]string{}
				groups.mappings[current] = m
			}
			key, value, _ := strings.Cut(line, ":")
			m[strings.TrimSpace(key)] = strings.TrimSpace(value)
		} else {
			groups.lists[current] = append(groups.lists[current], line)
		}
	}
	return groups
}

func getStr(groups *sectionGroups, section, field, def string) string {
	if v, ok := groups.mappings[section][field]; ok {
		return v
	}
	return def
}

func getInt(groups *sectionGroups, section, field string, def int) (int, error) {
	v, ok := groups.mappings[section][field]
	if !ok {
		return def, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %q in section %q should be an int, got %q",
			field, section, v)
	}
	return out, nil
}

func getFloat(groups *sectionGroups, section, field string, def float64) (float64, error) {
	v, ok := groups.mappings[section][field]
	if !ok {
		return def, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q in section %q should be a float, got %q",
			field, section, v)
	}
	return out, nil
}

func getBool(groups *sectionGroups, section, field string, def bool) (bool, error) {
	v, ok := groups.mappings[section][field]
	if !ok {
		return def, nil
	}
	// bools are written as 0 and 1
	out, err := strconv.Atoi(v)
	if err != nil {
		return false, fmt.Errorf("field %q in section %q should be a bool, got %q",
			field, section, v)
	}
	return out != 0, nil
}

// TimingPointAt returns the timing point in effect at the given time
func (b *Beatmap) TimingPointAt(t time.Duration) *TimingPoint {
	for i := len(b.TimingPoints) - 1; i >= 0; i-- {
		if b.TimingPoints[i].Offset <= t {
			return b.TimingPoints[i]
		}
	}
	return b.TimingPoints[0]
}

// BPMMin returns the slowest BPM in the map
func (b *Beatmap) BPMMin(mods ModCombo) (float64, error) {
	return b.bpmExtremum(mods, func(a, bpm float64) bool { return bpm < a })
}

// BPMMax returns the fastest BPM in the map
func (b *Beatmap) BPMMax(mods ModCombo) (float64, error) {
	return b.bpmExtremum(mods, func(a, bpm float64) bool { return bpm > a })
}

func (b *Beatmap) bpmExtremum(mods ModCombo, better func(cur, candidate float64) bool) (float64, error) {
	found := false
	var out float64
	for _, tp := range b.TimingPoints {
		bpm := tp.BPM()
		if bpm == 0 {
			continue
		}
		if !found || better(out, bpm) {
			out = bpm
			found = true
		}
	}
	if !found {
		return 0, errors.New("no timing points carry a bpm")
	}
	if mods.DoubleTime {
		out *= 1.5
	} else if mods.HalfTime {
		out *= 0.75
	}
	return out, nil
}

// HP returns the health drain value adjusted for mods
func (b *Beatmap) HP(mods ModCombo) float64 {
	hp := b.HPDrainRate
	if mods.HardRock {
		hp = math.Min(1.4*hp, 10)
	} else if mods.Easy {
		hp /= 2
	}
	return hp
}

// CS returns the circle size value adjusted for mods
func (b *Beatmap) CS(mods ModCombo) float64 {
	cs := b.CircleSize
	if mods.HardRock {
		cs = math.Min(1.3*cs, 10)
	} else if mods.Easy {
		cs /= 2
	}
	return cs
}

// OD returns the overall difficulty value adjusted for mods. Half time and
// double time report the effective OD given the changed hit windows.
func (b *Beatmap) OD(mods ModCombo) float64 {
	od := b.OverallDifficulty
	if mods.HardRock {
		od = math.Min(1.4*od, 10)
	} else if mods.Easy {
		od /= 2
	}
	if mods.DoubleTime {
		od = game.MS300ToOD(2 * game.ODToMS300(od) / 3)
	} else if mods.HalfTime {
		od = game.MS300ToOD(4 * game.ODToMS300(od) / 3)
	}
	return od
}

// AR returns the approach rate value adjusted for mods. Half time and double
// time do not change the in game AR but do change the effective approach
// window, which is what is reported here.
func (b *Beatmap) AR(mods ModCombo) float64 {
	ar := b.ApproachRate
	if mods.Easy {
		ar /= 2
	} else if mods.HardRock {
		ar = math.Min(1.4*ar, 10)
	}
	if mods.DoubleTime {
		ar = game.MSToAR(2 * game.ARToMS(ar) / 3)
	} else if mods.HalfTime {
		ar = game.MSToAR(4 * game.ARToMS(ar) / 3)
	}
	return ar
}

// HitObjectsOptions selects which hit objects HitObjects returns and how
// their effective positions and times are computed. The zero value returns
// every object with stacking resolved and no mods applied.
type HitObjectsOptions struct {
	// Mods to apply to positions and times
	Mods ModCombo
	// WithoutStacking skips stacking resolution
	WithoutStacking bool

	WithoutCircles   bool
	WithoutSliders   bool
	WithoutSpinners  bool
	WithoutHoldNotes bool
}

// HitObjects returns the map's hit objects with their effective positions
// and times under the given options
func (b *Beatmap) HitObjects(opts HitObjectsOptions) []HitObject {
	hitObjects := b.hitObjects

	if opts.Mods.HardRock {
		flipped := make([]HitObject, len(hitObjects))
		for i, ob := range hitObjects {
			flipped[i] = ob.HardRock()
		}
		hitObjects = flipped
	}

	if !opts.WithoutStacking && b.Mode == game.ModeStandard {
		hitObjects = b.stackedHitObjects(hitObjects, opts.Mods)
	}

	if opts.Mods.DoubleTime {
		scaled := make([]HitObject, len(hitObjects))
		for i, ob := range hitObjects {
			scaled[i] = ob.DoubleTime()
		}
		hitObjects = scaled
	} else if opts.Mods.HalfTime {
		scaled := make([]HitObject, len(hitObjects))
		for i, ob := range hitObjects {
			scaled[i] = ob.HalfTime()
		}
		hitObjects = scaled
	}

	out := make([]HitObject, 0, len(hitObjects))
	for _, ob := range hitObjects {
		switch ob.(type) {
		case Circle:
			if opts.WithoutCircles {
				continue
			}
		case Slider:
			if opts.WithoutSliders {
				continue
			}
		case Spinner:
			if opts.WithoutSpinners {
				continue
			}
		case HoldNote:
			if opts.WithoutHoldNotes {
				continue
			}
		}
		out = append(out, ob)
	}
	return out
}

func (b *Beatmap) stackedHitObjects(hitObjects []HitObject, mods ModCombo) []HitObject {
	attrs := ModCombo{Easy: mods.Easy, HardRock: mods.HardRock}
	ar := b.AR(attrs)
	cs := b.CS(attrs)

	// stacking only changes with ar and cs, so cache on those
	key := stackKey{ar: ar, cs: cs}
	b.mu.Lock()
	cached, ok := b.stackCache[key]
	b.mu.Unlock()
	if ok {
		return cached
	}

	var stacked []HitObject
	if b.FormatVersion >= 6 {
		stacked = resolveStacking(hitObjects, ar, cs, b.StackLeniency)
	} else {
		stacked = resolveStackingOld(hitObjects, ar, cs, b.StackLeniency)
	}

	b.mu.Lock()
	b.stackCache[key] = stacked
	b.mu.Unlock()
	return stacked
}

// HitObjectTimes returns the sorted start times of every hit object
func (b *Beatmap) HitObjectTimes() []time.Duration {
	out := make([]time.Duration, len(b.hitObjects))
	for i, ob := range b.hitObjects {
		out[i] = ob.Time()
	}
	return out
}

// ClosestHitObject returns the hit object closest in time to t. Ties prefer
// the earlier object.
func (b *Beatmap) ClosestHitObject(t time.Duration) (HitObject, error) {
	if len(b.hitObjects) == 0 {
		return nil, errors.New("beatmap has no hit objects")
	}
	if len(b.hitObjects) == 1 {
		return b.hitObjects[0], nil
	}

	times := b.HitObjectTimes()
	i := sort.Search(len(times), func(n int) bool { return times[n] >= t })
	if i == len(times) {
		return b.hitObjects[len(b.hitObjects)-1], nil
	}
	if i == 0 {
		return b.hitObjects[0], nil
	}

	before := b.hitObjects[i-1]
	after := b.hitObjects[i]
	if t-before.Time() <= after.Time()-t {
		return before, nil
	}
	return after, nil
}

// MaxCombo returns the highest combo achievable on this map
func (b *Beatmap) MaxCombo() int {
	combo := 0
	for _, ob := range b.hitObjects {
		if slider, ok := ob.(Slider); ok {
			combo += slider.Ticks()
		} else {
			combo++
		}
	}
	return combo
}
