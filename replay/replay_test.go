package replay

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/encoding/osubinary"
	"github.com/osukit/osukit/game"
)

const testBeatmapData = `osu file format v14

[General]
StackLeniency: 0.7
Mode: 0

[Metadata]
Title:Freedom Dive
Artist:xi
Version:FOUR DIMENSIONS

[Difficulty]
HPDrainRate:8
CircleSize:4
OverallDifficulty:10
ApproachRate:10
SliderMultiplier:1.8
SliderTickRate:2

[TimingPoints]
0,300,4,2,0,60,1,0
1000,-50,4,2,0,60,0,0

[HitObjects]
100,100,1000,1,0,0:0:0:0:
100,100,1100,1,0,0:0:0:0:
200,200,2000,2,0,L|300:200,1,100,0|0,0:0|0:0,0:0:0:0:
256,192,3000,8,0,4000,0:0:0:0:
`

// mapSource serves the same beatmap for every md5
type mapSource struct {
	b *beatmap.Beatmap
}

func (s mapSource) LookupByMD5(string) (*beatmap.Beatmap, error) {
	return s.b, nil
}

func compressActions(t *testing.T, actions string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(actions))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// buildReplay encodes a full .osr byte stream scoring the two circles, the
// slider and the spinner of the test beatmap as 300s
func buildReplay(t *testing.T, mode byte, mods uint32, actions string) []byte {
	t.Helper()

	e := osubinary.NewEncoder()
	e.Byte(mode)
	e.Int(20190828)
	e.String("2b9b8bfb28862d7b10e0ff8a0c99fcff")
	e.String("cookiezi")
	e.String("d232e1bed463e5d1baa0ceeb636b4b6f")
	e.Short(4) // 300s
	e.Short(0) // 100s
	e.Short(0) // 50s
	e.Short(1) // gekis
	e.Short(0) // katus
	e.Short(0) // misses
	e.Int(1000000)
	e.Short(5)
	e.Byte(1)
	e.Int(mods)
	e.String("500|1,1500|0.75,")
	e.DateTime(time.Date(2019, time.August, 28, 10, 0, 0, 0, time.UTC))

	compressed := compressActions(t, actions)
	e.Int(uint32(len(compressed)))
	e.Raw(compressed)
	return e.Bytes()
}

// action offsets below are deltas from the previous action
const perfectActions = "0|0|0|0," +
	"1000|100|100|1," +
	"50|100|100|0," +
	"50|100|100|1," +
	"50|0|0|0," +
	"850|200|200|1," +
	"40|250|200|1," +
	"60|300|200|0,"

func TestParse(t *testing.T) {
	t.Parallel()

	r, err := Parse(buildReplay(t, 0, uint32(game.ModHidden|game.ModHardRock), perfectActions), nil)
	require.NoError(t, err)

	assert.Equal(t, game.ModeStandard, r.Mode)
	assert.Equal(t, 20190828, r.Version)
	assert.Equal(t, "2b9b8bfb28862d7b10e0ff8a0c99fcff", r.BeatmapMD5)
	assert.Equal(t, "cookiezi", r.PlayerName)
	assert.Equal(t, "d232e1bed463e5d1baa0ceeb636b4b6f", r.ReplayMD5)

	assert.Equal(t, 4, r.Count300)
	assert.Equal(t, 0, r.CountMiss)
	assert.Equal(t, 1, r.CountGeki)
	assert.Equal(t, 1000000, r.Score)
	assert.Equal(t, 5, r.MaxCombo)
	assert.True(t, r.FullCombo)
	assert.Equal(t, game.ModHidden|game.ModHardRock, r.Mods)
	assert.Nil(t, r.Beatmap)

	assert.Equal(t,
		time.Date(2019, time.August, 28, 10, 0, 0, 0, time.UTC), r.Timestamp)

	require.Len(t, r.LifeBarGraph, 2)
	assert.Equal(t, LifeBarState{Offset: 500 * time.Millisecond, Life: 1}, r.LifeBarGraph[0])
	assert.Equal(t, LifeBarState{Offset: 1500 * time.Millisecond, Life: 0.75}, r.LifeBarGraph[1])
	assert.False(t, r.Failed())

	require.Len(t, r.Actions, 8)
	assert.Equal(t, time.Second, r.Actions[1].Offset,
		"offsets accumulate from the deltas in the stream")
	assert.Equal(t, 1100*time.Millisecond, r.Actions[3].Offset)
	assert.True(t, r.Actions[1].Key1)
	assert.False(t, r.Actions[1].Mouse1)
	assert.True(t, r.Actions[1].Pressed())
	assert.False(t, r.Actions[2].Pressed())
	assert.Equal(t, game.Position{X: 100, Y: 100}, r.Actions[1].Position)

	accuracy, err := r.Accuracy()
	require.NoError(t, err)
	assert.Equal(t, 1.0, accuracy)
}

func TestParseUnknownMode(t *testing.T) {
	t.Parallel()
	_, err := Parse(buildReplay(t, 7, 0, perfectActions), nil)
	assert.ErrorIs(t, err, game.ErrUnknownMode)
}

func TestParseTruncated(t *testing.T) {
	t.Parallel()
	data := buildReplay(t, 0, 0, perfectActions)
	_, err := Parse(data[:20], nil)
	assert.Error(t, err)
}

func TestParseWithSource(t *testing.T) {
	t.Parallel()

	b, err := beatmap.Parse(testBeatmapData)
	require.NoError(t, err)

	r, err := Parse(buildReplay(t, 0, 0, perfectActions), mapSource{b: b})
	require.NoError(t, err)
	require.NotNil(t, r.Beatmap)
	assert.Equal(t, "xi - Freedom Dive [FOUR DIMENSIONS]", r.Beatmap.DisplayName())

	pp, err := r.PerformancePoints()
	require.NoError(t, err)
	assert.Greater(t, pp, 0.0)
}

func TestHits(t *testing.T) {
	t.Parallel()

	b, err := beatmap.Parse(testBeatmapData)
	require.NoError(t, err)

	r, err := Parse(buildReplay(t, 0, 0, perfectActions), mapSource{b: b})
	require.NoError(t, err)

	hits, err := r.Hits()
	require.NoError(t, err)
	assert.Len(t, hits.Hit300s, 4, "both circles, the slider and the spinner land 300s")
	assert.Empty(t, hits.Hit100s)
	assert.Empty(t, hits.Hit50s)
	assert.Empty(t, hits.Misses)
	assert.Empty(t, hits.SliderBreaks)
}

func TestHitsMiss(t *testing.T) {
	t.Parallel()

	b, err := beatmap.Parse(testBeatmapData)
	require.NoError(t, err)

	// never press near the second circle
	missActions := "0|0|0|0," +
		"1000|100|100|1," +
		"50|0|0|0," +
		"950|200|200|1," +
		"40|250|200|1," +
		"60|300|200|0,"
	r, err := Parse(buildReplay(t, 0, 0, missActions), mapSource{b: b})
	require.NoError(t, err)

	hits, err := r.Hits()
	require.NoError(t, err)
	assert.Len(t, hits.Misses, 1)
	// the press that would have hit the slider head is consumed scanning
	// for the missed circle, so the slider scores on its body alone
	assert.Len(t, hits.SliderBreaks, 1)
	assert.Len(t, hits.Hit100s, 1)
	assert.Len(t, hits.Hit300s, 2)
}

func TestFailed(t *testing.T) {
	t.Parallel()

	r, err := Parse(buildReplay(t, 0, 0, perfectActions), nil)
	require.NoError(t, err)
	assert.False(t, r.Failed())

	r.LifeBarGraph = append(r.LifeBarGraph, LifeBarState{Offset: 2 * time.Second, Life: 0})
	assert.True(t, r.Failed())
}

func TestAccuracyNonStandard(t *testing.T) {
	t.Parallel()
	r := &Replay{Mode: game.ModeMania}
	_, err := r.Accuracy()
	assert.Error(t, err)
}

func TestFromDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := buildReplay(t, 0, 0, perfectActions)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.osr"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.osr"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	replays, err := FromDirectory(dir, nil)
	require.NoError(t, err)
	assert.Len(t, replays, 2)
}
