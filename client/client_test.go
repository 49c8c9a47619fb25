package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukit/osukit/game"
)

const testOSUData = `osu file format v14

[General]
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

[HitObjects]
100,100,1000,1,0,0:0:0:0:
200,200,2000,1,0,0:0:0:0:
`

// every field of a get_beatmaps response arrives as a JSON string
const testAPIBeatmap = `{
	"beatmap_id": "129891",
	"beatmapset_id": "39804",
	"approved": "2",
	"approved_date": "2012-12-22 13:26:51",
	"last_update": "2012-12-19 15:21:24",
	"difficultyrating": "7.2",
	"hit_length": "256",
	"total_length": "258",
	"genre_id": "2",
	"language_id": "5",
	"file_md5": "2b9b8bfb28862d7b10e0ff8a0c99fcff",
	"favourite_count": "1337",
	"playcount": "40000000",
	"passcount": "2000000",
	"max_combo": "2385"
}`

func testServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get_beatmaps":
			assert.Equal(t, "secret", r.URL.Query().Get("k"))
			_, _ = w.Write([]byte("[" + testAPIBeatmap + "]"))
		case "/osu/129891":
			_, _ = w.Write([]byte(testOSUData))
		default:
			http.NotFound(w, r)
		}
	}))
	cl := New("secret", WithAPIURL(srv.URL))
	return srv, cl
}

func TestBeatmaps(t *testing.T) {
	t.Parallel()

	srv, cl := testServer(t)
	defer srv.Close()

	results, err := cl.Beatmaps(context.Background(), BeatmapRequest{BeatmapID: 129891})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 129891, r.BeatmapID)
	assert.Equal(t, 39804, r.BeatmapSetID)
	assert.Equal(t, ApprovedApproved, r.Approved)
	assert.Equal(t, 7.2, r.StarRating)
	assert.Equal(t, 256*time.Second, r.HitLength)
	assert.Equal(t, 258*time.Second, r.TotalLength)
	assert.Equal(t, GenreVideoGame, r.Genre)
	assert.Equal(t, LanguageInstrumental, r.Language)
	assert.Equal(t, "2b9b8bfb28862d7b10e0ff8a0c99fcff", r.BeatmapMD5)
	assert.Equal(t, 1337, r.FavouriteCount)
	assert.Equal(t, 40000000, r.PlayCount)
	assert.Equal(t, 2000000, r.PassCount)
	assert.Equal(t, 2385, r.MaxCombo)
	assert.Nil(t, r.Beatmap, "beatmaps are only fetched on request")
	assert.Equal(t, "<BeatmapResult: 129891>", r.String())

	// dates are parsed in the server's timezone
	assert.Equal(t, 2012, r.ApprovedDate.Year())
	_, offset := r.ApprovedDate.Zone()
	assert.Equal(t, 8*60*60, offset)
}

func TestBeatmapsValidation(t *testing.T) {
	t.Parallel()

	cl := New("secret")
	_, err := cl.Beatmaps(context.Background(), BeatmapRequest{BeatmapID: 1, BeatmapSetID: 2})
	assert.ErrorIs(t, err, errTooManyIdentifiers)

	_, err = cl.Beatmaps(context.Background(), BeatmapRequest{UserID: 1, UserName: "cookiezi"})
	assert.ErrorIs(t, err, errTooManyUserFields)

	_, err = cl.Beatmaps(context.Background(), BeatmapRequest{Limit: 501})
	assert.ErrorIs(t, err, errLimitTooLarge)
}

func TestBeatmapsQueryParameters(t *testing.T) {
	t.Parallel()

	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	cl := New("secret", WithAPIURL(srv.URL))
	mode := game.ModeStandard
	_, err := cl.Beatmaps(context.Background(), BeatmapRequest{
		Since:            time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		BeatmapSetID:     39804,
		UserName:         "xi",
		GameMode:         &mode,
		IncludeConverted: true,
		Limit:            25,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"39804"}, query["s"])
	assert.Equal(t, []string{"xi"}, query["u"])
	assert.Equal(t, []string{"string"}, query["type"])
	assert.Equal(t, []string{"0"}, query["m"])
	assert.Equal(t, []string{"1"}, query["a"])
	assert.Equal(t, []string{"25"}, query["limit"])
	assert.Equal(t, []string{"2019-01-01"}, query["since"])
}

func TestBeatmapByID(t *testing.T) {
	t.Parallel()

	srv, cl := testServer(t)
	defer srv.Close()

	result, err := cl.BeatmapByID(context.Background(), 129891)
	require.NoError(t, err)
	require.NotNil(t, result.Beatmap)
	assert.Equal(t, "Freedom Dive", result.Beatmap.Title)
	assert.Equal(t, "<BeatmapResult: Freedom Dive [FOUR DIMENSIONS]>", result.String())
}

func TestBeatmapByMD5NoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	cl := New("secret", WithAPIURL(srv.URL))
	_, err := cl.BeatmapByMD5(context.Background(), "2b9b8bfb28862d7b10e0ff8a0c99fcff")
	assert.ErrorIs(t, err, errNoResults)
}

func TestLookupByMD5(t *testing.T) {
	t.Parallel()

	srv, cl := testServer(t)
	defer srv.Close()

	b, err := cl.LookupByMD5("2b9b8bfb28862d7b10e0ff8a0c99fcff")
	require.NoError(t, err)
	assert.Equal(t, "xi - Freedom Dive [FOUR DIMENSIONS]", b.DisplayName())
}

func TestDownloadBeatmap(t *testing.T) {
	t.Parallel()

	srv, cl := testServer(t)
	defer srv.Close()

	data, err := cl.DownloadBeatmap(129891)
	require.NoError(t, err)
	assert.Equal(t, testOSUData, string(data))
}

func TestParseBeatmapResultErrors(t *testing.T) {
	t.Parallel()

	_, err := parseBeatmapResult([]byte(`{"beatmapset_id": "1"}`))
	assert.ErrorContains(t, err, "missing beatmap_id")

	_, err = parseBeatmapResult([]byte(`{"beatmap_id": "one"}`))
	assert.ErrorContains(t, err, "should be an int")
}

func TestParseBeatmapResultNullMaxCombo(t *testing.T) {
	t.Parallel()

	// taiko and mania maps report a null max combo
	raw := `{
		"beatmap_id": "1",
		"beatmapset_id": "2",
		"approved": "1",
		"approved_date": "",
		"last_update": "2012-12-19 15:21:24",
		"difficultyrating": "3",
		"hit_length": "100",
		"total_length": "120",
		"genre_id": "0",
		"language_id": "0",
		"file_md5": "abc",
		"favourite_count": "0",
		"playcount": "0",
		"passcount": "0",
		"max_combo": null
	}`
	result, err := parseBeatmapResult([]byte(raw))
	require.NoError(t, err)
	assert.Zero(t, result.MaxCombo)
	assert.True(t, result.ApprovedDate.IsZero(), "unranked maps have no approved date")
}
