// Package client implements a client for the osu! web API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/game"
	"github.com/osukit/osukit/log"
	"github.com/osukit/osukit/request"
)

const (
	defaultAPIURL = "https://osu.ppy.sh"

	// request budget against the public API
	apiRateInterval = time.Minute
	apiRateRequests = 60

	// the API caps a single get_beatmaps call at this many results
	maxBeatmapLimit = 500
)

// API timestamps are UTC+8
var apiTimezone = time.FixedZone("UTC+8", 8*60*60)

const apiDateLayout = "2006-01-02 15:04:05"

var (
	errTooManyIdentifiers = errors.New("only one of beatmap set id, beatmap id or beatmap md5 can be set")
	errTooManyUserFields  = errors.New("only one of user name or user id can be set")
	errLimitTooLarge      = fmt.Errorf("only %d beatmaps can be requested at one time", maxBeatmapLimit)
	errNoResults          = errors.New("no beatmaps matched the request")
)

// ApprovedState is the state of a beatmap's approval on the osu! website
type ApprovedState int

// The approval states
const (
	ApprovedGraveyard ApprovedState = iota - 2
	ApprovedWIP
	ApprovedPending
	ApprovedRanked
	ApprovedApproved
	ApprovedQualified
	ApprovedLoved
)

// Genre as it appears on the osu! website
type Genre int

// The genres; 8 is unassigned
const (
	GenreAny Genre = iota
	GenreUnspecified
	GenreVideoGame
	GenreAnime
	GenreRock
	GenrePop
	GenreOther
	GenreNovelty
	_
	GenreHipHop
	GenreElectronic
)

// Language as it appears on the osu! website
type Language int

// The languages
const (
	LanguageAny Language = iota
	LanguageOther
	LanguageEnglish
	LanguageJapanese
	LanguageChinese
	LanguageInstrumental
	LanguageKorean
	LanguageFrench
	LanguageGerman
	LanguageSwedish
	LanguageSpanish
	LanguageItalian
)

// BeatmapResult is a beatmap as represented by the osu! API
type BeatmapResult struct {
	// Beatmap is the parsed map, nil unless the result was fetched with
	// its .osu file
	Beatmap *beatmap.Beatmap

	BeatmapID    int
	BeatmapSetID int
	// Approved is the approval state of the map
	Approved ApprovedState
	// ApprovedDate is when the map was approved
	ApprovedDate time.Time
	// LastUpdate is when the map was last changed
	LastUpdate time.Time
	// StarRating of the map as computed by the server
	StarRating float64
	// HitLength is the play time excluding breaks
	HitLength time.Duration
	// TotalLength is the play time including breaks
	TotalLength time.Duration
	Genre       Genre
	Language    Language
	// BeatmapMD5 is the hash of the map's .osu file
	BeatmapMD5 string
	// FavouriteCount is how many users favourited the map
	FavouriteCount int
	// PlayCount is how many times the map was played
	PlayCount int
	// PassCount is how many times the map was passed
	PassCount int
	// MaxCombo achievable on the map, 0 when the server does not report
	// one
	MaxCombo int
}

// String implements fmt.Stringer
func (r *BeatmapResult) String() string {
	if r.Beatmap == nil {
		return fmt.Sprintf("<BeatmapResult: %d>", r.BeatmapID)
	}
	return fmt.Sprintf("<BeatmapResult: %s [%s]>", r.Beatmap.Title, r.Beatmap.Version)
}

// Client talks to the osu! web API
type Client struct {
	apiKey    string
	apiURL    string
	requester *request.Requester
}

// Option configures a client
type Option func(*Client)

// WithAPIURL points the client at a different server
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithRequester swaps out the transport
func WithRequester(r *request.Requester) Option {
	return func(c *Client) { c.requester = r }
}

// New returns a client that authenticates with the given API key
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		apiURL: defaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.requester == nil {
		c.requester = request.New("osu!api", nil,
			request.WithLimiter(request.NewBasicRateLimit(apiRateInterval, apiRateRequests)))
	}
	return c
}

// BeatmapRequest filters a beatmap information query. At most one of
// BeatmapSetID, BeatmapID and BeatmapMD5 may be set, and at most one of
// UserID and UserName.
type BeatmapRequest struct {
	// Since returns only maps ranked after this date
	Since time.Time
	// BeatmapSetID returns every map in a set
	BeatmapSetID int
	// BeatmapID returns the single map with this id
	BeatmapID int
	// BeatmapMD5 returns the single map with this hash
	BeatmapMD5 string
	// UserID returns maps made by a user
	UserID int
	// UserName returns maps made by a user
	UserName string
	// GameMode filters to a single mode; nil returns all modes
	GameMode *game.Mode
	// IncludeConverted includes converted maps for non standard modes
	IncludeConverted bool
	// Limit caps the number of results, at most 500; 0 selects the max
	Limit int
	// FetchBeatmaps additionally downloads and parses each result's .osu
	// file
	FetchBeatmaps bool
}

// Beatmaps queries the API for beatmap information
func (c *Client) Beatmaps(ctx context.Context, req BeatmapRequest) ([]*BeatmapResult, error) {
	identifiers := 0
	if req.BeatmapSetID != 0 {
		identifiers++
	}
	if req.BeatmapID != 0 {
		identifiers++
	}
	if req.BeatmapMD5 != "" {
		identifiers++
	}
	if identifiers > 1 {
		return nil, errTooManyIdentifiers
	}
	if req.UserID != 0 && req.UserName != "" {
		return nil, errTooManyUserFields
	}
	limit := req.Limit
	if limit == 0 {
		limit = maxBeatmapLimit
	}
	if limit > maxBeatmapLimit {
		return nil, errLimitTooLarge
	}

	params := url.Values{}
	params.Set("k", c.apiKey)
	params.Set("limit", strconv.Itoa(limit))
	if req.IncludeConverted {
		params.Set("a", "1")
	}
	if !req.Since.IsZero() {
		params.Set("since", req.Since.Format("2006-01-02"))
	}
	switch {
	case req.BeatmapSetID != 0:
		params.Set("s", strconv.Itoa(req.BeatmapSetID))
	case req.BeatmapID != 0:
		params.Set("b", strconv.Itoa(req.BeatmapID))
	case req.BeatmapMD5 != "":
		params.Set("h", req.BeatmapMD5)
	}
	switch {
	case req.UserID != 0:
		params.Set("u", strconv.Itoa(req.UserID))
		params.Set("type", "id")
	case req.UserName != "":
		params.Set("u", req.UserName)
		params.Set("type", "string")
	}
	if req.GameMode != nil {
		params.Set("m", strconv.Itoa(int(*req.GameMode)))
	}

	body, err := c.requester.SendPayload(ctx, &request.Item{
		Path: c.apiURL + "/api/get_beatmaps?" + params.Encode(),
	})
	if err != nil {
		return nil, err
	}

	var out []*BeatmapResult
	var parseErr error
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		result, err := parseBeatmapResult(value)
		if err != nil {
			parseErr = err
			return
		}
		out = append(out, result)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode get_beatmaps response")
	}
	if parseErr != nil {
		return nil, parseErr
	}

	if req.FetchBeatmaps {
		for _, result := range out {
			data, err := c.DownloadBeatmapContext(ctx, result.BeatmapID)
			if err != nil {
				return nil, err
			}
			if result.Beatmap, err = beatmap.Parse(string(data)); err != nil {
				return nil, errors.Wrapf(err, "failed to parse beatmap %d", result.BeatmapID)
			}
		}
	}
	return out, nil
}

// BeatmapByID queries the API for the single map with the given id,
// including its parsed .osu file
func (c *Client) BeatmapByID(ctx context.Context, beatmapID int) (*BeatmapResult, error) {
	return c.singleBeatmap(ctx, BeatmapRequest{BeatmapID: beatmapID, FetchBeatmaps: true})
}

// BeatmapByMD5 queries the API for the single map with the given hash,
// including its parsed .osu file
func (c *Client) BeatmapByMD5(ctx context.Context, md5 string) (*BeatmapResult, error) {
	return c.singleBeatmap(ctx, BeatmapRequest{BeatmapMD5: md5, FetchBeatmaps: true})
}

func (c *Client) singleBeatmap(ctx context.Context, req BeatmapRequest) (*BeatmapResult, error) {
	results, err := c.Beatmaps(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errNoResults
	}
	return results[0], nil
}

// LookupByMD5 retrieves the parsed beatmap with the given hash. This lets a
// client stand in anywhere a library can.
func (c *Client) LookupByMD5(md5 string) (*beatmap.Beatmap, error) {
	result, err := c.BeatmapByMD5(context.Background(), md5)
	if err != nil {
		return nil, err
	}
	return result.Beatmap, nil
}

// DownloadBeatmap fetches the raw .osu file for a beatmap id
func (c *Client) DownloadBeatmap(beatmapID int) ([]byte, error) {
	return c.DownloadBeatmapContext(context.Background(), beatmapID)
}

// DownloadBeatmapContext fetches the raw .osu file for a beatmap id
func (c *Client) DownloadBeatmapContext(ctx context.Context, beatmapID int) ([]byte, error) {
	log.Debugf(log.ClientMgr, "Downloading beatmap %d\n", beatmapID)
	return c.requester.SendPayload(ctx, &request.Item{
		Path: fmt.Sprintf("%s/osu/%d", c.apiURL, beatmapID),
	})
}

func parseBeatmapResult(value []byte) (*BeatmapResult, error) {
	out := &BeatmapResult{}

	var err error
	if out.BeatmapID, err = intField(value, "beatmap_id"); err != nil {
		return nil, err
	}
	if out.BeatmapSetID, err = intField(value, "beatmapset_id"); err != nil {
		return nil, err
	}

	approved, err := intField(value, "approved")
	if err != nil {
		return nil, err
	}
	out.Approved = ApprovedState(approved)

	if out.ApprovedDate, err = dateField(value, "approved_date"); err != nil {
		return nil, err
	}
	if out.LastUpdate, err = dateField(value, "last_update"); err != nil {
		return nil, err
	}

	if out.StarRating, err = floatField(value, "difficultyrating"); err != nil {
		return nil, err
	}

	hitLength, err := intField(value, "hit_length")
	if err != nil {
		return nil, err
	}
	out.HitLength = time.Duration(hitLength) * time.Second

	totalLength, err := intField(value, "total_length")
	if err != nil {
		return nil, err
	}
	out.TotalLength = time.Duration(totalLength) * time.Second

	genre, err := intField(value, "genre_id")
	if err != nil {
		return nil, err
	}
	out.Genre = Genre(genre)

	language, err := intField(value, "language_id")
	if err != nil {
		return nil, err
	}
	out.Language = Language(language)

	if out.BeatmapMD5, err = jsonparser.GetString(value, "file_md5"); err != nil {
		return nil, errors.Wrap(err, "missing file_md5")
	}

	if out.FavouriteCount, err = intField(value, "favourite_count"); err != nil {
		return nil, err
	}
	if out.PlayCount, err = intField(value, "playcount"); err != nil {
		return nil, err
	}
	if out.PassCount, err = intField(value, "passcount"); err != nil {
		return nil, err
	}
	// the server reports null max combos for some modes
	out.MaxCombo, _ = intField(value, "max_combo")

	return out, nil
}

// the API returns every field as a JSON string
func intField(value []byte, key string) (int, error) {
	raw, err := jsonparser.GetString(value, key)
	if err != nil {
		return 0, errors.Wrapf(err, "missing %s", key)
	}
	if raw == "" {
		return 0, fmt.Errorf("field %s is empty", key)
	}
	out, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("field %s should be an int, got %q", key, raw)
	}
	return out, nil
}

func floatField(value []byte, key string) (float64, error) {
	raw, err := jsonparser.GetString(value, key)
	if err != nil {
		return 0, errors.Wrapf(err, "missing %s", key)
	}
	if raw == "" {
		return 0, fmt.Errorf("field %s is empty", key)
	}
	out, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s should be a float, got %q", key, raw)
	}
	return out, nil
}

func dateField(value []byte, key string) (time.Time, error) {
	raw, err := jsonparser.GetString(value, key)
	if err != nil || raw == "" {
		// unranked maps have no approved date
		return time.Time{}, nil
	}
	out, err := time.ParseInLocation(apiDateLayout, raw, apiTimezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s should be a date, got %q", key, raw)
	}
	return out, nil
}
