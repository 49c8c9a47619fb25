package library

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukit/osukit/common/crypto"
)

// osuFile renders a minimal but parseable .osu file. Varying the version
// string keeps every file's hash unique.
func osuFile(beatmapID int, version string) []byte {
	return []byte(fmt.Sprintf(`osu file format v14

[General]
Mode: 0

[Metadata]
Title:Freedom Dive
Artist:xi
Version:%s
BeatmapID:%d

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
`, version, beatmapID))
}

func writeMap(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	easy := osuFile(1, "Easy")
	hard := osuFile(2, "Hard")
	nested := osuFile(3, "Nested")
	writeMap(t, dir, "easy.osu", easy)
	writeMap(t, dir, "hard.osu", hard)
	writeMap(t, dir, "notes.txt", []byte("not a beatmap"))
	sub := filepath.Join(dir, "more")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeMap(t, sub, "nested.osu", nested)

	l, err := Create(dir, true)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, dir, l.Path())

	md5s, err := l.MD5s()
	require.NoError(t, err)
	assert.Len(t, md5s, 3)
	assert.Contains(t, md5s, crypto.MD5Hex(nested))

	ids, err := l.IDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, ids)
}

func TestCreateWithoutRecurse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMap(t, dir, "easy.osu", osuFile(1, "Easy"))
	sub := filepath.Join(dir, "more")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeMap(t, sub, "nested.osu", osuFile(3, "Nested"))

	l, err := Create(dir, false)
	require.NoError(t, err)
	defer l.Close()

	md5s, err := l.MD5s()
	require.NoError(t, err)
	assert.Len(t, md5s, 1, "subdirectories should be skipped")
}

func TestCreateBadMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMap(t, dir, "broken.osu", []byte("this is not a beatmap"))

	_, err := Create(dir, true)
	assert.ErrorContains(t, err, "broken.osu")
}

func TestLookupByMD5(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	easy := osuFile(1, "Easy")
	writeMap(t, dir, "easy.osu", easy)

	l, err := Create(dir, true)
	require.NoError(t, err)
	defer l.Close()

	b, err := l.LookupByMD5(crypto.MD5Hex(easy))
	require.NoError(t, err)
	assert.Equal(t, "Easy", b.Version)

	_, err = l.LookupByMD5("ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupByMD5UncachedReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	easy := osuFile(1, "Easy")
	writeMap(t, dir, "easy.osu", easy)

	l, err := Create(dir, true)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// a fresh library has an empty cache and must go back to disk
	l, err = New(dir)
	require.NoError(t, err)
	defer l.Close()

	b, err := l.LookupByMD5(crypto.MD5Hex(easy))
	require.NoError(t, err)
	assert.Equal(t, "Easy", b.Version)
}

func TestLookupByID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMap(t, dir, "hard.osu", osuFile(2, "Hard"))

	l, err := Create(dir, true)
	require.NoError(t, err)
	defer l.Close()

	b, err := l.LookupByID(2)
	require.NoError(t, err)
	assert.Equal(t, "Hard", b.Version)

	_, err = l.LookupByID(99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

// stubDownloader serves canned .osu data by id
type stubDownloader struct {
	maps  map[int][]byte
	calls int
}

func (d *stubDownloader) DownloadBeatmap(beatmapID int) ([]byte, error) {
	d.calls++
	data, ok := d.maps[beatmapID]
	if !ok {
		return nil, fmt.Errorf("no such beatmap %d", beatmapID)
	}
	return data, nil
}

func TestLookupByIDDownloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	remote := osuFile(42, "Remote")
	dl := &stubDownloader{maps: map[int][]byte{42: remote}}

	l, err := Create(dir, true, WithDownloader(dl))
	require.NoError(t, err)
	defer l.Close()

	b, err := l.LookupByID(42)
	require.NoError(t, err)
	assert.Equal(t, "Remote", b.Version)
	assert.Equal(t, 1, dl.calls)

	// the downloaded map lands on disk under its hash
	_, err = os.Stat(filepath.Join(dir, crypto.MD5Hex(remote)+".osu"))
	assert.NoError(t, err)

	// a second lookup is served from the index
	_, err = l.LookupByID(42)
	require.NoError(t, err)
	assert.Equal(t, 1, dl.calls)

	_, err = l.LookupByID(43)
	assert.ErrorContains(t, err, "failed to download beatmap 43")
}

func TestSaveAndDelete(t *testing.T) {
	t.Parallel()

	l, err := Create(t.TempDir(), true)
	require.NoError(t, err)
	defer l.Close()

	data := osuFile(7, "Saved")
	b, err := l.Save(data)
	require.NoError(t, err)
	assert.Equal(t, "Saved", b.Version)

	sum := crypto.MD5Hex(data)
	md5s, err := l.MD5s()
	require.NoError(t, err)
	assert.Contains(t, md5s, sum)

	require.NoError(t, l.Delete(sum))
	_, err = l.LookupByMD5(sum)
	assert.ErrorIs(t, err, ErrNotFound)

	// deletion only drops the index entry
	_, err = os.Stat(filepath.Join(l.Path(), sum+".osu"))
	assert.NoError(t, err)
}

func TestSaveInvalidData(t *testing.T) {
	t.Parallel()

	l, err := Create(t.TempDir(), true)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Save([]byte("not a beatmap"))
	require.Error(t, err)

	entries, err := os.ReadDir(l.Path())
	require.NoError(t, err)
	for _, e := range entries {
		// only the index file itself may remain
		assert.NotEqual(t, ".osu", filepath.Ext(e.Name()),
			"failed saves should not leave files behind")
	}
}

func TestCacheEviction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	easy := osuFile(1, "Easy")
	hard := osuFile(2, "Hard")
	writeMap(t, dir, "easy.osu", easy)
	writeMap(t, dir, "hard.osu", hard)

	l, err := Create(dir, true, WithCacheSize(1))
	require.NoError(t, err)
	defer l.Close()

	l.mu.Lock()
	size := len(l.cache)
	l.mu.Unlock()
	assert.Equal(t, 1, size)

	// evicted maps are still served from the index
	b, err := l.LookupByMD5(crypto.MD5Hex(easy))
	require.NoError(t, err)
	assert.Equal(t, "Easy", b.Version)
}
