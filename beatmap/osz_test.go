package beatmap

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOSZ(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, contents := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFromOSZ(t *testing.T) {
	t.Parallel()

	hard := strings.Replace(testBeatmap, "Version:FOUR DIMENSIONS", "Version:Hard", 1)
	data := buildOSZ(t, map[string]string{
		"map (FOUR DIMENSIONS).osu": testBeatmap,
		"map (Hard).osu":            hard,
		"audio.mp3":                 "not a beatmap",
	})

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	beatmaps, err := FromOSZ(zr)
	require.NoError(t, err)
	require.Len(t, beatmaps, 2)
	assert.Contains(t, beatmaps, "FOUR DIMENSIONS")
	assert.Contains(t, beatmaps, "Hard")
	assert.Equal(t, "xi", beatmaps["Hard"].Artist)
}

func TestFromOSZInvalidEntry(t *testing.T) {
	t.Parallel()

	data := buildOSZ(t, map[string]string{"broken.osu": "not a beatmap"})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = FromOSZ(zr)
	assert.ErrorContains(t, err, "broken.osu")
}

func TestFromOSZPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "set.osz")
	data := buildOSZ(t, map[string]string{"map.osu": testBeatmap})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	beatmaps, err := FromOSZPath(path)
	require.NoError(t, err)
	require.Len(t, beatmaps, 1)
	assert.Equal(t, "Freedom Dive", beatmaps["FOUR DIMENSIONS"].Title)
}
