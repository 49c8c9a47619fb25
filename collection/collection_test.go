package collection

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukit/osukit/encoding/osubinary"
)

func buildCollectionDB(version int, collections []Collection) []byte {
	e := osubinary.NewEncoder()
	e.Int(uint32(version))
	e.Int(uint32(len(collections)))
	for _, c := range collections {
		e.String(c.Name)
		e.Int(uint32(len(c.MD5Hashes)))
		for _, md5 := range c.MD5Hashes {
			e.String(md5)
		}
	}
	return e.Bytes()
}

func TestParse(t *testing.T) {
	t.Parallel()

	want := []Collection{
		{Name: "favourites", MD5Hashes: []string{
			"2b9b8bfb28862d7b10e0ff8a0c99fcff",
			"d232e1bed463e5d1baa0ceeb636b4b6f",
		}},
		{Name: "empty"},
	}
	db, err := Parse(buildCollectionDB(20190828, want))
	require.NoError(t, err)

	assert.Equal(t, 20190828, db.Version)
	require.Len(t, db.Collections, 2)
	assert.Equal(t, want[0], db.Collections[0])
	assert.Equal(t, "empty", db.Collections[1].Name)
	assert.Empty(t, db.Collections[1].MD5Hashes)
}

func TestParseTruncated(t *testing.T) {
	t.Parallel()

	data := buildCollectionDB(1, []Collection{
		{Name: "cut short", MD5Hashes: []string{"2b9b8bfb28862d7b10e0ff8a0c99fcff"}},
	})
	_, err := Parse(data[:len(data)-5])
	assert.ErrorContains(t, err, "failed to parse collection 0")
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	data := buildCollectionDB(3, nil)
	db, err := FromFile(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, db.Version)
}

func TestFromPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "collection.db")
	data := buildCollectionDB(7, []Collection{{Name: "on disk"}})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	db, err := FromPath(path)
	require.NoError(t, err)
	require.Len(t, db.Collections, 1)
	assert.Equal(t, "on disk", db.Collections[0].Name)

	_, err = FromPath(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
