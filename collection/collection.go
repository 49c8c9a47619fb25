// Package collection parses the osu! client's collection.db file.
package collection

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/osukit/osukit/encoding/osubinary"
)

// Collection is a named set of beatmaps referenced by the md5 hashes of
// their .osu files
type Collection struct {
	Name      string
	MD5Hashes []string
}

// DB is a parsed collection.db
type DB struct {
	// Version of the game client that wrote the file
	Version int
	// Collections in file order
	Collections []Collection
}

// FromPath reads a collection database from disk
func FromPath(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return db, nil
}

// FromFile reads a collection database from an open stream
func FromFile(f io.Reader) (*DB, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a collection database from collection.db data
func Parse(data []byte) (*DB, error) {
	d := osubinary.NewDecoder(data)

	version, err := d.Int()
	if err != nil {
		return nil, err
	}
	numCollections, err := d.Int()
	if err != nil {
		return nil, err
	}

	db := &DB{Version: int(version)}
	for i := uint32(0); i < numCollections; i++ {
		c, err := parseCollection(d)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse collection %d", i)
		}
		db.Collections = append(db.Collections, c)
	}
	return db, nil
}

func parseCollection(d *osubinary.Decoder) (Collection, error) {
	name, err := d.String()
	if err != nil {
		return Collection{}, err
	}
	numBeatmaps, err := d.Int()
	if err != nil {
		return Collection{}, err
	}

	c := Collection{Name: name}
	for i := uint32(0); i < numBeatmaps; i++ {
		md5, err := d.String()
		if err != nil {
			return Collection{}, err
		}
		c.MD5Hashes = append(c.MD5Hashes, md5)
	}
	return c, nil
}
