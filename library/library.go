// Package library maintains an on-disk index of .osu files keyed by beatmap
// id and the md5 hash of their contents.
package library

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/common/crypto"
	"github.com/osukit/osukit/database"
	sqlite "github.com/osukit/osukit/database/drivers/sqlite3"
	"github.com/osukit/osukit/log"
)

const (
	// name of the index file inside the library directory
	dbFileName = ".osukit.db"

	defaultCacheSize = 2048

	createBeatmapsTable = `CREATE TABLE IF NOT EXISTS beatmaps (
	md5 TEXT PRIMARY KEY,
	id INTEGER,
	path TEXT UNIQUE NOT NULL
)`
)

// ErrNotFound is returned when a beatmap is not in the library
var ErrNotFound = errors.New("beatmap not in library")

// Downloader retrieves raw .osu data for beatmaps missing from the local
// index. Implemented by client.Client.
type Downloader interface {
	DownloadBeatmap(beatmapID int) ([]byte, error)
}

// Library is a directory of .osu files together with a sqlite index over
// their ids and hashes
type Library struct {
	path       string
	db         *database.Instance
	downloader Downloader

	mu        sync.Mutex
	cache     map[string]*beatmap.Beatmap
	cacheSize int
}

// Option configures a library
type Option func(*Library)

// WithCacheSize bounds the number of parsed beatmaps held in memory
func WithCacheSize(n int) Option {
	return func(l *Library) { l.cacheSize = n }
}

// WithDownloader lets lookups by id fall back to downloading the map
func WithDownloader(d Downloader) Option {
	return func(l *Library) { l.downloader = d }
}

// New opens the library rooted at path, creating the index file if it does
// not exist yet
func New(path string, opts ...Option) (*Library, error) {
	instance, err := database.NewInstance(&database.Config{
		Enabled:  true,
		Database: dbFileName,
		DataPath: path,
	})
	if err != nil {
		return nil, err
	}
	if err := sqlite.Connect(instance); err != nil {
		return nil, errors.Wrapf(err, "failed to open index in %s", path)
	}

	conn, err := instance.GetSQL()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(createBeatmapsTable); err != nil {
		return nil, errors.Wrap(err, "failed to create beatmaps table")
	}

	l := &Library{
		path:      path,
		db:        instance,
		cache:     map[string]*beatmap.Beatmap{},
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Create builds a fresh index over every .osu file under path and returns
// the resulting library. Subdirectories are walked when recurse is set.
func Create(path string, recurse bool, opts ...Option) (*Library, error) {
	if err := os.Remove(filepath.Join(path, dbFileName)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	l, err := New(path, opts...)
	if err != nil {
		return nil, err
	}

	count := 0
	walk := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recurse && p != path {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".osu") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if _, err := l.index(data, p); err != nil {
			return errors.Wrapf(err, "failed to index %s", p)
		}
		count++
		return nil
	}
	if err := filepath.WalkDir(path, walk); err != nil {
		closeErr := l.Close()
		if closeErr != nil {
			log.Errorf(log.LibraryMgr, "Failed to close index: %v\n", closeErr)
		}
		return nil, err
	}

	log.Infof(log.LibraryMgr, "Indexed %d beatmaps under %s\n", count, path)
	return l, nil
}

// Close releases the index connection
func (l *Library) Close() error {
	return l.db.CloseConnection()
}

// Path returns the directory the library is rooted at
func (l *Library) Path() string {
	return l.path
}

// index parses data, hashes it and records where it lives. The parsed map
// is returned.
func (l *Library) index(data []byte, path string) (*beatmap.Beatmap, error) {
	b, err := beatmap.Parse(string(data))
	if err != nil {
		return nil, err
	}

	sum := crypto.MD5Hex(data)
	conn, err := l.db.GetSQL()
	if err != nil {
		return nil, err
	}

	const query = `INSERT OR REPLACE INTO beatmaps (md5, id, path) VALUES (?, ?, ?)`
	l.logQuery(query)
	var id sql.NullInt64
	if b.BeatmapID != 0 {
		id = sql.NullInt64{Int64: int64(b.BeatmapID), Valid: true}
	}
	if _, err := conn.Exec(query, sum, id, path); err != nil {
		return nil, err
	}

	l.cachePut(sum, b)
	return b, nil
}

func (l *Library) logQuery(query string) {
	if l.db.Verbose() {
		_, _ = database.Logger{}.Write([]byte(query))
	}
}

func (l *Library) cachePut(md5 string, b *beatmap.Beatmap) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cacheSize > 0 && len(l.cache) >= l.cacheSize {
		for k := range l.cache {
			delete(l.cache, k)
			break
		}
	}
	l.cache[md5] = b
}

func (l *Library) cacheGet(md5 string) (*beatmap.Beatmap, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.cache[md5]
	return b, ok
}

// LookupByMD5 retrieves a beatmap by the md5 hash of its .osu file
func (l *Library) LookupByMD5(md5 string) (*beatmap.Beatmap, error) {
	if b, ok := l.cacheGet(md5); ok {
		return b, nil
	}

	conn, err := l.db.GetSQL()
	if err != nil {
		return nil, err
	}
	const query = `SELECT path FROM beatmaps WHERE md5 = ?`
	l.logQuery(query)

	var path string
	err = conn.QueryRow(query, md5).Scan(&path)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: md5 %s", ErrNotFound, md5)
	}
	if err != nil {
		return nil, err
	}

	b, err := beatmap.FromPath(path)
	if err != nil {
		return nil, err
	}
	l.cachePut(md5, b)
	return b, nil
}

// LookupByID retrieves a beatmap by its beatmap id. When the id is not in
// the index and a downloader is attached the map is fetched and saved into
// the library.
func (l *Library) LookupByID(beatmapID int) (*beatmap.Beatmap, error) {
	conn, err := l.db.GetSQL()
	if err != nil {
		return nil, err
	}
	const query = `SELECT md5, path FROM beatmaps WHERE id = ?`
	l.logQuery(query)

	var md5, path string
	err = conn.QueryRow(query, beatmapID).Scan(&md5, &path)
	if err == sql.ErrNoRows {
		if l.downloader == nil {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, beatmapID)
		}
		return l.download(beatmapID)
	}
	if err != nil {
		return nil, err
	}

	if b, ok := l.cacheGet(md5); ok {
		return b, nil
	}
	b, err := beatmap.FromPath(path)
	if err != nil {
		return nil, err
	}
	l.cachePut(md5, b)
	return b, nil
}

func (l *Library) download(beatmapID int) (*beatmap.Beatmap, error) {
	log.Debugf(log.LibraryMgr, "Downloading beatmap %d\n", beatmapID)
	data, err := l.downloader.DownloadBeatmap(beatmapID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download beatmap %d", beatmapID)
	}
	return l.Save(data)
}

// Save writes raw .osu data into the library directory and indexes it
func (l *Library) Save(data []byte) (*beatmap.Beatmap, error) {
	sum := crypto.MD5Hex(data)
	path := filepath.Join(l.path, sum+".osu")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	b, err := l.index(data, path)
	if err != nil {
		// don't leave unindexed files behind
		_ = os.Remove(path)
		return nil, err
	}
	return b, nil
}

// Delete removes a beatmap from the index by md5. The .osu file itself is
// left on disk.
func (l *Library) Delete(md5 string) error {
	conn, err := l.db.GetSQL()
	if err != nil {
		return err
	}
	const query = `DELETE FROM beatmaps WHERE md5 = ?`
	l.logQuery(query)
	if _, err := conn.Exec(query, md5); err != nil {
		return err
	}
	l.mu.Lock()
	delete(l.cache, md5)
	l.mu.Unlock()
	return nil
}

// MD5s returns the hash of every indexed beatmap
func (l *Library) MD5s() ([]string, error) {
	return l.column(`SELECT md5 FROM beatmaps`)
}

// IDs returns the id of every indexed beatmap that has one
func (l *Library) IDs() ([]int, error) {
	conn, err := l.db.GetSQL()
	if err != nil {
		return nil, err
	}
	const query = `SELECT id FROM beatmaps WHERE id IS NOT NULL`
	l.logQuery(query)

	rows, err := conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (l *Library) column(query string) ([]string, error) {
	conn, err := l.db.GetSQL()
	if err != nil {
		return nil, err
	}
	l.logQuery(query)

	rows, err := conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
