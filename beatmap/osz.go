package beatmap

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// FromOSZPath reads every difficulty out of a .osz archive on disk. The
// result maps difficulty names to their parsed beatmaps.
func FromOSZPath(path string) (map[string]*Beatmap, error) {
	zf, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer zf.Close()
	return FromOSZ(&zf.Reader)
}

// FromOSZ reads every difficulty out of an open .osz archive
func FromOSZ(zf *zip.Reader) (map[string]*Beatmap, error) {
	out := map[string]*Beatmap{}
	for _, f := range zf.File {
		if !strings.HasSuffix(f.Name, ".osu") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		b, err := Parse(string(data))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", f.Name)
		}
		out[b.Version] = b
	}
	return out, nil
}
