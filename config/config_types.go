package config

import (
	"errors"

	"github.com/osukit/osukit/database"
	"github.com/osukit/osukit/log"
)

const (
	// FileName is the config file stem searched for in the config directory
	FileName = "osukit"

	// EnvPrefix is prepended to environment variable overrides, e.g.
	// OSUKIT_API_KEY overrides api.key
	EnvPrefix = "OSUKIT"

	// DefaultAPIURL is the endpoint used when the config does not name one
	DefaultAPIURL = "https://osu.ppy.sh"

	defaultCacheSize = 2048
)

var (
	// ErrNilConfig is returned when a nil config is operated on
	ErrNilConfig = errors.New("config is nil")

	errLibraryPathUnset = errors.New("library path is not set")
)

// APIConfig holds the osu! web API settings
type APIConfig struct {
	Key string `json:"key" mapstructure:"key"`
	URL string `json:"url" mapstructure:"url"`
}

// LibraryConfig holds the local beatmap library settings
type LibraryConfig struct {
	Path      string `json:"path" mapstructure:"path"`
	Recurse   bool   `json:"recurse" mapstructure:"recurse"`
	CacheSize int    `json:"cacheSize" mapstructure:"cacheSize"`
	// Download allows library lookups by id to fetch missing maps from
	// the web API
	Download bool `json:"download" mapstructure:"download"`
}

// Config is the full application configuration
type Config struct {
	API      APIConfig       `json:"api" mapstructure:"api"`
	Library  LibraryConfig   `json:"library" mapstructure:"library"`
	Database database.Config `json:"database" mapstructure:"database"`
	Logging  log.Config      `json:"logging" mapstructure:"logging"`
}
