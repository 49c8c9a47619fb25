// Package config loads application settings from a config file and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/osukit/osukit/log"
)

// DefaultDir returns the directory searched for the config file
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".osukit")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(FileName)
	if path != "" {
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") ||
			strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".toml") {
			v.SetConfigFile(path)
		} else {
			v.AddConfigPath(path)
		}
	} else {
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults register every key with viper so environment overrides are
	// seen even without a config file
	v.SetDefault("api.key", "")
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("library.path", "")
	v.SetDefault("library.recurse", true)
	v.SetDefault("library.cacheSize", defaultCacheSize)
	v.SetDefault("database.enabled", true)
	v.SetDefault("logging.level", "INFO|WARN|ERROR")
	return v
}

// Load reads the config file under path, falling back to the default search
// locations when path is empty. A missing config file is not an error so the
// tool remains usable with environment variables alone.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	} else {
		log.Debugf(log.Global, "Loaded config from %s\n", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return cfg, nil
}

// ApplyLogging pushes the logging section onto every registered sub logger
func (c *Config) ApplyLogging() error {
	if c == nil {
		return ErrNilConfig
	}
	return log.SetupFromConfig(&c.Logging)
}

// ValidateLibrary checks the settings needed before the library can be opened
func (c *Config) ValidateLibrary() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Library.Path == "" {
		return errLibraryPathUnset
	}
	return nil
}
