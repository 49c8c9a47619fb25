package database

import (
	"database/sql"
	"errors"
	"sync"
)

var (
	// ErrNoDatabaseProvided is returned when no database file name is set
	ErrNoDatabaseProvided = errors.New("no database file provided")
	// ErrNilInstance is returned when an operation is attempted on a nil
	// instance
	ErrNilInstance = errors.New("database instance is nil")
	// ErrDatabaseSupportDisabled is returned when the config disables
	// database support
	ErrDatabaseSupportDisabled = errors.New("database support is disabled")

	errNilConfig = errors.New("received nil config")
	errNilSQL    = errors.New("database SQL connection is nil")
)

// Config holds the database connection settings
type Config struct {
	// Enabled toggles database support
	Enabled bool `json:"enabled"`
	// Verbose echoes every statement to the logger
	Verbose bool `json:"verbose"`
	// Database is the file name of the sqlite database
	Database string `json:"database"`
	// DataPath is the directory holding the database file
	DataPath string `json:"dataPath"`
}

// Instance holds a database connection and its config
type Instance struct {
	sql       *sql.DB
	config    *Config
	connected bool
	m         sync.RWMutex
}
