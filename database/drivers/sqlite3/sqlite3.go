// Package sqlite connects beatmap index instances to sqlite files on disk.
package sqlite

import (
	"database/sql"
	"path/filepath"

	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/osukit/osukit/database"
)

// Connect opens the instance's sqlite file and attaches the connection
func Connect(i *database.Instance) error {
	if i == nil {
		return database.ErrNilInstance
	}
	cfg := i.GetConfig()
	if cfg == nil || cfg.Database == "" {
		return database.ErrNoDatabaseProvided
	}

	fullPath := filepath.Join(cfg.DataPath, cfg.Database)
	dbConn, err := sql.Open("sqlite3", fullPath)
	if err != nil {
		return err
	}
	return i.SetSQLiteConnection(dbConn)
}
