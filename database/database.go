// Package database manages sqlite connections for the on-disk beatmap
// index.
package database

import "database/sql"

// NewInstance returns an unconnected instance with the supplied config
func NewInstance(cfg *Config) (*Instance, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if !cfg.Enabled {
		return nil, ErrDatabaseSupportDisabled
	}
	return &Instance{config: cfg}, nil
}

// SetConfig safely sets the instance's config
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return ErrNilInstance
	}
	if cfg == nil {
		return errNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetSQLiteConnection safely sets the instance's connection. SQLite only
// supports one writer so the pool is capped at a single connection.
func (i *Instance) SetSQLiteConnection(con *sql.DB) error {
	if i == nil {
		return ErrNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.sql = con
	i.sql.SetMaxOpenConns(1)
	i.connected = true
	return nil
}

// CloseConnection safely disconnects the instance
func (i *Instance) CloseConnection() error {
	if i == nil {
		return ErrNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	if i.sql == nil {
		return errNilSQL
	}
	i.connected = false
	return i.sql.Close()
}

// IsConnected safely checks the connection status
func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// GetConfig safely returns the config
func (i *Instance) GetConfig() *Config {
	i.m.RLock()
	defer i.m.RUnlock()
	return i.config
}

// Ping pings the database
func (i *Instance) Ping() error {
	if i == nil {
		return ErrNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.sql == nil {
		return errNilSQL
	}
	return i.sql.Ping()
}

// GetSQL returns the underlying connection
func (i *Instance) GetSQL() (*sql.DB, error) {
	if i == nil {
		return nil, ErrNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.sql == nil {
		return nil, errNilSQL
	}
	return i.sql, nil
}

// Verbose reports whether statements should be echoed to the logger
func (i *Instance) Verbose() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.config != nil && i.config.Verbose
}
