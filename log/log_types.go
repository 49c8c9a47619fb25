package log

import (
	"io"
	"sync"
)

const (
	timestampFormat = "02/01/2006 15:04:05"
	spacer          = " | "
)

// Headers prepended to each log line by severity
const (
	infoHeader  = "[INFO]"
	warnHeader  = "[WARN]"
	debugHeader = "[DEBUG]"
	errorHeader = "[ERROR]"
)

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global *SubLogger

	BeatmapMgr  *SubLogger
	ReplayMgr   *SubLogger
	LibraryMgr  *SubLogger
	DatabaseMgr *SubLogger
	ClientMgr   *SubLogger
	RequestSys  *SubLogger

	mu = &sync.RWMutex{}
)

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}

// SubLogger defines a sub logger for a subsystem with its own severity
// gating and output
type SubLogger struct {
	name string
	Levels
	output io.Writer
}

// Config holds logger settings loaded from the application config
type Config struct {
	Enabled *bool  `json:"enabled" mapstructure:"enabled"`
	Level   string `json:"level" mapstructure:"level"`
}
