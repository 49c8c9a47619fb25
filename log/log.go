package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// NewSubLogger allocates a new sub logger, registers it and returns it for
// package level logging. Duplicate names are rejected so subsystems cannot
// shadow each other's output settings.
func NewSubLogger(name string) (*SubLogger, error) {
	if name == "" {
		return nil, errEmptyLoggerName
	}
	name = strings.ToUpper(name)
	mu.Lock()
	defer mu.Unlock()
	if _, ok := subLoggers[name]; ok {
		return nil, fmt.Errorf("'%v' %w", name, ErrSubLoggerAlreadyRegistered)
	}
	sl := &SubLogger{
		name:   name,
		Levels: splitLevel(defaultLevels),
		output: os.Stdout,
	}
	subLoggers[name] = sl
	return sl, nil
}

const defaultLevels = "INFO|WARN|ERROR"

// SetLevel overrides the registered sub logger levels from a pipe delimited
// string e.g. "INFO|WARN|DEBUG|ERROR"
func (sl *SubLogger) SetLevel(levels string) {
	mu.Lock()
	sl.Levels = splitLevel(levels)
	mu.Unlock()
}

// SetOutput overrides the registered sub logger output
func (sl *SubLogger) SetOutput(o io.Writer) {
	mu.Lock()
	sl.output = o
	mu.Unlock()
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch level := enabledLevels[x]; level {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

// SetupFromConfig applies a log configuration across every registered sub
// logger
func SetupFromConfig(cfg *Config) error {
	if cfg == nil {
		return errNilConfig
	}
	if cfg.Enabled != nil && !*cfg.Enabled {
		mu.Lock()
		for _, sl := range subLoggers {
			sl.Levels = Levels{}
		}
		mu.Unlock()
		return nil
	}
	if cfg.Level == "" {
		return nil
	}
	mu.Lock()
	for _, sl := range subLoggers {
		sl.Levels = splitLevel(cfg.Level)
	}
	mu.Unlock()
	return nil
}

func (sl *SubLogger) stage(header, data string) {
	mu.RLock()
	defer mu.RUnlock()
	if sl == nil || sl.output == nil {
		return
	}
	switch header {
	case infoHeader:
		if !sl.Info {
			return
		}
	case warnHeader:
		if !sl.Warn {
			return
		}
	case debugHeader:
		if !sl.Debug {
			return
		}
	case errorHeader:
		if !sl.Error {
			return
		}
	}
	fmt.Fprintf(sl.output, "%s%s%s%s%s%s\n",
		time.Now().Format(timestampFormat),
		spacer,
		sl.name,
		spacer,
		header+" ",
		data)
}

// Infoln takes a pointer sub logger and forwards the log event at info level
func Infoln(sl *SubLogger, v ...interface{}) { sl.stage(infoHeader, fmt.Sprint(v...)) }

// Infof takes a pointer sub logger, a format string and args and forwards the
// log event at info level
func Infof(sl *SubLogger, data string, v ...interface{}) {
	sl.stage(infoHeader, fmt.Sprintf(data, v...))
}

// Debugln takes a pointer sub logger and forwards the log event at debug level
func Debugln(sl *SubLogger, v ...interface{}) { sl.stage(debugHeader, fmt.Sprint(v...)) }

// Debugf takes a pointer sub logger, a format string and args and forwards the
// log event at debug level
func Debugf(sl *SubLogger, data string, v ...interface{}) {
	sl.stage(debugHeader, fmt.Sprintf(data, v...))
}

// Warnln takes a pointer sub logger and forwards the log event at warn level
func Warnln(sl *SubLogger, v ...interface{}) { sl.stage(warnHeader, fmt.Sprint(v...)) }

// Warnf takes a pointer sub logger, a format string and args and forwards the
// log event at warn level
func Warnf(sl *SubLogger, data string, v ...interface{}) {
	sl.stage(warnHeader, fmt.Sprintf(data, v...))
}

// Errorln takes a pointer sub logger and forwards the log event at error level
func Errorln(sl *SubLogger, v ...interface{}) { sl.stage(errorHeader, fmt.Sprint(v...)) }

// Errorf takes a pointer sub logger, a format string and args and forwards the
// log event at error level
func Errorf(sl *SubLogger, data string, v ...interface{}) {
	sl.stage(errorHeader, fmt.Sprintf(data, v...))
}

func mustNewSubLogger(name string) *SubLogger {
	sl, err := NewSubLogger(name)
	if err != nil {
		panic(err)
	}
	return sl
}

func init() {
	Global = mustNewSubLogger("OSUKIT")
	BeatmapMgr = mustNewSubLogger("BEATMAP")
	ReplayMgr = mustNewSubLogger("REPLAY")
	LibraryMgr = mustNewSubLogger("LIBRARY")
	DatabaseMgr = mustNewSubLogger("DATABASE")
	ClientMgr = mustNewSubLogger("CLIENT")
	RequestSys = mustNewSubLogger("REQUEST")
}
