package log

import "errors"

var (
	// ErrSubLoggerAlreadyRegistered returned when a sub logger is registered
	// multiple times
	ErrSubLoggerAlreadyRegistered = errors.New("sub logger already registered")

	errEmptyLoggerName = errors.New("cannot have empty logger name")
	errNilConfig       = errors.New("nil config received")
)
