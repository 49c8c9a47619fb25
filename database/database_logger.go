package database

import "github.com/osukit/osukit/log"

// Logger implements io.Writer to redirect statement echoes to the database
// sublogger
type Logger struct{}

// Write sends p to the database sublogger at debug level
func (l Logger) Write(p []byte) (n int, err error) {
	log.Debugf(log.DatabaseMgr, "SQL: %s", p)
	return 0, nil
}
