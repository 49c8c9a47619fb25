package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubLogger(t *testing.T) {
	sl, err := NewSubLogger("stars")
	require.NoError(t, err)
	assert.Equal(t, "STARS", sl.name, "names are upper cased")
	assert.True(t, sl.Info)
	assert.False(t, sl.Debug, "debug is off by default")

	_, err = NewSubLogger("STARS")
	assert.ErrorIs(t, err, ErrSubLoggerAlreadyRegistered)

	_, err = NewSubLogger("")
	assert.ErrorIs(t, err, errEmptyLoggerName)
}

func TestLevelGating(t *testing.T) {
	sl, err := NewSubLogger("gating")
	require.NoError(t, err)

	var buf bytes.Buffer
	sl.SetOutput(&buf)

	Debugf(sl, "hidden %d\n", 1)
	assert.Empty(t, buf.String(), "debug should be filtered at the default level")

	Infof(sl, "shown %d", 2)
	assert.Contains(t, buf.String(), "GATING")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	sl.SetLevel("DEBUG|ERROR")
	Debugln(sl, "now visible")
	Warnln(sl, "still hidden")
	Errorln(sl, "always visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.NotContains(t, buf.String(), "still hidden")
	assert.Contains(t, buf.String(), "always visible")
}

func TestNilSubLogger(t *testing.T) {
	var sl *SubLogger
	assert.NotPanics(t, func() {
		Infof(sl, "dropped")
		Errorln(sl, "dropped")
	})
}

func TestSetupFromConfig(t *testing.T) {
	assert.ErrorIs(t, SetupFromConfig(nil), errNilConfig)

	sl, err := NewSubLogger("setup")
	require.NoError(t, err)
	var buf bytes.Buffer
	sl.SetOutput(&buf)

	require.NoError(t, SetupFromConfig(&Config{Level: "DEBUG"}))
	Debugln(sl, "debug on")
	Infoln(sl, "info off")
	assert.Contains(t, buf.String(), "debug on")
	assert.NotContains(t, buf.String(), "info off")

	buf.Reset()
	disabled := false
	require.NoError(t, SetupFromConfig(&Config{Enabled: &disabled}))
	Errorln(sl, "silenced")
	assert.Empty(t, buf.String())

	// restore the defaults for other tests
	require.NoError(t, SetupFromConfig(&Config{Level: defaultLevels}))
}
