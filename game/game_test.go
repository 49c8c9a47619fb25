package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircleRadius(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 32.0, CircleRadius(5), 1e-9)
	assert.InDelta(t, 36.48, CircleRadius(4), 1e-9)
	assert.Greater(t, CircleRadius(2), CircleRadius(7),
		"smaller circle size values should give larger circles")
}

func TestARConversions(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1200.0, ARToMS(5))
	assert.Equal(t, 450.0, ARToMS(10))
	assert.Equal(t, 1800.0, ARToMS(0))

	for _, ar := range []float64{0, 3, 5, 7.5, 9, 10} {
		assert.InDelta(t, ar, MSToAR(ARToMS(ar)), 1e-9, "AR %v should round trip", ar)
	}
}

func TestODConversions(t *testing.T) {
	t.Parallel()
	windows := ODToMS(5)
	assert.Equal(t, 49.5, windows.Hit300)
	assert.Equal(t, 99.5, windows.Hit100)
	assert.Equal(t, 149.5, windows.Hit50)

	for _, od := range []float64{0, 2.5, 5, 10} {
		assert.InDelta(t, od, MS300ToOD(ODToMS300(od)), 1e-9, "OD %v should round trip", od)
	}
}

func TestAccuracy(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, Accuracy(100, 0, 0, 0))
	assert.Equal(t, 0.0, Accuracy(0, 0, 0, 100))
	assert.Equal(t, 0.0, Accuracy(0, 0, 0, 0), "no hits at all should not divide by zero")
	assert.InDelta(t, (300.0+100)/600, Accuracy(1, 1, 0, 0), 1e-9)
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	m, err := ParseMode(0)
	require.NoError(t, err)
	assert.Equal(t, ModeStandard, m)

	m, err = ParseMode(3)
	require.NoError(t, err)
	assert.Equal(t, ModeMania, m)

	_, err = ParseMode(4)
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = ParseMode(-1)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestModsString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "None", Mods(0).String())
	assert.Equal(t, "HDHR", (ModHidden | ModHardRock).String())
	assert.Equal(t, "DTNC", (ModDoubleTime | ModNightcore).String())
	assert.Equal(t, "None", ModNoVideo.String(), "unselectable mods have no short name")
}

func TestModsHas(t *testing.T) {
	t.Parallel()
	m := ModHidden | ModDoubleTime
	assert.True(t, m.Has(ModHidden))
	assert.True(t, m.Has(ModHidden|ModDoubleTime))
	assert.False(t, m.Has(ModHardRock))
	assert.False(t, m.Has(ModHidden|ModHardRock))
}

func TestDistanceAndWithin(t *testing.T) {
	t.Parallel()
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: 4}
	assert.Equal(t, 5.0, Distance(a, b))
	assert.True(t, Within(a, b, 5.1))
	assert.False(t, Within(a, b, 5), "within is strict")
}
