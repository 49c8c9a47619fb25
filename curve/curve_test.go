package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukit/osukit/game"
)

func TestLinear(t *testing.T) {
	t.Parallel()

	c, err := New("L", []game.Position{{X: 0, Y: 0}, {X: 100, Y: 0}}, 100)
	require.NoError(t, err)

	start := c.At(0)
	assert.InDelta(t, 0, start.X, 1e-9)

	mid := c.At(0.5)
	assert.InDelta(t, 50, mid.X, 1e-6)
	assert.InDelta(t, 0, mid.Y, 1e-6)

	end := c.At(1)
	assert.InDelta(t, 100, end.X, 1e-6)
}

func TestLinearShortened(t *testing.T) {
	t.Parallel()

	// the declared pixel length cuts the curve short of its control points
	c, err := New("L", []game.Position{{X: 0, Y: 0}, {X: 100, Y: 0}}, 50)
	require.NoError(t, err)
	end := c.At(1)
	assert.InDelta(t, 50, end.X, 1e-6)
}

func TestPerfect(t *testing.T) {
	t.Parallel()

	// a half circle of radius 100 around the origin
	points := []game.Position{{X: 100, Y: 0}, {X: 0, Y: 100}, {X: -100, Y: 0}}
	c, err := New("P", points, 100*math.Pi)
	require.NoError(t, err)

	for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
		p := c.At(frac)
		assert.InDelta(t, 100, math.Hypot(p.X, p.Y), 1e-6,
			"every point of the arc should sit on the circle")
	}
	end := c.At(1)
	assert.InDelta(t, -100, end.X, 1e-6)
	assert.InDelta(t, 0, end.Y, 1e-6)
}

func TestPerfectFallsBackToBezier(t *testing.T) {
	t.Parallel()

	c, err := New("P", []game.Position{{X: 0, Y: 0}, {X: 100, Y: 0}}, 100)
	require.NoError(t, err)
	assert.IsType(t, &MultiBezier{}, c,
		"perfect curves need exactly three points")
}

func TestMultiBezier(t *testing.T) {
	t.Parallel()

	// a repeated control point splits the curve into two linear segments
	points := []game.Position{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100},
	}
	c, err := New("B", points, 200)
	require.NoError(t, err)

	start := c.At(0)
	assert.InDelta(t, 0, start.X, 1e-6)
	end := c.At(1)
	assert.InDelta(t, 100, end.X, 1e-6)
	assert.InDelta(t, 100, end.Y, 1e-6)
}

func TestCatmull(t *testing.T) {
	t.Parallel()

	points := []game.Position{{X: 0, Y: 0}, {X: 50, Y: 50}, {X: 100, Y: 0}}
	c, err := New("C", points, 150)
	require.NoError(t, err)

	start := c.At(0)
	assert.InDelta(t, 0, start.X, 1e-6)
	assert.InDelta(t, 0, start.Y, 1e-6)
	end := c.At(1)
	assert.InDelta(t, 100, end.X, 1e-6)
}

func TestUnknownKind(t *testing.T) {
	t.Parallel()
	_, err := New("Z", []game.Position{{X: 0, Y: 0}}, 10)
	assert.ErrorIs(t, err, ErrUnknownCurveType)
}

func TestHardRock(t *testing.T) {
	t.Parallel()

	c, err := New("L", []game.Position{{X: 0, Y: 100}, {X: 100, Y: 100}}, 100)
	require.NoError(t, err)
	flipped := c.HardRock()

	for i, p := range flipped.Points() {
		assert.Equal(t, game.PlayfieldHeight-c.Points()[i].Y, p.Y)
		assert.Equal(t, c.Points()[i].X, p.X)
	}
}

func TestRotate(t *testing.T) {
	t.Parallel()

	p := Rotate(game.Position{X: 1, Y: 0}, game.Position{}, math.Pi/2)
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 1, p.Y, 1e-9)

	center := game.Position{X: 10, Y: 10}
	assert.InDelta(t, 10, Rotate(game.Position{X: 11, Y: 10}, center, math.Pi).X+1, 1e-9)
}
