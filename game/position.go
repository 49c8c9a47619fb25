package game

import (
	"math"
	"time"
)

// Playfield extents for osu!standard. Positions may fall outside this range
// for slider curve control points.
const (
	PlayfieldWidth  = 512.0
	PlayfieldHeight = 384.0
)

// Position is a point on the osu! screen
type Position struct {
	X float64
	Y float64
}

// Point is a position paired with the offset into the map at which it occurs
type Point struct {
	X      float64
	Y      float64
	Offset time.Duration
}

// Distance returns the euclidean distance between two positions
func Distance(a, b Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Within reports whether two positions are strictly within d osu! pixels of
// each other
func Within(a, b Position, d float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy < d*d
}
