// Package curve implements the slider body curves used by osu! beatmaps.
package curve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/osukit/osukit/game"
)

// Curve computes positions along a slider body
type Curve interface {
	// At computes the position of the curve at t, where t is the fraction
	// of the curve's travelled distance in the range [0, 1]
	At(t float64) game.Position
	// Points returns the raw control points the curve was built from
	Points() []game.Position
	// HardRock returns the curve as it would appear with the hard rock
	// mod enabled, mirrored across the horizontal midline
	HardRock() Curve
}

// ErrUnknownCurveType is returned when a slider declares a curve kind letter
// that has no implementation
var ErrUnknownCurveType = errors.New("unknown curve type")

// New builds a curve from the kind letter found in a slider's data, its
// control points and the slider's pixel length
func New(kind string, points []game.Position, reqLength float64) (Curve, error) {
	switch kind {
	case "L":
		return newBezier(points, reqLength), nil
	case "B":
		return newMultiBezier(points, reqLength), nil
	case "P":
		if len(points) != 3 {
			// perfect circles are only defined by exactly three
			// points, the game falls back to a bezier otherwise
			return newMultiBezier(points, reqLength), nil
		}
		return newPerfect(points, reqLength), nil
	case "C":
		return newCatmull(points, reqLength), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCurveType, kind)
}

func flip(points []game.Position) []game.Position {
	out := make([]game.Position, len(points))
	for i, p := range points {
		out[i] = game.Position{X: p.X, Y: game.PlayfieldHeight - p.Y}
	}
	return out
}

// Bezier is a single bezier curve of arbitrary degree. The "L" kind is a
// degree one bezier.
type Bezier struct {
	points    []game.Position
	reqLength float64
	length    float64
}

func newBezier(points []game.Position, reqLength float64) *Bezier {
	b := &Bezier{points: points, reqLength: reqLength}
	b.length = b.approxLength()
	return b
}

// At implements Curve
func (b *Bezier) At(t float64) game.Position {
	if b.length == 0 {
		return b.at(t)
	}
	return b.at(t * (b.reqLength / b.length))
}

// at evaluates the bernstein polynomial at t without rescaling to the
// requested pixel length
func (b *Bezier) at(t float64) game.Position {
	n := len(b.points) - 1
	var x, y float64
	for i, p := range b.points {
		coeff := combin.GeneralizedBinomial(float64(n), float64(i)) *
			math.Pow(1-t, float64(n-i)) *
			math.Pow(t, float64(i))
		x += coeff * p.X
		y += coeff * p.Y
	}
	return game.Position{X: x, Y: y}
}

// approxLength approximates the curve length as piecewise linear
func (b *Bezier) approxLength() float64 {
	ts := make([]float64, 5)
	floats.Span(ts, 0, 1)

	var total float64
	prev := b.at(ts[0])
	for _, t := range ts[1:] {
		cur := b.at(t)
		total += game.Distance(prev, cur)
		prev = cur
	}
	return total
}

// Points implements Curve
func (b *Bezier) Points() []game.Position { return b.points }

// HardRock implements Curve
func (b *Bezier) HardRock() Curve { return newBezier(flip(b.points), b.reqLength) }

// MultiBezier is the "B" kind: a piecewise bezier split wherever a control
// point is repeated.
type MultiBezier struct {
	points    []game.Position
	reqLength float64
	curves    []*Bezier
	ts        []float64
}

func newMultiBezier(points []game.Position, reqLength float64) *MultiBezier {
	metapoints := splitAtDupes(points)
	m := &MultiBezier{points: points, reqLength: reqLength}

	lengths := make([]float64, len(metapoints))
	var total float64
	for i, ps := range metapoints {
		b := newBezier(ps, 0)
		m.curves = append(m.curves, b)
		lengths[i] = b.length
		total += b.length
	}

	// each sub curve travels its own natural length except the last,
	// which absorbs the difference between the natural length and the
	// slider's declared pixel length
	m.ts = make([]float64, len(m.curves))
	var acc float64
	for i := 0; i < len(m.curves)-1; i++ {
		m.curves[i].reqLength = lengths[i]
		acc += lengths[i]
		if total != 0 {
			m.ts[i] = acc / total
		}
	}
	last := len(m.curves) - 1
	m.curves[last].reqLength = math.Max(0, lengths[last]-(total-reqLength))
	m.ts[last] = 1
	return m
}

// At implements Curve
func (m *MultiBezier) At(t float64) game.Position {
	if len(m.curves) == 1 {
		return m.curves[0].At(t)
	}

	bi := searchLeft(m.ts, t)
	if bi == len(m.ts) {
		bi = len(m.ts) - 1
	}
	var preT float64
	if bi > 0 {
		preT = m.ts[bi-1]
	}
	postT := m.ts[bi]
	if postT == preT {
		return m.curves[bi].At(0)
	}
	return m.curves[bi].At((t - preT) / (postT - preT))
}

// Points implements Curve
func (m *MultiBezier) Points() []game.Position { return m.points }

// HardRock implements Curve
func (m *MultiBezier) HardRock() Curve { return newMultiBezier(flip(m.points), m.reqLength) }

// Perfect is the "P" kind: a circular arc through exactly three points.
type Perfect struct {
	points    []game.Position
	reqLength float64
	center    game.Position
	angle     float64
}

func newPerfect(points []game.Position, reqLength float64) *Perfect {
	p := &Perfect{points: points, reqLength: reqLength}
	p.center = center(points[0], points[1], points[2])

	c0 := game.Position{X: points[0].X - p.center.X, Y: points[0].Y - p.center.Y}
	c1 := game.Position{X: points[1].X - p.center.X, Y: points[1].Y - p.center.Y}
	c2 := game.Position{X: points[2].X - p.center.X, Y: points[2].Y - p.center.Y}

	startAngle := math.Atan2(c0.Y, c0.X)
	endAngle := math.Atan2(c2.Y, c2.X)
	if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}
	p.angle = endAngle - startAngle

	// switch the arc direction when the middle point falls on the other
	// side of the chord
	aToC := game.Position{X: c2.X - c0.X, Y: c2.Y - c0.Y}
	orthoAToC := game.Position{X: aToC.Y, Y: -aToC.X}
	if orthoAToC.X*(c1.X-c0.X)+orthoAToC.Y*(c1.Y-c0.Y) < 0 {
		p.angle = -(2*math.Pi - p.angle)
	}

	length := math.Abs(p.angle * math.Hypot(c0.X, c0.Y))
	if length > reqLength {
		p.angle *= reqLength / length
	}
	return p
}

// At implements Curve
func (p *Perfect) At(t float64) game.Position {
	return Rotate(p.points[0], p.center, p.angle*t)
}

// Points implements Curve
func (p *Perfect) Points() []game.Position { return p.points }

// HardRock implements Curve
func (p *Perfect) HardRock() Curve { return newPerfect(flip(p.points), p.reqLength) }

// Catmull is the "C" kind: a catmull-rom spline. Only found in very old
// beatmaps.
type Catmull struct {
	points    []game.Position
	reqLength float64
}

func newCatmull(points []game.Position, reqLength float64) *Catmull {
	return &Catmull{points: points, reqLength: reqLength}
}

// At implements Curve. The parameter is distributed uniformly across the
// spline segments rather than by arc length.
func (c *Catmull) At(t float64) game.Position {
	n := len(c.points) - 1
	if n < 1 {
		return c.points[0]
	}
	scaled := t * float64(n)
	seg := int(scaled)
	if seg >= n {
		seg = n - 1
	}
	lt := scaled - float64(seg)

	p1 := c.points[seg]
	p2 := c.points[seg+1]
	p0 := p1
	if seg > 0 {
		p0 = c.points[seg-1]
	}
	p3 := p2
	if seg+2 <= n {
		p3 = c.points[seg+2]
	}
	return game.Position{
		X: catmullRom(p0.X, p1.X, p2.X, p3.X, lt),
		Y: catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, lt),
	}
}

func catmullRom(v0, v1, v2, v3, t float64) float64 {
	t2 := t * t
	return 0.5 * (2*v1 +
		(-v0+v2)*t +
		(2*v0-5*v1+4*v2-v3)*t2 +
		(-v0+3*v1-3*v2+v3)*t2*t)
}

// Points implements Curve
func (c *Catmull) Points() []game.Position { return c.points }

// HardRock implements Curve
func (c *Catmull) HardRock() Curve { return newCatmull(flip(c.points), c.reqLength) }

// center returns the center of the circle described by the 3 points
func center(p1, p2, p3 game.Position) game.Position {
	var t float64
	switch {
	case p2.X == p1.X:
		t = (p3.Y - p1.Y) / (2 * (p3.X - p2.X))
		return game.Position{
			X: 0.5*(p2.X+p3.X) + t*(p3.Y-p2.Y),
			Y: 0.5*(p2.Y+p3.Y) - t*(p3.X-p2.X),
		}
	case p3.Y == p2.Y:
		t = (p3.X - p1.X) / (2 * (p2.Y - p1.Y))
	default:
		t = ((-(p1.Y-p3.Y)/(2*(p2.X-p1.X)))-
			(((p3.X-p2.X)*(p1.X-p3.X))/
				(2*(p2.X-p1.X)*(p3.Y-p2.Y)))) *
			(((p2.X - p1.X) * (p3.Y - p2.Y)) /
				(((p3.X - p2.X) * (p2.Y - p1.Y)) -
					((p2.X - p1.X) * (p3.Y - p2.Y))))
	}
	return game.Position{
		X: 0.5*(p1.X+p2.X) + t*(p2.Y-p1.Y),
		Y: 0.5*(p1.Y+p2.Y) - t*(p2.X-p1.X),
	}
}

// Rotate returns position rotated radians around center
func Rotate(position, center game.Position, radians float64) game.Position {
	xDist := position.X - center.X
	yDist := position.Y - center.Y
	sin, cos := math.Sincos(radians)
	return game.Position{
		X: (xDist*cos - yDist*sin) + center.X,
		Y: (xDist*sin + yDist*cos) + center.Y,
	}
}

func splitAtDupes(in []game.Position) [][]game.Position {
	var out [][]game.Position
	oldI := 0
	for i := 1; i < len(in); i++ {
		if in[i] == in[i-1] {
			out = append(out, in[oldI:i])
			oldI = i
		}
	}
	return append(out, in[oldI:])
}

func searchLeft(ts []float64, t float64) int {
	lo, hi := 0, len(ts)
	for lo < hi {
		mid := (lo + hi) / 2
		if ts[mid] < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
