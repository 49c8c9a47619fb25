package beatmap

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/osukit/osukit/curve"
	"github.com/osukit/osukit/game"
)

// Type codes for the hit object kinds as stored in the .osu format
const (
	circleTypeCode   = 1
	sliderTypeCode   = 2
	spinnerTypeCode  = 8
	holdNoteTypeCode = 128
)

var errUnknownTypeCode = errors.New("unknown hit object type code")

// HitObject is a single hit element of a beatmap. The concrete types are
// Circle, Slider, Spinner and HoldNote.
type HitObject interface {
	// Position returns where this element appears on the screen
	Position() game.Position
	// Time returns when this element appears in the map
	Time() time.Duration
	// EndTime returns when this element ends; for instantaneous objects
	// this equals Time
	EndTime() time.Duration
	// HitSound returns the hitsound played when this element is hit
	HitSound() int
	// HalfTime returns the object as it would appear with the half time
	// mod enabled
	HalfTime() HitObject
	// DoubleTime returns the object as it would appear with the double
	// time mod enabled
	DoubleTime() HitObject
	// HardRock returns the object as it would appear with the hard rock
	// mod enabled
	HardRock() HitObject

	// withPosition returns a copy of the object moved to p; used when
	// resolving stacking
	withPosition(p game.Position) HitObject
}

type hitObjectBase struct {
	position game.Position
	time     time.Duration
	hitSound int
	addition string
}

func (h hitObjectBase) Position() game.Position { return h.position }
func (h hitObjectBase) Time() time.Duration     { return h.time }
func (h hitObjectBase) HitSound() int           { return h.hitSound }

// Addition returns the raw hitsound addition field
func (h hitObjectBase) Addition() string { return h.addition }

// Circle is a circle hit element
type Circle struct {
	hitObjectBase
}

// EndTime implements HitObject
func (c Circle) EndTime() time.Duration { return c.time }

// HalfTime implements HitObject
func (c Circle) HalfTime() HitObject {
	c.time = c.time * 4 / 3
	return c
}

// DoubleTime implements HitObject
func (c Circle) DoubleTime() HitObject {
	c.time = c.time * 2 / 3
	return c
}

// HardRock implements HitObject
func (c Circle) HardRock() HitObject {
	c.position = game.Position{X: c.position.X, Y: game.PlayfieldHeight - c.position.Y}
	return c
}

func (c Circle) withPosition(p game.Position) HitObject {
	c.position = p
	return c
}

// String implements fmt.Stringer
func (c Circle) String() string { return hitObjectString("Circle", c.position, c.time) }

// Spinner is a spinner hit element
type Spinner struct {
	hitObjectBase
	endTime time.Duration
}

// EndTime implements HitObject
func (s Spinner) EndTime() time.Duration { return s.endTime }

// HalfTime implements HitObject
func (s Spinner) HalfTime() HitObject {
	s.time = s.time * 4 / 3
	s.endTime = s.endTime * 4 / 3
	return s
}

// DoubleTime implements HitObject
func (s Spinner) DoubleTime() HitObject {
	s.time = s.time * 2 / 3
	s.endTime = s.endTime * 2 / 3
	return s
}

// HardRock implements HitObject
func (s Spinner) HardRock() HitObject {
	s.position = game.Position{X: s.position.X, Y: game.PlayfieldHeight - s.position.Y}
	return s
}

func (s Spinner) withPosition(p game.Position) HitObject {
	s.position = p
	return s
}

// String implements fmt.Stringer
func (s Spinner) String() string { return hitObjectString("Spinner", s.position, s.time) }

// HoldNote is a hold note hit element. Hold notes only appear in osu!mania
// maps.
type HoldNote struct {
	hitObjectBase
}

// EndTime implements HitObject
func (h HoldNote) EndTime() time.Duration { return h.time }

// HalfTime implements HitObject
func (h HoldNote) HalfTime() HitObject {
	h.time = h.time * 4 / 3
	return h
}

// DoubleTime implements HitObject
func (h HoldNote) DoubleTime() HitObject {
	h.time = h.time * 2 / 3
	return h
}

// HardRock implements HitObject
func (h HoldNote) HardRock() HitObject {
	h.position = game.Position{X: h.position.X, Y: game.PlayfieldHeight - h.position.Y}
	return h
}

func (h HoldNote) withPosition(p game.Position) HitObject {
	h.position = p
	return h
}

// String implements fmt.Stringer
func (h HoldNote) String() string { return hitObjectString("HoldNote", h.position, h.time) }

// Slider is a slider hit element
type Slider struct {
	hitObjectBase
	endTime       time.Duration
	curve         curve.Curve
	repeat        int
	length        float64
	ticks         int
	numBeats      float64
	tickRate      float64
	msPerBeat     float64
	edgeSounds    []int
	edgeAdditions []string
}

// EndTime implements HitObject
func (s Slider) EndTime() time.Duration { return s.endTime }

// Curve returns the slider's curve function
func (s Slider) Curve() curve.Curve { return s.curve }

// Repeat returns the number of times the slider body is traversed
func (s Slider) Repeat() int { return s.repeat }

// Length returns the length of this slider in osu! pixels
func (s Slider) Length() float64 { return s.length }

// Ticks returns the number of slider ticks including the head and tail of
// the slider
func (s Slider) Ticks() int { return s.ticks }

// NumBeats returns the number of beats this slider spans
func (s Slider) NumBeats() float64 { return s.numBeats }

// TickRate returns the rate at which ticks appear along the slider
func (s Slider) TickRate() float64 { return s.tickRate }

// MSPerBeat returns the tempo of the beatmap segment the slider appears in
func (s Slider) MSPerBeat() float64 { return s.msPerBeat }

// EdgeSounds returns the hitsounds for each edge
func (s Slider) EdgeSounds() []int { return s.edgeSounds }

// EdgeAdditions returns the hitsound additions for each edge
func (s Slider) EdgeAdditions() []string { return s.edgeAdditions }

// HalfTime implements HitObject
func (s Slider) HalfTime() HitObject {
	s.time = s.time * 4 / 3
	s.endTime = s.endTime * 4 / 3
	s.msPerBeat = 4 * s.msPerBeat / 3
	return s
}

// DoubleTime implements HitObject
func (s Slider) DoubleTime() HitObject {
	s.time = s.time * 2 / 3
	s.endTime = s.endTime * 2 / 3
	s.msPerBeat = 2 * s.msPerBeat / 3
	return s
}

// HardRock implements HitObject
func (s Slider) HardRock() HitObject {
	s.position = game.Position{X: s.position.X, Y: game.PlayfieldHeight - s.position.Y}
	s.curve = s.curve.HardRock()
	return s
}

func (s Slider) withPosition(p game.Position) HitObject {
	s.position = p
	return s
}

// String implements fmt.Stringer
func (s Slider) String() string { return hitObjectString("Slider", s.position, s.time) }

// TickPoints returns the position and time of each slider tick past the
// head of the slider
func (s Slider) TickPoints() []game.Point {
	repeat := s.repeat
	repeatDuration := (s.endTime - s.time) / time.Duration(repeat)
	beatsPerRepeat := s.numBeats / float64(repeat)

	var preRepeatTicks []game.Point
	for t := s.tickRate; t < beatsPerRepeat; t += s.tickRate {
		pos := s.curve.At(t / beatsPerRepeat)
		timediff := time.Duration(t * s.msPerBeat * float64(time.Millisecond))
		preRepeatTicks = append(preRepeatTicks, game.Point{
			X: pos.X, Y: pos.Y, Offset: s.time + timediff,
		})
	}
	pos := s.curve.At(1)
	preRepeatTicks = append(preRepeatTicks, game.Point{
		X: pos.X, Y: pos.Y, Offset: s.time + repeatDuration,
	})

	// the ticks on odd traversals walk the body backwards while keeping
	// the same relative offsets
	repeatTicks := make([]game.Point, len(preRepeatTicks))
	for i := range repeatTicks {
		var p game.Position
		if rev := len(preRepeatTicks) - 2 - i; rev >= 0 {
			p = game.Position{X: preRepeatTicks[rev].X, Y: preRepeatTicks[rev].Y}
		} else {
			p = s.position
		}
		repeatTicks[i] = game.Point{X: p.X, Y: p.Y, Offset: preRepeatTicks[i].Offset}
	}

	var out []game.Point
	for n := 0; n < repeat; n++ {
		seq := preRepeatTicks
		if n%2 == 1 {
			seq = repeatTicks
		}
		for _, p := range seq {
			out = append(out, game.Point{
				X: p.X, Y: p.Y,
				Offset: p.Offset + time.Duration(n)*repeatDuration,
			})
		}
	}
	return out
}

func hitObjectString(kind string, p game.Position, t time.Duration) string {
	return fmt.Sprintf("<%s: (%g, %g), %gms>",
		kind, p.X, p.Y, float64(t)/float64(time.Millisecond))
}

// parseHitObject parses a hit object from a line in a .osu file, dispatching
// on the type code. Sliders need the timing points and difficulty settings
// to compute their duration and tick count.
func parseHitObject(data string, timingPoints []*TimingPoint, sliderMultiplier, sliderTickRate float64) (HitObject, error) {
	fields := strings.Split(data, ",")
	if len(fields) < 5 {
		return nil, fmt.Errorf("not enough elements in line, got %q", data)
	}

	x, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("x should be an int, got %q", fields[0])
	}
	y, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, fmt.Errorf("y should be an int, got %q", fields[1])
	}
	timeMS, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return nil, fmt.Errorf("time should be an int, got %q", fields[2])
	}
	typeCode, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, fmt.Errorf("type should be an int, got %q", fields[3])
	}
	hitSound, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return nil, fmt.Errorf("hitsound should be an int, got %q", fields[4])
	}

	base := hitObjectBase{
		position: game.Position{X: float64(x), Y: float64(y)},
		time:     time.Duration(timeMS) * time.Millisecond,
		hitSound: hitSound,
		addition: "0:0:0:0",
	}
	rest := fields[5:]

	switch {
	case typeCode&circleTypeCode != 0:
		if len(rest) > 1 {
			return nil, fmt.Errorf("extra data: %q", rest)
		}
		if len(rest) == 1 {
			base.addition = rest[0]
		}
		return Circle{base}, nil
	case typeCode&sliderTypeCode != 0:
		return parseSlider(base, rest, timingPoints, sliderMultiplier, sliderTickRate)
	case typeCode&spinnerTypeCode != 0:
		return parseSpinner(base, rest)
	case typeCode&holdNoteTypeCode != 0:
		if len(rest) > 1 {
			return nil, fmt.Errorf("extra data: %q", rest)
		}
		if len(rest) == 1 {
			base.addition = rest[0]
		}
		return HoldNote{base}, nil
	}
	return nil, fmt.Errorf("%w: %d", errUnknownTypeCode, typeCode)
}

func parseSpinner(base hitObjectBase, rest []string) (HitObject, error) {
	if len(rest) == 0 {
		return nil, errors.New("missing end_time")
	}
	endTimeMS, err := strconv.Atoi(strings.TrimSpace(rest[0]))
	if err != nil {
		return nil, fmt.Errorf("end_time should be an int, got %q", rest[0])
	}
	rest = rest[1:]
	if len(rest) > 1 {
		return nil, fmt.Errorf("extra data: %q", rest)
	}
	base.addition = "0:0:0:0:"
	if len(rest) == 1 {
		base.addition = rest[0]
	}
	return Spinner{
		hitObjectBase: base,
		endTime:       time.Duration(endTimeMS) * time.Millisecond,
	}, nil
}

func parseSlider(base hitObjectBase, rest []string, timingPoints []*TimingPoint, sliderMultiplier, sliderTickRate float64) (HitObject, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("missing required slider data in %q", rest)
	}

	group := strings.Split(rest[0], "|")
	sliderType := group[0]
	points := []game.Position{base.position}
	for _, rawPoint := range group[1:] {
		xy := strings.Split(rawPoint, ":")
		if len(xy) != 2 {
			return nil, fmt.Errorf("expected points in the form x:y, got %q", rawPoint)
		}
		px, err := strconv.Atoi(xy[0])
		if err != nil {
			return nil, fmt.Errorf("x should be an int, got %q", xy[0])
		}
		py, err := strconv.Atoi(xy[1])
		if err != nil {
			return nil, fmt.Errorf("y should be an int, got %q", xy[1])
		}
		points = append(points, game.Position{X: float64(px), Y: float64(py)})
	}
	rest = rest[1:]

	if len(rest) == 0 {
		return nil, fmt.Errorf("missing repeat in %q", rest)
	}
	repeat, err := strconv.Atoi(strings.TrimSpace(rest[0]))
	if err != nil {
		return nil, fmt.Errorf("repeat should be an int, got %q", rest[0])
	}
	rest = rest[1:]

	if len(rest) == 0 {
		return nil, fmt.Errorf("missing pixel_length in %q", rest)
	}
	pixelLength, err := strconv.ParseFloat(strings.TrimSpace(rest[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("pixel_length should be a float, got %q", rest[0])
	}
	rest = rest[1:]

	var edgeSounds []int
	if len(rest) > 0 {
		if rest[0] != "" {
			for _, rawEdgeSound := range strings.Split(rest[0], "|") {
				es, err := strconv.Atoi(strings.TrimSpace(rawEdgeSound))
				if err != nil {
					return nil, fmt.Errorf("edge_sound should be an int, got %q", rawEdgeSound)
				}
				edgeSounds = append(edgeSounds, es)
			}
		}
		rest = rest[1:]
	}

	var edgeAdditions []string
	if len(rest) > 0 {
		if rest[0] != "" {
			edgeAdditions = strings.Split(rest[0], "|")
		}
		rest = rest[1:]
	}

	if len(rest) > 1 {
		return nil, fmt.Errorf("extra data: %q", rest)
	}
	if len(rest) == 1 {
		base.addition = rest[0]
	}

	// locate the active timing point; the first one applies when the
	// slider precedes every timing point
	tp := timingPoints[0]
	for i := len(timingPoints) - 1; i >= 0; i-- {
		if timingPoints[i].Offset <= base.time {
			tp = timingPoints[i]
			break
		}
	}

	velocityMultiplier := 1.0
	msPerBeat := tp.MSPerBeat
	if tp.Parent != nil {
		velocityMultiplier = -100 / tp.MSPerBeat
		msPerBeat = tp.Parent.MSPerBeat
	}

	pixelsPerBeat := sliderMultiplier * 100 * velocityMultiplier
	numBeats := (pixelLength * float64(repeat)) / pixelsPerBeat
	duration := time.Duration(numBeats*msPerBeat) * time.Millisecond

	ticks := int((math.Ceil((numBeats-0.1)/float64(repeat)*sliderTickRate)-1))*repeat +
		repeat + 1

	c, err := curve.New(sliderType, points, pixelLength)
	if err != nil {
		return nil, err
	}

	return Slider{
		hitObjectBase: base,
		endTime:       base.time + duration,
		curve:         c,
		repeat:        repeat,
		length:        pixelLength,
		ticks:         ticks,
		numBeats:      numBeats,
		tickRate:      sliderTickRate,
		msPerBeat:     msPerBeat,
		edgeSounds:    edgeSounds,
		edgeAdditions: edgeAdditions,
	}, nil
}
