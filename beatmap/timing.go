package beatmap

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimingPoint assigns timing and sample properties to an offset into a
// beatmap. An inherited timing point carries a negative MSPerBeat which
// scales the velocity of its parent instead of declaring a new tempo.
type TimingPoint struct {
	// Offset is when this timing point takes effect
	Offset time.Duration
	// MSPerBeat is the milliseconds per beat, another representation of
	// BPM. Negative for inherited timing points.
	MSPerBeat float64
	// Meter is the number of beats per measure
	Meter int
	// SampleType is the type of hit sound samples used
	SampleType int
	// SampleSet is the set of hit sound samples used
	SampleSet int
	// Volume of hit sounds in the range [0, 100]
	Volume int
	// Parent of an inherited timing point, nil otherwise
	Parent *TimingPoint
	// KiaiMode reports whether kiai time effects are active
	KiaiMode bool
}

// Inherited reports whether this timing point derives its tempo from a
// parent
func (tp *TimingPoint) Inherited() bool {
	return tp.Parent != nil
}

// BPM returns the beats per minute of this timing point, or 0 for inherited
// timing points
func (tp *TimingPoint) BPM() float64 {
	if tp.MSPerBeat < 0 {
		return 0
	}
	return float64(int(60000/tp.MSPerBeat + 0.5))
}

// HalfTime returns the timing point as it would appear with the half time
// mod enabled
func (tp *TimingPoint) HalfTime() *TimingPoint {
	msPerBeat := tp.MSPerBeat
	if !tp.Inherited() {
		msPerBeat = 4 * msPerBeat / 3
	}
	var parent *TimingPoint
	if tp.Parent != nil {
		parent = tp.Parent.HalfTime()
	}
	return &TimingPoint{
		Offset:     4 * tp.Offset / 3,
		MSPerBeat:  msPerBeat,
		Meter:      tp.Meter,
		SampleType: tp.SampleType,
		SampleSet:  tp.SampleSet,
		Volume:     tp.Volume,
		Parent:     parent,
		KiaiMode:   tp.KiaiMode,
	}
}

// DoubleTime returns the timing point as it would appear with the double
// time mod enabled
func (tp *TimingPoint) DoubleTime() *TimingPoint {
	msPerBeat := tp.MSPerBeat
	if !tp.Inherited() {
		msPerBeat = 2 * msPerBeat / 3
	}
	var parent *TimingPoint
	if tp.Parent != nil {
		parent = tp.Parent.DoubleTime()
	}
	return &TimingPoint{
		Offset:     2 * tp.Offset / 3,
		MSPerBeat:  msPerBeat,
		Meter:      tp.Meter,
		SampleType: tp.SampleType,
		SampleSet:  tp.SampleSet,
		Volume:     tp.Volume,
		Parent:     parent,
		KiaiMode:   tp.KiaiMode,
	}
}

// String implements fmt.Stringer
func (tp *TimingPoint) String() string {
	inherited := ""
	if tp.Inherited() {
		inherited = "inherited "
	}
	return fmt.Sprintf("<TimingPoint: %s%gms>",
		inherited,
		float64(tp.Offset)/float64(time.Millisecond))
}

// parseTimingPoint parses a timing point from a line in a .osu file. parent
// is the last non-inherited timing point seen, used to resolve inherited
// points.
func parseTimingPoint(data string, parent *TimingPoint) (*TimingPoint, error) {
	fields := strings.Split(data, ",")
	if len(fields) < 2 {
		return nil, fmt.Errorf("failed to parse timing point from %q", data)
	}

	offsetFloat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("offset should be a float, got %q", fields[0])
	}
	offset := time.Duration(offsetFloat * float64(time.Millisecond))

	msPerBeat, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("ms_per_beat should be a float, got %q", fields[1])
	}

	meter, err := intField(fields, 2, 4)
	if err != nil {
		return nil, fmt.Errorf("meter should be an int, got %q", fields[2])
	}
	sampleType, err := intField(fields, 3, 0)
	if err != nil {
		return nil, fmt.Errorf("sample_type should be an int, got %q", fields[3])
	}
	sampleSet, err := intField(fields, 4, 0)
	if err != nil {
		return nil, fmt.Errorf("sample_set should be an int, got %q", fields[4])
	}
	volume, err := intField(fields, 5, 1)
	if err != nil {
		return nil, fmt.Errorf("volume should be an int, got %q", fields[5])
	}
	uninherited, err := intField(fields, 6, 1)
	if err != nil {
		return nil, fmt.Errorf("inherited should be a bool, got %q", fields[6])
	}
	kiai, err := intField(fields, 7, 0)
	if err != nil {
		return nil, fmt.Errorf("kiai_mode should be a bool, got %q", fields[7])
	}

	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}

	tp := &TimingPoint{
		Offset:     offset,
		MSPerBeat:  msPerBeat,
		Meter:      meter,
		SampleType: sampleType,
		SampleSet:  sampleSet,
		Volume:     volume,
		KiaiMode:   kiai != 0,
	}
	if uninherited == 0 {
		tp.Parent = parent
	}
	return tp, nil
}

// intField reads fields[ix] as an int, returning def when the field is
// absent
func intField(fields []string, ix, def int) (int, error) {
	if ix >= len(fields) {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(fields[ix]))
}
