package beatmap

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/osukit/osukit/game"
)

// strain indices
const (
	strainSpeed = 0
	strainAim   = 1
)

var (
	strainDecayBase     = [2]float64{0.3, 0.15}
	strainWeightScaling = [2]float64{1400, 26.25}
)

const (
	almostDiameter = 90.0
	streamSpacing  = 110.0
	singleSpacing  = 125.0

	circleSizeBufferThreshold = 30.0

	strainStep  = 400 * time.Millisecond
	decayWeight = 0.9

	starScalingFactor    = 0.0675
	extremeScalingFactor = 0.5
)

// difficultyHitObject accumulates the strain information of one hit object
// for the star calculation
type difficultyHitObject struct {
	hitObject  HitObject
	normalized game.Position
	strains    [2]float64
}

func newDifficultyHitObject(ob HitObject, radius float64, previous *difficultyHitObject) *difficultyHitObject {
	scalingFactor := 52 / radius
	if radius < circleSizeBufferThreshold {
		scalingFactor *= 1 + math.Min(circleSizeBufferThreshold-radius, 5)/50
	}

	d := &difficultyHitObject{
		hitObject: ob,
		// slider length is not factored into the travelled distance
		normalized: game.Position{
			X: ob.Position().X * scalingFactor,
			Y: ob.Position().Y * scalingFactor,
		},
	}
	if previous != nil {
		d.strains = [2]float64{
			d.calculateStrain(previous, strainSpeed),
			d.calculateStrain(previous, strainAim),
		}
	}
	return d
}

func (d *difficultyHitObject) calculateStrain(previous *difficultyHitObject, strain int) float64 {
	var result float64
	switch d.hitObject.(type) {
	case Circle, Slider:
		distance := game.Distance(d.normalized, previous.normalized)
		result = spacingWeight(distance, strain) * strainWeightScaling[strain]
	}

	elapsed := float64(d.hitObject.Time()-previous.hitObject.Time()) /
		float64(time.Millisecond)
	result /= math.Max(elapsed, 50)
	decay := math.Pow(strainDecayBase[strain], elapsed/1000)
	return previous.strains[strain]*decay + result
}

func spacingWeight(distance float64, strain int) float64 {
	if strain != strainSpeed {
		return math.Pow(distance, 0.99)
	}
	switch {
	case distance > singleSpacing:
		return 2.5
	case distance > streamSpacing:
		return 1.6 + 0.9*(distance-streamSpacing)/(singleSpacing-streamSpacing)
	case distance > almostDiameter:
		return 1.2 + 0.4*(distance-almostDiameter)/(streamSpacing-almostDiameter)
	case distance > almostDiameter/2:
		return 0.95 + 0.25*(distance-almostDiameter/2)/(almostDiameter/2)
	}
	return 0.95
}

// baseStrain scales a star component back up into the strain domain for the
// performance points formula
func baseStrain(strain float64) float64 {
	return math.Pow(5*math.Max(1, strain/0.0675)-4, 3) / 100000
}

func calculateDifficulty(strain int, objects []*difficultyHitObject) float64 {
	var highestStrains []float64
	intervalEnd := strainStep
	maxStrain := 0.0

	var previous *difficultyHitObject
	for _, d := range objects {
		for d.hitObject.Time() > intervalEnd {
			highestStrains = append(highestStrains, maxStrain)
			if previous == nil {
				maxStrain = 0
			} else {
				decay := math.Pow(strainDecayBase[strain],
					float64(intervalEnd-previous.hitObject.Time())/float64(time.Second))
				maxStrain = previous.strains[strain] * decay
			}
			intervalEnd += strainStep
		}
		maxStrain = math.Max(maxStrain, d.strains[strain])
		previous = d
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(highestStrains)))

	difficulty := 0.0
	weight := 1.0
	for _, s := range highestStrains {
		difficulty += weight * s
		weight *= decayWeight
	}
	return difficulty
}

// awkwardness of the interval ratios within a group of up to five
// consecutive intervals
func handleGroup(group []float64) (sum float64, count int) {
	for n := 0; n < len(group); n++ {
		for m := 1; m < len(group); m++ {
			if n == m {
				continue
			}
			a, b := group[n], group[m]
			ratio := a / b
			if b > a {
				ratio = b / a
			}
			closestPowerOfTwo := math.Pow(2, math.Round(math.Log2(ratio)))
			offset := math.Abs(closestPowerOfTwo-ratio) / closestPowerOfTwo
			sum += offset * offset
			count++
		}
	}
	return sum, count
}

func (b *Beatmap) calculateStars(mods ModCombo) starValues {
	cs := b.CS(ModCombo{Easy: mods.Easy, HardRock: mods.HardRock})
	radius := game.CircleRadius(cs)

	objects := make([]*difficultyHitObject, 0, len(b.hitObjects))
	intervals := make([]float64, 0, len(b.hitObjects))

	var previous *difficultyHitObject
	for _, ob := range b.hitObjects {
		if mods.DoubleTime {
			ob = ob.DoubleTime()
		} else if mods.HalfTime {
			ob = ob.HalfTime()
		}
		d := newDifficultyHitObject(ob, radius, previous)
		if previous != nil {
			intervals = append(intervals,
				float64(d.hitObject.Time()-previous.hitObject.Time())/
					float64(time.Millisecond))
		}
		objects = append(objects, d)
		previous = d
	}

	// intervals longer than this split rhythm groups
	const breakThresholdMS = 1200

	var group []float64
	countOffsets := 0
	rhythmAwkwardness := 0.0

	flush := func() {
		sum, count := handleGroup(group)
		rhythmAwkwardness += sum
		countOffsets += count
		group = group[:0]
	}

	for _, interval := range intervals {
		isBreak := interval >= breakThresholdMS
		if !isBreak {
			group = append(group, interval)
		}
		if isBreak || len(group) == 5 {
			flush()
		}
	}
	flush()

	if countOffsets > 0 {
		rhythmAwkwardness /= float64(countOffsets)
	}
	rhythmAwkwardness *= 82

	aim := math.Sqrt(calculateDifficulty(strainAim, objects)) * starScalingFactor
	speed := math.Sqrt(calculateDifficulty(strainSpeed, objects)) * starScalingFactor

	return starValues{
		aim:               aim,
		speed:             speed,
		stars:             aim + speed + math.Abs(speed-aim)*extremeScalingFactor,
		rhythmAwkwardness: rhythmAwkwardness,
	}
}

func (b *Beatmap) starsFor(mods ModCombo) starValues {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.starsCache[mods]; ok {
		return v
	}
	v := b.calculateStars(mods)
	b.starsCache[mods] = v
	return v
}

// Stars returns the star rating as seen in game
func (b *Beatmap) Stars(mods ModCombo) float64 { return b.starsFor(mods).stars }

// AimStars returns the aim component of the star rating
func (b *Beatmap) AimStars(mods ModCombo) float64 { return b.starsFor(mods).aim }

// SpeedStars returns the speed component of the star rating
func (b *Beatmap) SpeedStars(mods ModCombo) float64 { return b.starsFor(mods).speed }

// RhythmAwkwardness scores how far the map's note intervals stray from
// powers of two of each other
func (b *Beatmap) RhythmAwkwardness(mods ModCombo) float64 {
	return b.starsFor(mods).rhythmAwkwardness
}

// HitObjectDifficulty computes the speed and aim strain of every hit object
// past the first. The returned slices are aligned: strain i belongs to the
// object at times[i], with the speed strain in column 0 and the aim strain
// in column 1.
func (b *Beatmap) HitObjectDifficulty(mods ModCombo) (times []time.Duration, strains [][2]float64) {
	if len(b.hitObjects) < 2 {
		return nil, nil
	}

	cs := b.CS(ModCombo{Easy: mods.Easy, HardRock: mods.HardRock})
	radius := game.CircleRadius(cs)

	modify := func(ob HitObject) HitObject { return ob }
	if mods.DoubleTime {
		modify = HitObject.DoubleTime
	} else if mods.HalfTime {
		modify = HitObject.HalfTime
	}

	times = make([]time.Duration, 0, len(b.hitObjects)-1)
	strains = make([][2]float64, 0, len(b.hitObjects)-1)

	previous := newDifficultyHitObject(modify(b.hitObjects[0]), radius, nil)
	for _, ob := range b.hitObjects[1:] {
		d := newDifficultyHitObject(modify(ob), radius, previous)
		times = append(times, d.hitObject.Time())
		strains = append(strains, d.strains)
		previous = d
	}
	return times, strains
}

// SmoothedDifficulty samples a moving average of the per object strains at
// numPoints evenly spaced times between the first and last hit object.
// window is the length of the leading and trailing average window. Useful
// for building a difficulty curve, the raw values vary a lot locally.
func (b *Beatmap) SmoothedDifficulty(window time.Duration, numPoints int, mods ModCombo) (times []time.Duration, averages [][2]float64) {
	rawTimes, rawStrains := b.HitObjectDifficulty(mods)
	if len(rawTimes) == 0 || numPoints < 1 {
		return nil, nil
	}

	sampleTimes := make([]float64, numPoints)
	floats.Span(sampleTimes,
		float64(rawTimes[0]), float64(rawTimes[len(rawTimes)-1]))

	times = make([]time.Duration, numPoints)
	averages = make([][2]float64, numPoints)

	for i, at := range sampleTimes {
		times[i] = time.Duration(at)
		lo := searchDurations(rawTimes, time.Duration(at)-window)
		hi := searchDurations(rawTimes, time.Duration(at)+window)

		var sum [2]float64
		for _, s := range rawStrains[lo:hi] {
			sum[0] += s[0]
			sum[1] += s[1]
		}
		n := float64(hi - lo)
		if n == 0 {
			n = 1
		}
		averages[i] = [2]float64{sum[0] / n, sum[1] / n}
	}
	return times, averages
}

func searchDurations(times []time.Duration, t time.Duration) int {
	return sort.Search(len(times), func(i int) bool { return times[i] >= t })
}
