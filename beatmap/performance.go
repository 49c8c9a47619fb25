package beatmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/osukit/osukit/game"
)

var (
	// ErrBadHitCounts is returned when explicit hit counts do not sum to
	// the number of hit objects in the map
	ErrBadHitCounts = errors.New("hit counts don't sum to the total for the map")
	// ErrUnknownPPVersion is returned for a performance points version
	// other than 1 or 2
	ErrUnknownPPVersion = errors.New("unknown performance points version")
)

// PerformanceParams describe a play for the performance points calculation.
// The zero value scores a full combo SS with no mods under the version 1
// formula.
type PerformanceParams struct {
	// Combo achieved; 0 selects the map's max combo
	Combo int
	// Accuracy of the play in the range [0, 1]; values outside the range
	// select 100%. Ignored when UseHitCounts is set.
	Accuracy float64
	// UseHitCounts scores from the explicit hit counts below instead of
	// rounding Accuracy into counts
	UseHitCounts bool
	// Count300 is the number of 300s hit
	Count300 int
	// Count100 is the number of 100s hit
	Count100 int
	// Count50 is the number of 50s hit
	Count50 int
	// CountMiss is the number of misses
	CountMiss int
	// Mods enabled for the play
	Mods game.Mods
	// Version of the formula, 1 or 2; 0 selects version 1
	Version int
}

// roundHitCounts finds the hit counts closest to the given accuracy with the
// given number of misses fixed
func (b *Beatmap) roundHitCounts(accuracy float64, countMiss int) (count300, count100, count50 int) {
	n := len(b.hitObjects)
	max300 := n - countMiss

	bestPossible := game.Accuracy(max300, 0, 0, countMiss) * 100
	accuracy = math.Max(0, math.Min(bestPossible, accuracy*100))

	count100 = int(math.Round(-3 * ((accuracy*0.01-1)*float64(n) + float64(countMiss)) * 0.5))
	if count100 > max300 {
		count100 = 0
		count50 = int(math.Round(-6 * ((accuracy*0.01-1)*float64(n) + float64(countMiss)) * 0.2))
		if count50 > max300 {
			count50 = max300
		}
	}

	count300 = n - count100 - count50 - countMiss
	return count300, count100, count50
}

// PerformancePoints computes the performance points awarded for a play
// described by params
func (b *Beatmap) PerformancePoints(params PerformanceParams) (float64, error) {
	version := params.Version
	if version == 0 {
		version = 1
	}
	if version != 1 && version != 2 {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPPVersion, version)
	}

	maxCombo := b.MaxCombo()
	combo := params.Combo
	if combo == 0 {
		combo = maxCombo
	}

	count300 := params.Count300
	count100 := params.Count100
	count50 := params.Count50
	countMiss := params.CountMiss
	if !params.UseHitCounts {
		accuracy := params.Accuracy
		if accuracy <= 0 || accuracy > 1 {
			accuracy = 1
		}
		count300, count100, count50 = b.roundHitCounts(accuracy, countMiss)
	} else if count300+count100+count50+countMiss != len(b.hitObjects) {
		return 0, fmt.Errorf("%w: %d != %d", ErrBadHitCounts,
			count300+count100+count50+countMiss, len(b.hitObjects))
	}

	mods := ModComboFromMods(params.Mods)
	hidden := params.Mods.Has(game.ModHidden)
	flashlight := params.Mods.Has(game.ModFlashlight)

	od := b.OD(mods)
	ar := b.AR(mods)

	accuracyScaled := game.Accuracy(count300, count100, count50, countMiss)
	accuracyBonus := 0.5 + accuracyScaled/2

	countHitObjects := len(b.hitObjects)
	over2000 := float64(countHitObjects) / 2000
	lengthBonus := 0.95 + 0.4*math.Min(1, over2000)
	if countHitObjects > 2000 {
		lengthBonus += math.Log10(over2000) * 0.5
	}

	missPenalty := math.Pow(0.97, float64(countMiss))
	comboBreakPenalty := math.Pow(float64(combo), 0.8) / math.Pow(float64(maxCombo), 0.8)

	arBonus := 1.0
	if ar > 10.33 {
		arBonus += 0.45 * (ar - 10.33)
	} else if ar < 8 {
		lowARBonus := 0.01 * (8 - ar)
		if hidden {
			lowARBonus *= 2
		}
		arBonus += lowARBonus
	}

	hiddenBonus := 1.0
	if hidden {
		hiddenBonus = 1.18
	}
	flashlightBonus := 1.0
	if flashlight {
		flashlightBonus = 1.45 * lengthBonus
	}
	odBonus := 0.98 + od*od/2500

	aimScore := baseStrain(b.AimStars(mods)) *
		lengthBonus *
		missPenalty *
		comboBreakPenalty *
		arBonus *
		accuracyBonus *
		hiddenBonus *
		flashlightBonus *
		odBonus

	speedScore := baseStrain(b.SpeedStars(mods)) *
		lengthBonus *
		missPenalty *
		comboBreakPenalty *
		accuracyBonus *
		odBonus

	var countCircles int
	var realAccuracy float64
	if version == 2 {
		countCircles = countHitObjects
		realAccuracy = accuracyScaled
	} else {
		for _, ob := range b.hitObjects {
			if _, ok := ob.(Circle); ok {
				countCircles++
			}
		}
		if countCircles > 0 {
			realAccuracy = (float64(count300-(countHitObjects-countCircles))*300 +
				float64(count100)*100 +
				float64(count50)*50) /
				(float64(countCircles) * 300)
			realAccuracy = math.Max(realAccuracy, 0)
		}
	}

	accuracyLengthBonus := math.Min(1.5, math.Pow(float64(countCircles)/1000, 0.3))
	accuracyHiddenBonus := 1.0
	if hidden {
		accuracyHiddenBonus = 1.02
	}
	accuracyFlashlightBonus := 1.0
	if flashlight {
		accuracyFlashlightBonus = 1.02
	}
	accuracyScore := math.Pow(1.52163, od) *
		math.Pow(realAccuracy, 24) * 2.83 *
		accuracyLengthBonus *
		accuracyHiddenBonus *
		accuracyFlashlightBonus

	finalMultiplier := 1.12
	if params.Mods.Has(game.ModNoFail) {
		finalMultiplier *= 0.9
	}
	if params.Mods.Has(game.ModSpunOut) {
		finalMultiplier *= 0.95
	}

	return math.Pow(
		math.Pow(aimScore, 1.1)+
			math.Pow(speedScore, 1.1)+
			math.Pow(accuracyScore, 1.1),
		1/1.1,
	) * finalMultiplier, nil
}
