// Package model extracts numeric features from beatmaps and replays for
// difficulty and accuracy prediction models.
package model

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/game"
	"github.com/osukit/osukit/replay"
)

// coordinate axes
const (
	axisX = 0
	axisY = 1
	axisZ = 2
)

// angle indices
const (
	anglePitch = 0
	angleRoll  = 1
	angleYaw   = 2
)

// HitObjectCoordinates returns the position of each hit object in 3d space
// with time along the Z axis. Rows are the x, y and z coordinates. The z
// coordinate is scaled to keep the angles reasonable.
func HitObjectCoordinates(hitObjects []beatmap.HitObject, mods beatmap.ModCombo) [3][]float64 {
	var coords [3][]float64
	for i := range coords {
		coords[i] = make([]float64, len(hitObjects))
	}
	for i, ob := range hitObjects {
		coords[axisX][i] = ob.Position().X
		coords[axisY][i] = ob.Position().Y
		coords[axisZ][i] = ob.Time().Seconds() * 100
	}

	if mods.DoubleTime {
		floats.Scale(4.0/3, coords[axisZ])
	} else if mods.HalfTime {
		floats.Scale(2.0/3, coords[axisZ])
	}
	return coords
}

// HitObjectAngles computes the pitch, roll and yaw from each hit object to
// the next in 3d space with time along the Z axis. Rows are the pitch, roll
// and yaw in radians.
func HitObjectAngles(hitObjects []beatmap.HitObject, mods beatmap.ModCombo) [3][]float64 {
	coords := HitObjectCoordinates(hitObjects, mods)

	n := len(hitObjects) - 1
	if n < 0 {
		n = 0
	}
	var out [3][]float64
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		dx := coords[axisX][i+1] - coords[axisX][i]
		dy := coords[axisY][i+1] - coords[axisY][i]
		dz := coords[axisZ][i+1] - coords[axisZ][i]
		out[anglePitch][i] = math.Atan2(dy, dz)
		out[angleRoll][i] = math.Atan2(dy, dx)
		out[angleYaw][i] = math.Atan2(dz, dx)
	}
	return out
}

// CountHitObjects counts the circles, sliders and spinners among the hit
// objects
func CountHitObjects(hitObjects []beatmap.HitObject) (circles, sliders, spinners int) {
	for _, ob := range hitObjects {
		switch ob.(type) {
		case beatmap.Circle:
			circles++
		case beatmap.Slider:
			sliders++
		default:
			spinners++
		}
	}
	return circles, sliders, spinners
}

func boolFeature(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// ExtractFeatures computes the full feature set for a beatmap played with
// the given mods
func ExtractFeatures(b *beatmap.Beatmap, mods game.Mods) (map[string]float64, error) {
	combo := beatmap.ModComboFromMods(mods)
	hidden := mods.Has(game.ModHidden)
	flashlight := mods.Has(game.ModFlashlight)

	// only the magnitude of each angle matters
	angles := HitObjectAngles(
		b.HitObjects(beatmap.HitObjectsOptions{WithoutSpinners: true}),
		beatmap.ModCombo{HalfTime: combo.HalfTime, DoubleTime: combo.DoubleTime},
	)
	var meanAngles, medianAngles, maxAngles [3]float64
	for i := range angles {
		abs := make([]float64, len(angles[i]))
		for j, v := range angles[i] {
			abs[j] = math.Abs(v)
		}
		sort.Float64s(abs)
		if len(abs) > 0 {
			meanAngles[i] = stat.Mean(abs, nil)
			medianAngles[i] = stat.Quantile(0.5, stat.Empirical, abs, nil)
			maxAngles[i] = floats.Max(abs)
		}
	}

	circles, sliders, spinners := CountHitObjects(
		b.HitObjects(beatmap.HitObjectsOptions{}))

	bpmMods := beatmap.ModCombo{HalfTime: combo.HalfTime, DoubleTime: combo.DoubleTime}
	bpmMin, err := b.BPMMin(bpmMods)
	if err != nil {
		return nil, err
	}
	bpmMax, err := b.BPMMax(bpmMods)
	if err != nil {
		return nil, err
	}

	out := map[string]float64{
		"OD": b.OD(combo),
		"CS": b.CS(beatmap.ModCombo{Easy: combo.Easy, HardRock: combo.HardRock}),
		"AR": b.AR(combo),

		"easy":        boolFeature(combo.Easy),
		"hidden":      boolFeature(hidden),
		"hard-rock":   boolFeature(combo.HardRock),
		"double-time": boolFeature(combo.DoubleTime),
		"half-time":   boolFeature(combo.HalfTime),
		"flashlight":  boolFeature(flashlight),

		"bpm-min": bpmMin,
		"bpm-max": bpmMax,

		"circle-count":  float64(circles),
		"slider-count":  float64(sliders),
		"spinner-count": float64(spinners),

		"mean-pitch":   meanAngles[anglePitch],
		"mean-roll":    meanAngles[angleRoll],
		"mean-yaw":     meanAngles[angleYaw],
		"median-pitch": medianAngles[anglePitch],
		"median-roll":  medianAngles[angleRoll],
		"median-yaw":   medianAngles[angleYaw],
		"max-pitch":    maxAngles[anglePitch],
		"max-roll":     maxAngles[angleRoll],
		"max-yaw":      maxAngles[angleYaw],

		"speed-stars":        b.SpeedStars(combo),
		"aim-stars":          b.AimStars(combo),
		"rhythm-awkwardness": b.RhythmAwkwardness(combo),
	}

	for _, accuracy := range []float64{0.95, 0.96, 0.97, 0.98, 0.99, 1.00} {
		pp, err := b.PerformancePoints(beatmap.PerformanceParams{
			Accuracy: accuracy,
			Mods:     mods,
		})
		if err != nil {
			return nil, err
		}
		out[ppFeatureName(accuracy)] = pp
	}
	return out, nil
}

func ppFeatureName(accuracy float64) string {
	return "PP-" + strconvPercent(accuracy)
}

func strconvPercent(accuracy float64) string {
	switch accuracy {
	case 1.00:
		return "100%"
	case 0.99:
		return "99%"
	case 0.98:
		return "98%"
	case 0.97:
		return "97%"
	case 0.96:
		return "96%"
	default:
		return "95%"
	}
}

// BeatmapWithMods pairs a beatmap with the mods it was played with
type BeatmapWithMods struct {
	Beatmap *beatmap.Beatmap
	Mods    game.Mods
}

// FeatureNames returns the feature names in the column order used by
// ExtractFeatureArray
func FeatureNames() []string {
	names := make([]string, 0, len(featureOrder))
	return append(names, featureOrder...)
}

var featureOrder = func() []string {
	names := []string{
		"OD", "CS", "AR",
		"easy", "hidden", "hard-rock", "double-time", "half-time", "flashlight",
		"bpm-min", "bpm-max",
		"circle-count", "slider-count", "spinner-count",
		"mean-pitch", "mean-roll", "mean-yaw",
		"median-pitch", "median-roll", "median-yaw",
		"max-pitch", "max-roll", "max-yaw",
		"speed-stars", "aim-stars", "rhythm-awkwardness",
		"PP-95%", "PP-96%", "PP-97%", "PP-98%", "PP-99%", "PP-100%",
	}
	sort.Strings(names)
	return names
}()

// ExtractFeatureArray builds the feature matrix for a set of plays, one row
// per play with columns in FeatureNames order
func ExtractFeatureArray(plays []BeatmapWithMods) (*mat.Dense, error) {
	if len(plays) == 0 {
		return nil, nil
	}
	out := mat.NewDense(len(plays), len(featureOrder), nil)
	for i, play := range plays {
		features, err := ExtractFeatures(play.Beatmap, play.Mods)
		if err != nil {
			return nil, err
		}
		for j, name := range featureOrder {
			out.Set(i, j, features[name])
		}
	}
	return out, nil
}

var errNilBeatmapSource = errors.New("a beatmap source is required to resolve replays")

// skip plays whose mods do not reflect user skill
const unrepresentativeMods = game.ModAutoplay |
	game.ModSpunOut |
	game.ModAutoPilot |
	game.ModCinema |
	game.ModRelax

// ExtractFromReplayDirectory builds a labeled feature set from a directory
// of .osr files. The returned matrix holds one row per usable play and
// accuracies holds the accuracy achieved on each. maxAge of 0 keeps replays
// of any age.
func ExtractFromReplayDirectory(path string, source replay.BeatmapSource, maxAge time.Duration) (*mat.Dense, []float64, error) {
	if source == nil {
		return nil, nil, errNilBeatmapSource
	}
	replays, err := replay.FromDirectory(path, source)
	if err != nil {
		return nil, nil, err
	}

	var plays []BeatmapWithMods
	var accuracies []float64
	now := time.Now().UTC()

	for _, r := range replays {
		if r.Beatmap == nil {
			continue
		}
		if maxAge > 0 && now.Sub(r.Timestamp) > maxAge {
			continue
		}
		if r.Mods&unrepresentativeMods != 0 {
			continue
		}
		if len(r.Beatmap.HitObjects(beatmap.HitObjectsOptions{})) < 2 {
			continue
		}
		accuracy, err := r.Accuracy()
		if err != nil {
			return nil, nil, err
		}
		plays = append(plays, BeatmapWithMods{Beatmap: r.Beatmap, Mods: r.Mods})
		accuracies = append(accuracies, accuracy)
	}

	features, err := ExtractFeatureArray(plays)
	if err != nil {
		return nil, nil, err
	}
	if features == nil {
		return nil, accuracies, nil
	}

	// drop rows carrying non-finite values
	rows, cols := features.Dims()
	var keep []int
	for i := 0; i < rows; i++ {
		finite := true
		for j := 0; j < cols; j++ {
			v := features.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				finite = false
				break
			}
		}
		if finite {
			keep = append(keep, i)
		}
	}
	if len(keep) == rows {
		return features, accuracies, nil
	}

	filtered := mat.NewDense(len(keep), cols, nil)
	filteredAccuracies := make([]float64, len(keep))
	for outRow, i := range keep {
		filtered.SetRow(outRow, mat.Row(nil, i, features))
		filteredAccuracies[outRow] = accuracies[i]
	}
	return filtered, filteredAccuracies, nil
}
