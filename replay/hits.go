package replay

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/osukit/osukit/beatmap"
	"github.com/osukit/osukit/game"
)

// Hits sorts a beatmap's hit objects by how they were scored in a replay.
// Every object lands in exactly one of the score buckets except sliders,
// which may additionally appear in SliderBreaks.
type Hits struct {
	Hit300s      []beatmap.HitObject
	Hit100s      []beatmap.HitObject
	Hit50s       []beatmap.HitObject
	Misses       []beatmap.HitObject
	SliderBreaks []beatmap.HitObject
}

// Hits judges each of the beatmap's hit objects against the recorded
// actions. Slider judgements are approximate and spinners are always scored
// as 300s.
func (r *Replay) Hits() (*Hits, error) {
	if r.Beatmap == nil {
		return nil, errors.New("replay has no beatmap to judge against")
	}
	if len(r.Actions) == 0 {
		return nil, errors.New("replay has no actions")
	}

	mods := beatmap.ModCombo{
		Easy:     r.Mods.Has(game.ModEasy),
		HardRock: r.Mods.Has(game.ModHardRock),
	}
	hw := game.ODToMS(r.Beatmap.OD(mods))
	radius := game.CircleRadius(r.Beatmap.CS(mods))
	hit50Threshold := time.Duration(hw.Hit50 * float64(time.Millisecond))

	actions := r.Actions
	scores := &Hits{}

	i := 0
	for _, ob := range r.Beatmap.HitObjects(beatmap.HitObjectsOptions{}) {
		if mods.HardRock {
			ob = ob.HardRock()
		}
		if _, isSpinner := ob.(beatmap.Spinner); isSpinner {
			scores.Hit300s = append(scores.Hit300s, ob)
			continue
		}

		// skip ahead to the start of the object's hit window
		for i < len(actions) && actions[i].Offset < ob.Time()-hit50Threshold {
			i++
		}
		starti := i

		hit := false
		for i < len(actions) && actions[i].Offset < ob.Time()+hit50Threshold {
			newPress := i > 0 &&
				((actions[i].Key1 && !actions[i-1].Key1) ||
					(actions[i].Key2 && !actions[i-1].Key2))
			if newPress && game.Within(actions[i].Position, ob.Position(), radius) {
				hit = true
				switch obj := ob.(type) {
				case beatmap.Circle:
					processCircle(obj, actions[i], hw, scores)
				case beatmap.Slider:
					// the head was hit, follow the body
					starti = i
					for i < len(actions) && actions[i].Offset <= obj.EndTime() {
						i++
					}
					processSlider(obj, sliceActions(actions, starti, i+1), true, radius, scores)
				}
				break
			}
			i++
		}
		if !hit {
			// nothing in the hit window was in the right place
			if slider, isSlider := ob.(beatmap.Slider); isSlider {
				// slider ticks might still be hit
				for i < len(actions) && actions[i].Offset <= slider.EndTime() {
					i++
				}
				processSlider(slider, sliceActions(actions, starti, i+1), false, radius, scores)
			} else {
				scores.Misses = append(scores.Misses, ob)
			}
		}
		i++
	}
	return scores, nil
}

func sliceActions(actions []Action, lo, hi int) []Action {
	if hi > len(actions) {
		hi = len(actions)
	}
	if lo > hi {
		lo = hi
	}
	return actions[lo:hi]
}

func processCircle(ob beatmap.Circle, action Action, hw game.HitWindows, scores *Hits) {
	outBy := action.Offset - ob.Time()
	if outBy < 0 {
		outBy = -outBy
	}
	switch {
	case outBy < time.Duration(hw.Hit300*float64(time.Millisecond)):
		scores.Hit300s = append(scores.Hit300s, ob)
	case outBy < time.Duration(hw.Hit100*float64(time.Millisecond)):
		scores.Hit100s = append(scores.Hit100s, ob)
	default:
		// must be inside the 50 window or we wouldn't be here
		scores.Hit50s = append(scores.Hit50s, ob)
	}
}

// processSlider tracks the follow state over the slider's duration. tChanges
// records the curve fractions where the player entered or left the follow
// circle, alternating on and off.
func processSlider(ob beatmap.Slider, actions []Action, headHit bool, radius float64, scores *Hits) {
	var tChanges []float64
	duration := ob.EndTime() - ob.Time()
	if duration <= 0 || len(actions) == 0 {
		if !headHit {
			scores.Misses = append(scores.Misses, ob)
		} else {
			scores.Hit300s = append(scores.Hit300s, ob)
		}
		return
	}

	sliderBroke := false
	on := headHit
	if headHit {
		tChanges = append(tChanges,
			float64(actions[0].Offset-ob.Time())/float64(duration))
	} else {
		scores.SliderBreaks = append(scores.SliderBreaks, ob)
		sliderBroke = true
	}

	for _, action := range actions {
		t := float64(action.Offset-ob.Time()) / float64(duration)
		if t < 0 || t > 1 {
			continue
		}
		nearest := ob.Curve().At(t)
		if on && !(action.Pressed() && game.Within(nearest, action.Position, radius*3)) {
			tChanges = append(tChanges, t)
			on = false
		} else if !on && action.Pressed() && game.Within(nearest, action.Position, radius) {
			tChanges = append(tChanges, t)
			on = true
		}
	}

	var tickTs []float64
	for t := ob.TickRate(); t < ob.NumBeats(); t += ob.TickRate() {
		tickTs = append(tickTs, t)
	}

	missedPoints := 0
	if !headHit {
		missedPoints = 1
	}
	for ti, tick := range tickTs {
		bi := sort.SearchFloat64s(tChanges, tick)
		if bi%2 != 0 {
			continue
		}
		// the follow circle was off at this tick
		if ti == len(tickTs)-1 {
			if len(tChanges) > 0 && len(tChanges) == bi &&
				tick-tChanges[len(tChanges)-1] < 0.1 &&
				tChanges[len(tChanges)-1]-tick < 0.1 {
				// held close enough to the last tick
				continue
			}
			// the end tick never causes a slider break
		} else if !sliderBroke {
			scores.SliderBreaks = append(scores.SliderBreaks, ob)
			sliderBroke = true
		}
		missedPoints++
	}

	switch {
	case missedPoints == ob.Ticks():
		// every tick and the head missed
		scores.Misses = append(scores.Misses, ob)
	case float64(missedPoints) > float64(ob.Ticks())/2:
		scores.Hit50s = append(scores.Hit50s, ob)
	case missedPoints > 0:
		scores.Hit100s = append(scores.Hit100s, ob)
	default:
		scores.Hit300s = append(scores.Hit300s, ob)
	}
}
