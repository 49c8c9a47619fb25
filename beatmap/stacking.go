package beatmap

import (
	"time"

	"github.com/osukit/osukit/game"
)

// objects closer together than this many osu! pixels form a stack
const stackDistance = 3

func sliderEnd(s Slider) game.Position {
	return s.Curve().At(1)
}

func objectEndTime(ob HitObject) time.Duration {
	return ob.EndTime()
}

// resolveStacking shifts overlapping hit objects into a visible stack the way
// the game renders format versions 6 and up. The returned slice holds copies,
// the input objects are untouched.
func resolveStacking(hitObjects []HitObject, ar, cs, stackLeniency float64) []HitObject {
	stackThreshold := time.Duration(game.ARToMS(ar) * stackLeniency * float64(time.Millisecond))

	// walk the objects back to front
	rev := make([]HitObject, len(hitObjects))
	for i, ob := range hitObjects {
		rev[len(hitObjects)-1-i] = ob
	}
	stackHeight := make([]int, len(rev))

	for i := range rev {
		if stackHeight[i] != 0 {
			continue
		}
		if _, isSpinner := rev[i].(Spinner); isSpinner {
			continue
		}

		switch rev[i].(type) {
		case Circle:
			cur := i
			for n := i + 1; n < len(rev); n++ {
				obN := rev[n]
				if _, isSpinner := obN.(Spinner); isSpinner {
					continue
				}
				if rev[cur].Time()-objectEndTime(obN) > stackThreshold {
					break
				}

				if sliderN, ok := obN.(Slider); ok &&
					game.Distance(sliderEnd(sliderN), rev[cur].Position()) < stackDistance {
					// objects between the circle and this slider sit
					// below the slider end rather than above it
					offset := stackHeight[cur] - stackHeight[n] + 1
					for j := i; j < n; j++ {
						if game.Distance(sliderEnd(sliderN), rev[j].Position()) < stackDistance {
							stackHeight[j] -= offset
						}
					}
					// the slider itself still has a stack height of 0
					// and gets handled by the outer loop
					break
				}

				if game.Distance(obN.Position(), rev[cur].Position()) < stackDistance {
					stackHeight[n] = stackHeight[cur] + 1
					cur = n
				}
			}
		case Slider:
			// the first slider in a possible stack, everything from here
			// on stacks positive
			cur := i
			for n := i + 1; n < len(rev); n++ {
				obN := rev[n]
				if _, isSpinner := obN.(Spinner); isSpinner {
					continue
				}
				if rev[cur].Time()-obN.Time() > stackThreshold {
					break
				}

				endPosition := obN.Position()
				if sliderN, ok := obN.(Slider); ok {
					endPosition = sliderEnd(sliderN)
				}
				if game.Distance(endPosition, rev[cur].Position()) < stackDistance {
					stackHeight[n] = stackHeight[cur] + 1
					cur = n
				}
			}
		}
	}

	return applyStacking(hitObjects, reverseHeights(stackHeight), cs)
}

// resolveStackingOld is the stacking pass used by format versions 5 and
// below
func resolveStackingOld(hitObjects []HitObject, ar, cs, stackLeniency float64) []HitObject {
	stackThreshold := time.Duration(game.ARToMS(ar) * stackLeniency * float64(time.Millisecond))
	stackHeight := make([]int, len(hitObjects))

	for i, obI := range hitObjects {
		_, isSlider := obI.(Slider)
		if stackHeight[i] != 0 && !isSlider {
			continue
		}

		startTime := objectEndTime(obI)
		sliderStack := 0

		for j := i + 1; j < len(hitObjects); j++ {
			obJ := hitObjects[j]
			if obJ.Time()-stackThreshold > startTime {
				break
			}

			if game.Distance(obJ.Position(), obI.Position()) < stackDistance {
				stackHeight[i]++
				startTime = objectEndTime(obJ)
			} else if sliderI, ok := obI.(Slider); ok &&
				game.Distance(obJ.Position(), sliderEnd(sliderI)) < stackDistance {
				// notes stacked on a slider end bump down and right
				// instead of up and left
				sliderStack++
				stackHeight[j] -= sliderStack
				startTime = objectEndTime(obJ)
			}
		}
	}

	return applyStacking(hitObjects, stackHeight, cs)
}

func reverseHeights(heights []int) []int {
	out := make([]int, len(heights))
	for i, h := range heights {
		out[len(heights)-1-i] = h
	}
	return out
}

func applyStacking(hitObjects []HitObject, stackHeight []int, cs float64) []HitObject {
	stackOffset := game.CircleRadius(cs) / 10

	out := make([]HitObject, len(hitObjects))
	for i, ob := range hitObjects {
		offset := stackOffset * float64(stackHeight[i])
		p := ob.Position()
		out[i] = ob.withPosition(game.Position{X: p.X - offset, Y: p.Y - offset})
	}
	return out
}
