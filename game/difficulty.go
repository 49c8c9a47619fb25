package game

// HitWindows are the maximum deviations from a hit object's time, in
// milliseconds, that still award the given score value
type HitWindows struct {
	Hit300 float64
	Hit100 float64
	Hit50  float64
}

// CircleRadius converts a circle size value into the radius of the circle in
// osu! pixels
func CircleRadius(cs float64) float64 {
	return (PlayfieldWidth / 16) * (1 - 0.7*(cs-5)/5)
}

// ARToMS converts an approach rate value into the length of its approach
// window in milliseconds
func ARToMS(ar float64) float64 {
	if ar <= 5 {
		return 1800 - 120*ar
	}
	return 1200 - 150*(ar-5)
}

// MSToAR converts an approach window in milliseconds into an approach rate
// value
func MSToAR(ms float64) float64 {
	if ms >= 1200 {
		return (1800 - ms) / 120
	}
	return (1200-ms)/150 + 5
}

// ODToMS converts an overall difficulty value into its hit windows
func ODToMS(od float64) HitWindows {
	return HitWindows{
		Hit300: 79.5 - 6*od,
		Hit100: 139.5 - 8*od,
		Hit50:  199.5 - 10*od,
	}
}

// ODToMS300 converts an overall difficulty value into the size of the 300
// window in milliseconds
func ODToMS300(od float64) float64 {
	return 79.5 - 6*od
}

// MS300ToOD converts the size of the 300 window in milliseconds into an
// overall difficulty value
func MS300ToOD(ms float64) float64 {
	return (79.5 - ms) / 6
}

// Accuracy calculates osu!standard accuracy in the range [0, 1] from discrete
// hit counts
func Accuracy(count300, count100, count50, countMiss int) float64 {
	totalHits := count300 + count100 + count50 + countMiss
	if totalHits == 0 {
		return 0
	}
	pointsOfHits := float64(count300*300 + count100*100 + count50*50)
	return pointsOfHits / (float64(totalHits) * 300)
}
