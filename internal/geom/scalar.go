package geom

import "math"

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AngleDiff returns the signed shortest rotation from a to b in (-π, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// LerpAngle moves a toward b along the shortest arc by fraction t.
func LerpAngle(a, b, t float64) float64 {
	return a + AngleDiff(a, b)*t
}
