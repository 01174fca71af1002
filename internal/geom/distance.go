package geom

import "math"

// PointSegmentDist2D returns the minimum x/z distance from p to segment ab.
// A zero-length segment degrades to the point distance.
func PointSegmentDist2D(p, a, b Vec3) float64 {
	abx := b.X - a.X
	abz := b.Z - a.Z
	len2 := abx*abx + abz*abz
	if len2 == 0 {
		return Dist2D(p, a)
	}
	t := ((p.X-a.X)*abx + (p.Z-a.Z)*abz) / len2
	t = Clamp(t, 0, 1)
	cx := a.X + abx*t
	cz := a.Z + abz*t
	return math.Hypot(p.X-cx, p.Z-cz)
}

// SegmentSegmentDist2D returns the minimum x/z distance between segments
// a0a1 and b0b1. Crossing segments are at distance zero.
func SegmentSegmentDist2D(a0, a1, b0, b1 Vec3) float64 {
	if segmentsCross2D(a0, a1, b0, b1) {
		return 0
	}
	d := PointSegmentDist2D(a0, b0, b1)
	d = math.Min(d, PointSegmentDist2D(a1, b0, b1))
	d = math.Min(d, PointSegmentDist2D(b0, a0, a1))
	d = math.Min(d, PointSegmentDist2D(b1, a0, a1))
	return d
}

// cross2D is the z-up cross product of (b-a) and (c-a) on the ground plane.
func cross2D(a, b, c Vec3) float64 {
	return (b.X-a.X)*(c.Z-a.Z) - (b.Z-a.Z)*(c.X-a.X)
}

func segmentsCross2D(a0, a1, b0, b1 Vec3) bool {
	d1 := cross2D(b0, b1, a0)
	d2 := cross2D(b0, b1, a1)
	d3 := cross2D(a0, a1, b0)
	d4 := cross2D(a0, a1, b1)
	// Collinear or touching cases are left to the endpoint distances.
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
