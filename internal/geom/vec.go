package geom

import "math"

// Vec3 is a world-space point or direction. Y is up; the ground plane is x/z.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Len2D is the length projected on the ground plane.
func (v Vec3) Len2D() float64 {
	return math.Hypot(v.X, v.Z)
}

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

// Normalize2D returns the unit ground-plane direction of v, or the zero
// vector when v has no horizontal extent.
func (v Vec3) Normalize2D() Vec3 {
	l := v.Len2D()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Z: v.Z / l}
}

// Dot2D is the ground-plane dot product.
func (v Vec3) Dot2D(o Vec3) float64 {
	return v.X*o.X + v.Z*o.Z
}

// Dist2D returns the x/z distance between a and b.
func Dist2D(a, b Vec3) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}

// Forward is the unit facing direction for heading h.
// Heading 0 faces +Z.
func Forward(h float64) Vec3 {
	return Vec3{X: math.Sin(h), Z: math.Cos(h)}
}

// Right is the unit lateral direction for heading h.
func Right(h float64) Vec3 {
	return Vec3{X: math.Cos(h), Z: -math.Sin(h)}
}

// Heading returns the heading that faces along v.
func Heading(v Vec3) float64 {
	return math.Atan2(v.X, v.Z)
}
