package game

import (
	"math"

	"github.com/solarlune/resolv"
)

// Ground shapes live on the x/z plane: resolv's X is world X and resolv's Y
// is world Z.

// groundCircle returns v's footprint moved to its current position.
func (v *Vehicle) groundCircle() *resolv.Circle {
	if v.body == nil {
		v.body = resolv.NewCircle(v.Position.X, v.Position.Z, CarRadius)
	} else {
		v.body.SetPosition(v.Position.X, v.Position.Z)
	}
	return v.body
}

// groundRect returns the box's footprint, built on first use.
func (o *Obstacle) groundRect() *resolv.ConvexPolygon {
	if o.footprint == nil {
		o.footprint = resolv.NewRectangle(o.Center.X-o.Size.X/2, o.Center.Z-o.Size.Z/2, o.Size.X, o.Size.Z)
	}
	return o.footprint
}

// touches reports whether v's footprint overlaps the box in x/z. resolv
// finds edge crossings, so a center already inside the box also counts.
func (o *Obstacle) touches(v *Vehicle) bool {
	if o.groundRect().Intersection(0, 0, v.groundCircle()) != nil {
		return true
	}
	return math.Abs(v.Position.X-o.Center.X) <= o.Size.X/2 &&
		math.Abs(v.Position.Z-o.Center.Z) <= o.Size.Z/2
}
