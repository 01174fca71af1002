package game

import (
	"fmt"
	"math"

	"github.com/solarlune/resolv"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

type RampClass uint8

const (
	RampNormal RampClass = iota
	RampMega
	RampTitan
)

func (c RampClass) String() string {
	switch c {
	case RampMega:
		return "mega"
	case RampTitan:
		return "titan"
	}
	return "normal"
}

func (c RampClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseRampDensity accepts the names used in settings payloads.
func ParseRampDensity(s string) (RampDensity, error) {
	d := RampDensity(s)
	if _, ok := densities[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRampDensity, s)
	}
	return d, nil
}

// Obstacle is an axis-aligned box standing on the ground. Size.Y is its
// height.
// Obstacle is a solid box. Size.Y is its height above the ground.
type Obstacle struct {
	Center geom.Vec3
	Size   geom.Vec3

	footprint *resolv.ConvexPolygon
}

type Ramp struct {
	Position geom.Vec3
	Class    RampClass
	Radius   float64
	Lift     float64
	Kick     float64
	Extra    bool
}

type BoostPad struct {
	Position geom.Vec3
	Radius   float64
	Extra    bool
}

// Arena is the static layout of one level.
type Arena struct {
	Obstacles []Obstacle
	Ramps     []Ramp
	Pads      []BoostPad
}

// Layout parameters
const (
	buildingGrid    = 20.0
	buildingExtent  = 90.0
	buildingClear   = 40.0
	buildingSkip    = 0.6
	barrierCount    = 6
	barrierSpread   = 120.0
	barrierClear    = 12.0
	featureSpacing  = 14.0
	featureMinR     = 14.0
	featureMaxR     = 86.0
	featureAttempts = 40

	titanChance = 0.10
	megaChance  = 0.25
)

var (
	extraRampPos = geom.Vec3{Z: 34}
	extraPadPos  = geom.Vec3{Z: 20}
)

// SamplePolar draws up to n points in the annulus [minR, maxR] around the
// origin, each at least spacing away from every point in taken and from
// each other. Placement gives up after attempts tries per point, so fewer
// than n points may come back.
func SamplePolar(rng *Rand, taken []geom.Vec3, n int, minR, maxR, spacing float64, attempts int) []geom.Vec3 {
	out := make([]geom.Vec3, 0, n)
	for i := 0; i < n; i++ {
		for try := 0; try < attempts; try++ {
			a := rng.Float64() * 2 * math.Pi
			r := rng.RangeF(minR, maxR)
			p := geom.Vec3{X: math.Sin(a) * r, Z: math.Cos(a) * r}
			if tooClose(p, taken, spacing) || tooClose(p, out, spacing) {
				continue
			}
			out = append(out, p)
			break
		}
	}
	return out
}

func tooClose(p geom.Vec3, pts []geom.Vec3, spacing float64) bool {
	for _, q := range pts {
		if geom.Dist2D(p, q) < spacing {
			return true
		}
	}
	return false
}

func rollRampClass(rng *Rand) RampClass {
	r := rng.Float64()
	switch {
	case r < titanChance:
		return RampTitan
	case r < titanChance+megaChance:
		return RampMega
	}
	return RampNormal
}

func newRamp(t *Tuning, pos geom.Vec3, class RampClass, extra bool) Ramp {
	spec := t.Class(class)
	return Ramp{
		Position: pos,
		Class:    class,
		Radius:   spec.Radius,
		Lift:     spec.Lift,
		Kick:     spec.Kick,
		Extra:    extra,
	}
}

// BuildArena generates a fresh layout for density. The same rng state
// always yields the same arena.
func BuildArena(rng *Rand, density RampDensity, t *Tuning) Arena {
	counts, ok := densities[density]
	if !ok {
		counts = densities[DensityNormal]
	}
	var a Arena

	for x := -buildingExtent; x <= buildingExtent; x += buildingGrid {
		for z := -buildingExtent; z <= buildingExtent; z += buildingGrid {
			if math.Abs(x) < buildingClear && math.Abs(z) < buildingClear {
				continue
			}
			if rng.Float64() < buildingSkip {
				continue
			}
			h := rng.RangeF(6, 24)
			a.Obstacles = append(a.Obstacles, Obstacle{
				Center: geom.Vec3{X: x + rng.RangeF(0, 4), Y: h / 2, Z: z + rng.RangeF(0, 4)},
				Size:   geom.Vec3{X: 10, Y: h, Z: 10},
			})
		}
	}

	for i := 0; i < barrierCount; i++ {
		var c geom.Vec3
		for {
			c = geom.Vec3{X: rng.Spread(barrierSpread), Z: rng.Spread(barrierSpread)}
			if c.Len2D() >= barrierClear {
				break
			}
		}
		c.Y = 1
		a.Obstacles = append(a.Obstacles, Obstacle{Center: c, Size: geom.Vec3{X: 8, Y: 2, Z: 3}})
	}

	rampPts := SamplePolar(rng, nil, counts.Ramps, featureMinR, featureMaxR, featureSpacing, featureAttempts)
	for _, p := range rampPts {
		a.Ramps = append(a.Ramps, newRamp(t, p, rollRampClass(rng), false))
	}
	padPts := SamplePolar(rng, rampPts, counts.Pads, featureMinR, featureMaxR, featureSpacing, featureAttempts)
	for _, p := range padPts {
		a.Pads = append(a.Pads, BoostPad{Position: p, Radius: PadRadius})
	}

	a.Ramps = append(a.Ramps, newRamp(t, extraRampPos, RampTitan, true))
	a.Pads = append(a.Pads, BoostPad{Position: extraPadPos, Radius: PadRadius, Extra: true})
	return a
}
