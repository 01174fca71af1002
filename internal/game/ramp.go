package game

import (
	"math"

	"github.com/vladimirvolkov/pursuit/server/internal/fx"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

// substeps splits a frame so that fast vehicles never skip past a ramp.
func (m *Match) substeps(speed float64) int {
	rt := &m.tuning.Ramp
	n := int(math.Ceil(math.Abs(speed) / rt.SubstepSpeed))
	if n < rt.MinSubsteps {
		n = rt.MinSubsteps
	}
	if n > rt.MaxSubsteps {
		n = rt.MaxSubsteps
	}
	return n
}

// applyVerticalStep integrates gravity over substeps and checks ramps
// along the horizontal path the vehicle is about to travel. Horizontal
// position itself is advanced later by Integrate.
func (m *Match) applyVerticalStep(v *Vehicle, dt float64) {
	n := m.substeps(v.Speed)
	h := dt / float64(n)
	flat := v.Velocity.Flat()
	prev := v.Prev
	for k := 0; k < n; k++ {
		cur := v.Position.Add(flat.Scale(h * float64(k)))
		next := cur.Add(flat.Scale(h))

		v.VerticalVel += Gravity * h
		v.Position.Y += v.VerticalVel * h
		if v.Position.Y > 0 {
			v.Airtime += h
		} else {
			v.Position.Y = 0
			if v.VerticalVel < 0 {
				v.VerticalVel = 0
			}
			if v.Airtime > 0 {
				m.land(v)
			}
		}

		m.checkRamps(v, prev, cur, next)
		prev = cur
	}
}

func (m *Match) land(v *Vehicle) {
	air := v.Airtime
	v.Airtime = 0
	if v.IsBot {
		return
	}
	at := &m.tuning.Airtime
	held := math.Min(at.Cap, air)
	m.addScore(held * at.Score * m.run.Combo)
	m.run.Boost = math.Min(1, m.run.Boost+held*at.Boost)
	m.emit(Event{Type: EventLanding, Pos: v.Position, Value: air})
	m.spawnFx(fx.KindRampDust, v.Position, geom.Vec3{Y: 2}, 0.5)
}

// rampDistance is the closest approach of the frame path to a ramp center.
func rampDistance(center, prev, cur, next geom.Vec3) float64 {
	d := geom.Dist2D(center, prev)
	d = math.Min(d, geom.Dist2D(center, cur))
	d = math.Min(d, geom.Dist2D(center, next))
	d = math.Min(d, geom.PointSegmentDist2D(center, prev, cur))
	d = math.Min(d, geom.PointSegmentDist2D(center, cur, next))
	return d
}

func (m *Match) checkRamps(v *Vehicle, prev, cur, next geom.Vec3) {
	rt := &m.tuning.Ramp
	speed := math.Abs(v.Speed)
	if v.Position.Y > rt.GroundedThreshold || speed <= rt.MinSpeed {
		return
	}
	if m.clock-v.LastRampAt <= rt.Cooldown {
		return
	}
	margin := rt.Thickness + math.Min(rt.MarginCap, speed*rt.MarginFactor)
	for i := range m.arena.Ramps {
		r := &m.arena.Ramps[i]
		d := rampDistance(r.Position, prev, cur, next)
		if d < r.Radius+margin {
			m.launch(v, r, d)
			return
		}
	}
}

func (m *Match) launch(v *Vehicle, r *Ramp, d float64) {
	rt := &m.tuning.Ramp
	speed := math.Abs(v.Speed)
	proximity := 1 - geom.Clamp(d/r.Radius, 0, 1)
	scale := rt.PlayerLaunch
	if v.IsBot {
		scale = rt.BotLaunch
	}
	v.VerticalVel = (rt.BaseLift + speed*rt.SpeedFactor + proximity*r.Lift) * scale
	boosted := math.Max(speed, math.Min(v.MaxSpeed*rt.SpeedCap, speed+r.Kick))
	v.Speed = math.Copysign(boosted, v.Speed)
	v.LastRampAt = m.clock

	if !v.IsBot {
		score := (rt.BaseScore + rt.ProximityScore*proximity) * m.tuning.Class(r.Class).ScoreMult
		m.addScore(score)
		m.emit(Event{Type: EventRampLaunch, Pos: r.Position, Value: score})
	}
	m.trace(TraceRamp, RampTrace{
		Vehicle:   v.Name,
		Class:     r.Class,
		Distance:  d,
		Proximity: proximity,
		Lift:      v.VerticalVel,
	})
	m.spawnFx(fx.KindRampDust, r.Position, geom.Vec3{Y: 4}, 0.8)
}
