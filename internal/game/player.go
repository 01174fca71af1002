package game

import (
	"math"

	"github.com/vladimirvolkov/pursuit/server/internal/fx"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

// smoothSteer moves the steer filter toward raw with time constant tau.
func smoothSteer(cur, raw, tau, dt float64) float64 {
	return cur + (raw-cur)*(1-math.Exp(-dt/tau))
}

// updatePlayer applies one tick of input to the player car.
func (m *Match) updatePlayer(in Input, dt float64) {
	p := m.player
	r := &m.run

	raw := in.RawSteer()
	if m.settings.InvertSteer {
		raw = -raw
	}
	tau := SteerTauGrip
	if in.Drift {
		tau = SteerTauDrift
	}
	p.steer = smoothSteer(p.steer, raw, tau, dt)

	boosting := in.Boost && r.Boost > BoostGate

	accel := p.Accel
	if boosting {
		accel *= BoostAccelMultiplier
	}
	if in.Throttle {
		p.Speed += accel * dt
	}
	if in.Brake {
		p.Speed -= accel * BrakeFactor * dt
	}
	if !in.Throttle && !in.Brake {
		decel := CoastDecel * (0.4 + 0.6*speedRatio(p)) * dt
		if p.Speed > 0 {
			p.Speed = math.Max(0, p.Speed-decel)
		} else if p.Speed < 0 {
			p.Speed = math.Min(0, p.Speed+decel)
		}
	}
	mul := 1.0
	if boosting || p.surge > 0 {
		mul = BoostMultiplier
	}
	p.ClampSpeed(mul)

	grip, slip := p.NormalGrip, SlipGrip
	if in.Drift {
		grip, slip = p.DriftGrip, SlipDrift
	}
	p.Heading += p.steer * p.TurnRate * dt * (0.4 + speedRatio(p)) * p.Dir()
	p.MoveHeading = geom.LerpAngle(p.MoveHeading, p.Heading, math.Min(1, grip*dt))

	fwd := geom.Forward(p.MoveHeading)
	right := geom.Right(p.MoveHeading)
	p.Velocity = fwd.Scale(p.Speed).Sub(right.Scale(p.steer * p.Speed * slip))

	if boosting {
		r.Boost = math.Max(0, r.Boost-BoostDrain*dt)
	} else {
		r.Boost = math.Min(1, r.Boost+BoostRegen*dt)
	}
	if r.ShieldTimer > 0 {
		r.ShieldTimer = math.Max(0, r.ShieldTimer-dt)
		if r.ShieldTimer == 0 {
			r.Shield = 0
		}
	}
	if p.surge > 0 {
		p.surge = math.Max(0, p.surge-dt)
	}
	m.guard.Advance(dt)

	m.applyVerticalStep(p, dt)
	p.Integrate(dt)

	drifting := in.Drift && math.Abs(p.steer) > ComboSteerMin && math.Abs(p.Speed) > ComboSpeedMin
	if drifting {
		r.Combo = math.Min(ComboMax, r.Combo+ComboGrowth*dt)
		m.addScore(DriftScoreRate * r.Combo * dt)
		if p.Grounded() {
			m.spawnFx(fx.KindDriftSmoke, p.Position, right.Scale(-p.steer*2), 0.6)
		}
	} else {
		r.Combo = math.Max(1, r.Combo-ComboDecay*dt)
	}
	if boosting {
		m.addScore(BoostScoreRate * r.Combo * dt)
		m.spawnFx(fx.KindBoostFlame, p.Position, fwd.Scale(-6), 0.3)
	}
}

// addScore keeps the score non-negative.
func (m *Match) addScore(v float64) {
	m.run.Score = math.Max(0, m.run.Score+v)
}
