package game

import (
	"math"

	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

// Role is a bot's pursuit strategy.
type Role uint8

const (
	RoleChase Role = iota
	RoleIntercept
	RoleLeftFlank
	RoleRightFlank
	RoleCutoff
	RolePressure
)

var roleNames = [...]string{"chase", "intercept", "left_flank", "right_flank", "cutoff", "pressure"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

var formation = [...]Role{RoleIntercept, RoleLeftFlank, RoleRightFlank, RoleCutoff, RolePressure}

// Bot AI tuning
const (
	teamworkThreshold = 0.35
	centroidPull      = 0.18

	predictRange   = 60.0
	predictMin     = 0.05
	predictMax     = 0.85
	leadDistance   = 3.0
	steerGain      = 2.0
	separationR    = 6.0
	separationGain = 0.8
	crowdPenalty   = 0.12
	crowdFloor     = 0.5

	throttleBase    = 0.55
	throttleRange   = 0.04
	throttleMin     = 0.2
	tooCloseFactor  = 0.6
	tooCloseCut     = 0.45
	botDecelFactor  = 1.5
	botSpeedCeiling = 1.25

	burstRange    = 10.0
	burstRate     = 1.6
	burstTime     = 0.9
	burstCooldown = 3.0
	burstMult     = 1.22
)

// RoleFor picks the formation slot for bot index i. Low teamwork collapses
// every bot to chase.
func RoleFor(i int, teamwork float64) Role {
	if teamwork < teamworkThreshold {
		return RoleChase
	}
	return formation[i%len(formation)]
}

func standoff(r Role) float64 {
	switch r {
	case RoleIntercept:
		return 2
	case RolePressure:
		return 4
	case RoleLeftFlank, RoleRightFlank:
		return 7
	case RoleCutoff:
		return 12
	}
	return 3
}

// predictTime grows with distance so close bots aim at where the player is.
func predictTime(dist, lead float64) float64 {
	return geom.Clamp(dist/predictRange*lead, predictMin, predictMax)
}

// aimPoint returns the role-adjusted target for a bot at dist from the
// player.
func (m *Match) aimPoint(role Role, dist float64, centroid geom.Vec3) geom.Vec3 {
	p := m.player
	lead := m.profile.LeadFactor
	tw := m.profile.Teamwork
	fwd := geom.Forward(p.Heading)
	right := geom.Right(p.Heading)

	pt := predictTime(dist, lead)
	predicted := p.Position.Add(p.Velocity.Scale(pt)).Add(fwd.Scale(leadDistance * lead))

	aim := predicted
	switch role {
	case RoleIntercept:
		aim = predicted.Add(fwd.Scale(6))
	case RoleLeftFlank:
		aim = predicted.Sub(right.Scale(8 + 10*tw))
	case RoleRightFlank:
		aim = predicted.Add(right.Scale(8 + 10*tw))
	case RoleCutoff:
		aim = predicted.Add(fwd.Scale(10 + math.Abs(p.Speed)*0.45))
	case RolePressure:
		aim = predicted.Add(fwd.Scale(2))
	}
	aim = aim.Add(centroid.Sub(aim).Scale(tw * centroidPull))
	aim.Y = 0
	return aim
}

// separation returns the lateral steer correction away from nearby bots
// and how many of them crowd this one.
func (m *Match) separation(self *Vehicle) (float64, int) {
	var push geom.Vec3
	crowd := 0
	for _, o := range m.bots {
		if o == self {
			continue
		}
		d := geom.Dist2D(self.Position, o.Position)
		if d == 0 || d >= separationR {
			continue
		}
		crowd++
		away := self.Position.Sub(o.Position).Normalize2D()
		push = push.Add(away.Scale((separationR - d) / separationR))
	}
	return push.Dot2D(geom.Right(self.Heading)) * separationGain, crowd
}

func (m *Match) centroid() geom.Vec3 {
	var c geom.Vec3
	if len(m.bots) == 0 {
		return c
	}
	for _, b := range m.bots {
		c = c.Add(b.Position)
	}
	return c.Scale(1 / float64(len(m.bots)))
}

// updateBots runs each bot to completion, including its hit check, before
// the next one. A hit that ends the run stops the loop.
func (m *Match) updateBots(dt float64) {
	c := m.centroid()
	for i, b := range m.bots {
		m.updateBot(i, b, c, dt)
		m.checkHit(b)
		if m.phase != PhaseRunning {
			return
		}
	}
}

func (m *Match) updateBot(i int, b *Vehicle, centroid geom.Vec3, dt float64) {
	prof := &m.profile
	b.Role = RoleFor(i, prof.Teamwork)

	dist := geom.Dist2D(b.Position, m.player.Position)
	aim := m.aimPoint(b.Role, dist, centroid)
	desired := geom.Heading(aim.Sub(b.Position))

	steer := geom.Clamp(geom.AngleDiff(b.Heading, desired)*prof.Skill*steerGain, -1, 1)
	sep, crowd := m.separation(b)
	steer = geom.Clamp(steer+sep, -1, 1)
	b.steer = steer

	b.Heading += steer * b.TurnRate * dt * prof.Reaction
	b.MoveHeading = geom.LerpAngle(b.MoveHeading, b.Heading, math.Min(1, b.NormalGrip*dt))

	want := standoff(b.Role)
	throttle := geom.Clamp(throttleBase+(dist-want)*throttleRange, throttleMin, 1)
	if dist < want*tooCloseFactor {
		throttle *= tooCloseCut
	}
	if crowd > 0 {
		throttle *= math.Max(crowdFloor, 1-crowdPenalty*float64(crowd))
	}

	if b.burstTimer > 0 {
		b.burstTimer = math.Max(0, b.burstTimer-dt)
	} else if b.burstCooldown > 0 {
		b.burstCooldown = math.Max(0, b.burstCooldown-dt)
	} else if dist > want+burstRange && m.rng.Float64() < m.level().SpawnRate*prof.Skill*burstRate*dt {
		b.burstTimer = burstTime
		b.burstCooldown = burstCooldown
		m.trace(TraceBot, BurstTrace{Bot: b.Name, Distance: dist})
	}
	burst := 1.0
	if b.burstTimer > 0 {
		burst = burstMult
	}

	target := (b.MaxSpeed + m.run.Heat*HeatBotSpeed) * m.botSpeedScale() * throttle * burst
	if b.Speed < target {
		b.Speed = math.Min(target, b.Speed+b.Accel*dt)
	} else {
		b.Speed = math.Max(target, b.Speed-b.Accel*botDecelFactor*dt)
	}
	b.ClampSpeed(botSpeedCeiling)
	b.Velocity = geom.Forward(b.MoveHeading).Scale(b.Speed)

	m.applyVerticalStep(b, dt)
	b.Integrate(dt)
}

// botSpeedScale is the global slow-pickup multiplier.
func (m *Match) botSpeedScale() float64 {
	if m.run.SlowTimer > 0 {
		return SlowScale
	}
	return 1
}
