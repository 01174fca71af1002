package game

import (
	"math"

	"github.com/vladimirvolkov/pursuit/server/internal/fx"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

// HitClass is the outcome of the bot-vs-player overlap test.
type HitClass uint8

const (
	HitNone HitClass = iota
	HitVerticalMiss
	HitContact
)

func (c HitClass) String() string {
	switch c {
	case HitVerticalMiss:
		return "vertical_miss"
	case HitContact:
		return "contact"
	}
	return "none"
}

// classifyHit tests the current positions and both swept frame paths.
// Horizontal overlap without vertical overlap is reported as a miss so it
// can be traced.
func classifyHit(p, b *Vehicle, t HitTuning) (HitClass, float64) {
	d := geom.Dist2D(p.Position, b.Position)
	d = math.Min(d, geom.SegmentSegmentDist2D(p.Prev, p.Position, b.Prev, b.Position))
	if d > t.Radius {
		return HitNone, d
	}
	if math.Abs(p.Position.Y-b.Position.Y) > t.VerticalTolerance {
		return HitVerticalMiss, d
	}
	return HitContact, d
}

// HitGuard suppresses duplicate hits. All three windows must be clear for
// a hit to be accepted.
type HitGuard struct {
	Invincible float64
	LastHitAt  float64
	SafeFrames int
}

func NewHitGuard() HitGuard {
	return HitGuard{LastHitAt: longAgo}
}

// Advance counts the invincibility window down by dt and the safe frames
// down by one tick.
func (g *HitGuard) Advance(dt float64) {
	g.Invincible = math.Max(0, g.Invincible-dt)
	if g.SafeFrames > 0 {
		g.SafeFrames--
	}
}

func (g *HitGuard) Ready(now, cooldown float64) bool {
	return g.Invincible <= 0 && now-g.LastHitAt > cooldown && g.SafeFrames == 0
}

func (g *HitGuard) Arm(now float64, t HitTuning) {
	g.LastHitAt = now
	g.Invincible = t.Invincibility
	g.SafeFrames = t.SafeFrames
}

func (g *HitGuard) reason(now, cooldown float64) string {
	switch {
	case g.Invincible > 0:
		return "invincible"
	case now-g.LastHitAt <= cooldown:
		return "cooldown"
	case g.SafeFrames > 0:
		return "safe_frames"
	}
	return ""
}

func (m *Match) checkHit(b *Vehicle) {
	class, d := classifyHit(m.player, b, m.tuning.Hit)
	switch class {
	case HitVerticalMiss:
		m.trace(TraceHit, HitTrace{Bot: b.Name, Class: class, Distance: d, Reason: "vertical"})
	case HitContact:
		m.resolveHit(b, d)
	}
}

func (m *Match) resolveHit(b *Vehicle, d float64) {
	ht := m.tuning.Hit
	if !m.guard.Ready(m.clock, ht.Cooldown) {
		m.trace(TraceHit, HitTrace{
			Bot: b.Name, Class: HitContact, Distance: d,
			Reason: m.guard.reason(m.clock, ht.Cooldown),
		})
		return
	}
	m.guard.Arm(m.clock, ht)
	b.Speed *= ht.BotSlowdown
	m.trace(TraceHit, HitTrace{Bot: b.Name, Class: HitContact, Distance: d, Accepted: true})
	m.spawnFx(fx.KindHitSpark, m.player.Position, geom.Vec3{Y: 3}, 0.4)

	r := &m.run
	if r.Shield > ShieldAbsorbThreshold {
		r.Shield = math.Max(0, r.Shield-ShieldAbsorb)
		m.emit(Event{Type: EventShieldAbsorbed, Pos: m.player.Position, Value: r.Shield})
	} else {
		m.loseLife()
	}
	m.resync()
}

func (m *Match) loseLife() {
	r := &m.run
	r.Lives = max(0, r.Lives-1)
	r.Score = math.Max(0, r.Score-LifePenalty)
	m.player.ResetTo(m.spawn)
	m.emit(lifeLostEvent(r.Lives, m.spawn))
	if r.Lives == 0 {
		m.phase = PhaseGameOver
		m.emit(gameOverEvent())
	}
}

// resync clears the swept paths of the player and of bots close to it so
// the next frame does not sweep across the reset.
func (m *Match) resync() {
	p := m.player
	p.Prev = p.Position
	for _, b := range m.bots {
		if geom.Dist2D(b.Position, p.Position) < m.tuning.Hit.ResyncRadius {
			b.Prev = b.Position
		}
	}
}

// resolveObstacles pushes v out of every box it overlaps and then clamps
// it to the world bounds. Vehicles flying above a box pass over it.
func (m *Match) resolveObstacles(v *Vehicle) {
	for i := range m.arena.Obstacles {
		o := &m.arena.Obstacles[i]
		if v.Position.Y > o.Size.Y {
			continue
		}
		if !o.touches(v) {
			continue
		}
		n := v.Position.Sub(o.Center).Normalize2D()
		if n == (geom.Vec3{}) {
			n = geom.Forward(v.Heading).Scale(-1)
		}
		v.Position = v.Position.Add(n.Scale(ObstaclePush))
		v.Speed *= ObstacleSpeedCut
	}
	limit := HalfWorld - BoundaryMargin
	v.Position.X = geom.Clamp(v.Position.X, -limit, limit)
	v.Position.Z = geom.Clamp(v.Position.Z, -limit, limit)
}

type PickupType uint8

const (
	PickupBoost PickupType = iota
	PickupShield
	PickupLife
	PickupSlow
	pickupTypes
)

func (t PickupType) String() string {
	switch t {
	case PickupShield:
		return "shield"
	case PickupLife:
		return "life"
	case PickupSlow:
		return "slow"
	}
	return "boost"
}

func (t PickupType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Pickup is a slot in the fixed recycling pool.
type Pickup struct {
	ID       int
	Type     PickupType
	Position geom.Vec3
}

const pickupReachY = 3.0

func (m *Match) randomPickupPos() geom.Vec3 {
	return geom.Vec3{X: m.rng.Spread(PickupSpread), Y: PickupHeight, Z: m.rng.Spread(PickupSpread)}
}

func (m *Match) spawnPickups() {
	m.pickups = m.pickups[:0]
	for i := 0; i < PickupCount; i++ {
		m.pickups = append(m.pickups, Pickup{
			ID:       i,
			Type:     PickupType(m.rng.Intn(int(pickupTypes))),
			Position: m.randomPickupPos(),
		})
	}
}

func (m *Match) resolvePickups() {
	p := m.player
	if p.Position.Y >= pickupReachY {
		return
	}
	for i := range m.pickups {
		pk := &m.pickups[i]
		if geom.Dist2D(p.Position, pk.Position) >= PickupRadius {
			continue
		}
		m.applyPickup(pk.Type)
		m.trace(TracePickup, PickupTrace{ID: pk.ID, Type: pk.Type})
		m.emit(Event{Type: EventPickup, Title: pk.Type.String(), Pos: pk.Position})
		m.spawnFx(fx.KindPickupGlow, pk.Position, geom.Vec3{Y: 3}, 0.7)

		pk.Position = m.randomPickupPos()
		pk.Type = PickupType(m.rng.Intn(int(pickupTypes)))
	}
}

func (m *Match) applyPickup(t PickupType) {
	r := &m.run
	switch t {
	case PickupBoost:
		r.Boost = 1
		m.addScore(200)
	case PickupShield:
		r.Shield = math.Min(1, r.Shield+ShieldPickupAmount)
		r.ShieldTimer = ShieldPickupTime
		m.addScore(150)
	case PickupLife:
		r.Lives = min(MaxLives, r.Lives+1)
		m.addScore(250)
	case PickupSlow:
		r.Heat = math.Max(0, r.Heat-SlowHeatRelief)
		r.SlowTimer = SlowDuration
		m.addScore(120)
	}
}

// resolvePads applies every pad the grounded player overlaps. Contact is
// not gated, so the effect is bounded by max rather than accumulated.
func (m *Match) resolvePads(dt float64) {
	p := m.player
	if p.Position.Y > PadGroundThreshold {
		return
	}
	r := &m.run
	for i := range m.arena.Pads {
		pad := &m.arena.Pads[i]
		if geom.Dist2D(p.Position, pad.Position) >= pad.Radius {
			continue
		}
		p.Speed = math.Copysign(math.Max(math.Abs(p.Speed), p.MaxSpeed*PadSpeedFactor), p.Speed)
		p.surge = PadSurgeTime
		r.Boost = math.Min(1, r.Boost+PadBoostRate*dt)
		m.addScore(PadScoreRate * dt)
	}
}
