// Package fx holds cosmetic particles requested by the simulation. Nothing in
// the simulation reads them back.
package fx

import "github.com/vladimirvolkov/pursuit/server/internal/geom"

type Kind uint8

const (
	KindDriftSmoke Kind = iota
	KindBoostFlame
	KindRampDust
	KindHitSpark
	KindPickupGlow
)

type Particle struct {
	Pos     geom.Vec3 `json:"pos" msgpack:"pos"`
	Vel     geom.Vec3 `json:"-" msgpack:"-"`
	Life    float64   `json:"life" msgpack:"life"`
	MaxLife float64   `json:"-" msgpack:"-"`
	Kind    Kind      `json:"kind" msgpack:"kind"`
}

// Pool is a fixed arena of particle slots. Free slots are kept on an index
// stack so Spawn never scans.
type Pool struct {
	slots []Particle
	alive []bool
	free  []int
	live  int
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 256
	}
	p := &Pool{
		slots: make([]Particle, size),
		alive: make([]bool, size),
		free:  make([]int, 0, size),
	}
	p.Clear()
	return p
}

// Clear frees every slot.
func (p *Pool) Clear() {
	p.free = p.free[:0]
	for i := len(p.slots) - 1; i >= 0; i-- {
		p.alive[i] = false
		p.free = append(p.free, i)
	}
	p.live = 0
}

// Spawn places a particle in the first free slot. It reports false when the
// pool is exhausted; the request is dropped.
func (p *Pool) Spawn(kind Kind, pos, vel geom.Vec3, life float64) bool {
	n := len(p.free)
	if n == 0 || life <= 0 {
		return false
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]
	p.slots[idx] = Particle{Pos: pos, Vel: vel, Life: life, MaxLife: life, Kind: kind}
	p.alive[idx] = true
	p.live++
	return true
}

// Decay ages live particles and returns expired slots to the free list.
func (p *Pool) Decay(dt float64) {
	for i := range p.slots {
		if !p.alive[i] {
			continue
		}
		s := &p.slots[i]
		s.Life -= dt
		if s.Life <= 0 {
			p.alive[i] = false
			p.free = append(p.free, i)
			p.live--
			continue
		}
		s.Pos = s.Pos.Add(s.Vel.Scale(dt))
		s.Vel = s.Vel.Scale(0.92)
	}
}

func (p *Pool) Len() int { return p.live }

func (p *Pool) Cap() int { return len(p.slots) }

// Live appends every live particle to dst.
func (p *Pool) Live(dst []Particle) []Particle {
	for i := range p.slots {
		if p.alive[i] {
			dst = append(dst, p.slots[i])
		}
	}
	return dst
}
