package game

import (
	"math"

	"github.com/vladimirvolkov/pursuit/server/internal/fx"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

type VehicleState struct {
	Name        string    `json:"name" msgpack:"name"`
	Position    geom.Vec3 `json:"pos" msgpack:"pos"`
	Heading     float64   `json:"heading" msgpack:"heading"`
	Speed       float64   `json:"speed" msgpack:"speed"`
	VerticalVel float64   `json:"vy" msgpack:"vy"`
	Role        string    `json:"role,omitempty" msgpack:"role,omitempty"`
	Bursting    bool      `json:"bursting,omitempty" msgpack:"bursting,omitempty"`
}

type RampState struct {
	Position geom.Vec3 `json:"pos" msgpack:"pos"`
	Class    string    `json:"class" msgpack:"class"`
	Radius   float64   `json:"radius" msgpack:"radius"`
}

type PadState struct {
	Position geom.Vec3 `json:"pos" msgpack:"pos"`
	Radius   float64   `json:"radius" msgpack:"radius"`
}

type PickupState struct {
	ID       int       `json:"id" msgpack:"id"`
	Type     string    `json:"type" msgpack:"type"`
	Position geom.Vec3 `json:"pos" msgpack:"pos"`
}

type ObstacleState struct {
	Center geom.Vec3 `json:"center" msgpack:"center"`
	Size   geom.Vec3 `json:"size" msgpack:"size"`
}

// Snapshot is the per-tick view handed to presentation layers. It shares no
// memory with the match.
type Snapshot struct {
	MatchID     string          `json:"matchId" msgpack:"matchId"`
	Tick        uint32          `json:"tick" msgpack:"tick"`
	Phase       string          `json:"phase" msgpack:"phase"`
	Paused      bool            `json:"paused" msgpack:"paused"`
	World       string          `json:"world" msgpack:"world"`
	Level       string          `json:"level" msgpack:"level"`
	WorldIndex  int             `json:"worldIndex" msgpack:"worldIndex"`
	LevelIndex  int             `json:"levelIndex" msgpack:"levelIndex"`
	Score       int             `json:"score" msgpack:"score"`
	Lives       int             `json:"lives" msgpack:"lives"`
	Combo       float64         `json:"combo" msgpack:"combo"`
	Boost       float64         `json:"boost" msgpack:"boost"`
	Shield      float64         `json:"shield" msgpack:"shield"`
	TimeLeft    float64         `json:"timeLeft" msgpack:"timeLeft"`
	LevelTime   float64         `json:"levelTime" msgpack:"levelTime"`
	Heat        float64         `json:"heat" msgpack:"heat"`
	CameraFocus bool            `json:"cameraFocus" msgpack:"cameraFocus"`
	Player      VehicleState    `json:"player" msgpack:"player"`
	Bots        []VehicleState  `json:"bots" msgpack:"bots"`
	Ramps       []RampState     `json:"ramps" msgpack:"ramps"`
	Pads        []PadState      `json:"pads" msgpack:"pads"`
	Pickups     []PickupState   `json:"pickups" msgpack:"pickups"`
	Obstacles   []ObstacleState `json:"obstacles" msgpack:"obstacles"`
	Events      []Event         `json:"events,omitempty" msgpack:"events,omitempty"`
	Particles   []fx.Particle   `json:"particles,omitempty" msgpack:"particles,omitempty"`
}

func (m *Match) snapshot() Snapshot {
	w := m.catalog[m.worldIndex]
	lvl := w.Levels[m.levelIndex]
	r := &m.run
	s := Snapshot{
		MatchID:     m.ID,
		Tick:        m.tick,
		Phase:       m.phase.String(),
		Paused:      m.paused,
		World:       w.Name,
		Level:       lvl.Name,
		WorldIndex:  m.worldIndex,
		LevelIndex:  m.levelIndex,
		Score:       int(math.Floor(r.Score)),
		Lives:       r.Lives,
		Combo:       r.Combo,
		Boost:       r.Boost,
		Shield:      r.Shield,
		TimeLeft:    r.TimeLeft,
		LevelTime:   lvl.Time,
		Heat:        r.Heat,
		CameraFocus: m.settings.CameraFocus || m.lastFocus,
		Player:      m.player.State(),
		Bots:        make([]VehicleState, len(m.bots)),
		Ramps:       make([]RampState, len(m.arena.Ramps)),
		Pads:        make([]PadState, len(m.arena.Pads)),
		Pickups:     make([]PickupState, len(m.pickups)),
		Obstacles:   make([]ObstacleState, len(m.arena.Obstacles)),
	}
	for i, b := range m.bots {
		s.Bots[i] = b.State()
	}
	for i, rp := range m.arena.Ramps {
		s.Ramps[i] = RampState{Position: rp.Position, Class: rp.Class.String(), Radius: rp.Radius}
	}
	for i, pd := range m.arena.Pads {
		s.Pads[i] = PadState{Position: pd.Position, Radius: pd.Radius}
	}
	for i, pk := range m.pickups {
		s.Pickups[i] = PickupState{ID: pk.ID, Type: pk.Type.String(), Position: pk.Position}
	}
	for i, o := range m.arena.Obstacles {
		s.Obstacles[i] = ObstacleState{Center: o.Center, Size: o.Size}
	}
	if len(m.events) > 0 {
		s.Events = append([]Event(nil), m.events...)
	}
	if m.fx != nil {
		s.Particles = m.fx.Live(nil)
	}
	return s
}
