package game

import "github.com/vladimirvolkov/pursuit/server/internal/geom"

// Simulation & arena constants
const (
	TickRate   = 60
	MaxFrameDT = 0.033

	WorldSize      = 200.0
	HalfWorld      = WorldSize / 2
	BoundaryMargin = 4.0

	CarRadius = 1.4
	BotRadius = 1.4
	Gravity   = -20.0

	ObstaclePush     = 2.4
	ObstacleSpeedCut = 0.5
)

// Vehicle tuning
const (
	PlayerMaxSpeed = 52.0
	PlayerAccel    = 22 * 1.12
	PlayerTurnRate = 2.8
	NormalGrip     = 3.4
	DriftGrip      = 1.1

	BotMaxSpeed = 48.0
	BotAccel    = 18.0
	BotTurnRate = 2.3
	BotGrip     = 2.2

	ReverseSpeedLimit    = -14.0
	BoostMultiplier      = 1.25
	BoostAccelMultiplier = 1.4
	BoostGate            = 0.05
	BoostDrain           = 0.18
	BoostRegen           = 0.08
	BrakeFactor          = 0.8
	CoastDecel           = 12.0

	SteerTauDrift = 0.12
	SteerTauGrip  = 0.06
	SlipDrift     = 0.22
	SlipGrip      = 0.05
)

// Run scoring & meters
const (
	StartLives = 3
	MaxLives   = 5

	ComboMax      = 6.0
	ComboGrowth   = 0.8
	ComboDecay    = 0.5
	ComboSteerMin = 0.2
	ComboSpeedMin = 12.0

	DriftScoreRate = 12.0
	BoostScoreRate = 6.0
	LifePenalty    = 200.0

	ShieldAbsorbThreshold = 0.2
	ShieldAbsorb          = 0.3

	HeatMax      = 1.35
	HeatGrace    = 10.0
	HeatRate     = 0.015
	HeatBotSpeed = 8.0
)

// Pickups & pads
const (
	PickupCount  = 6
	PickupRadius = 2.0
	PickupHeight = 1.4
	PickupSpread = 130.0

	ShieldPickupAmount = 0.6
	ShieldPickupTime   = 6.0
	SlowHeatRelief     = 0.4
	SlowScale          = 0.82
	SlowDuration       = 4.0

	PadRadius          = 2.6
	PadGroundThreshold = 0.3
	PadSurgeTime       = 0.6
	PadSpeedFactor     = 1.15
	PadBoostRate       = 0.6
	PadScoreRate       = 40.0
)

// Phase is the run lifecycle state.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseLevelCleared
	PhaseWorldCleared
	PhaseChampion
	PhaseGameOver
)

var phaseNames = [...]string{"idle", "running", "level_cleared", "world_cleared", "champion", "game_over"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Input is the abstract control snapshot sampled once per tick.
// Left steer is positive.
type Input struct {
	SteerLeft    bool    `json:"steerLeft" msgpack:"steerLeft"`
	SteerRight   bool    `json:"steerRight" msgpack:"steerRight"`
	AnalogActive bool    `json:"analogActive" msgpack:"analogActive"`
	AnalogSteer  float64 `json:"analogSteer" msgpack:"analogSteer"`
	Throttle     bool    `json:"throttle" msgpack:"throttle"`
	Brake        bool    `json:"brake" msgpack:"brake"`
	Drift        bool    `json:"drift" msgpack:"drift"`
	Boost        bool    `json:"boost" msgpack:"boost"`
	CameraFocus  bool    `json:"cameraFocus" msgpack:"cameraFocus"`
}

// RawSteer returns the unfiltered steer signal in [-1, 1]. The analog signal
// wins while it is active.
func (in Input) RawSteer() float64 {
	if in.AnalogActive {
		return geom.Clamp(in.AnalogSteer, -1, 1)
	}
	s := 0.0
	if in.SteerLeft {
		s++
	}
	if in.SteerRight {
		s--
	}
	return s
}

// RunState holds the meters of the current run. Every field is clamped by
// the code that mutates it.
type RunState struct {
	Score       float64
	Lives       int
	Combo       float64
	Boost       float64
	Shield      float64
	ShieldTimer float64
	TimeLeft    float64
	Elapsed     float64
	Heat        float64
	SlowTimer   float64
}
