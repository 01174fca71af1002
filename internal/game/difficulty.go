package game

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
	ErrUnknownRampDensity = errors.New("unknown ramp density")
)

type Difficulty string

const (
	DifficultyCasual  Difficulty = "casual"
	DifficultyClassic Difficulty = "classic"
	DifficultyBrutal  Difficulty = "brutal"
)

// DifficultyProfile scales bot skill. It is re-applied whenever bots are
// spawned.
type DifficultyProfile struct {
	Name       Difficulty
	Skill      float64
	Reaction   float64
	Teamwork   float64
	Speed      float64
	LeadFactor float64
	HeatRamp   float64
}

var profiles = map[Difficulty]DifficultyProfile{
	DifficultyCasual: {
		Name: DifficultyCasual, Skill: 0.7, Reaction: 0.75, Teamwork: 0.3,
		Speed: 0.88, LeadFactor: 0.6, HeatRamp: 0.7,
	},
	DifficultyClassic: {
		Name: DifficultyClassic, Skill: 0.85, Reaction: 0.9, Teamwork: 0.6,
		Speed: 1.0, LeadFactor: 0.85, HeatRamp: 1.0,
	},
	DifficultyBrutal: {
		Name: DifficultyBrutal, Skill: 1.0, Reaction: 1.1, Teamwork: 0.9,
		Speed: 1.1, LeadFactor: 1.0, HeatRamp: 1.35,
	},
}

func ProfileFor(d Difficulty) (DifficultyProfile, error) {
	p, ok := profiles[d]
	if !ok {
		return DifficultyProfile{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	return p, nil
}

type RampDensity string

const (
	DensityLow       RampDensity = "low"
	DensityNormal    RampDensity = "normal"
	DensityHigh      RampDensity = "high"
	DensityExtraHigh RampDensity = "extra_high"
)

type densityCounts struct {
	Ramps int
	Pads  int
}

var densities = map[RampDensity]densityCounts{
	DensityLow:       {Ramps: 3, Pads: 2},
	DensityNormal:    {Ramps: 5, Pads: 3},
	DensityHigh:      {Ramps: 8, Pads: 4},
	DensityExtraHigh: {Ramps: 11, Pads: 6},
}

// Settings are chosen by the player outside the simulation.
type Settings struct {
	Difficulty  Difficulty  `json:"difficulty" msgpack:"difficulty"`
	InvertSteer bool        `json:"invertSteer" msgpack:"invertSteer"`
	CameraFocus bool        `json:"cameraFocus" msgpack:"cameraFocus"`
	RampDensity RampDensity `json:"rampDensity" msgpack:"rampDensity"`
}

func DefaultSettings() Settings {
	return Settings{Difficulty: DifficultyClassic, RampDensity: DensityNormal}
}

// WithDefaults fills empty enum fields.
func (s Settings) WithDefaults() Settings {
	if s.Difficulty == "" {
		s.Difficulty = DifficultyClassic
	}
	if s.RampDensity == "" {
		s.RampDensity = DensityNormal
	}
	return s
}

func (s Settings) Validate() error {
	if _, ok := profiles[s.Difficulty]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, s.Difficulty)
	}
	if _, ok := densities[s.RampDensity]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRampDensity, s.RampDensity)
	}
	return nil
}
