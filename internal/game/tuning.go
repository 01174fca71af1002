package game

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// HitTuning configures bot-vs-player hit validation and suppression.
type HitTuning struct {
	Radius            float64 `json:"radius"`
	VerticalTolerance float64 `json:"verticalTolerance"`
	Cooldown          float64 `json:"cooldown"`
	SafeFrames        int     `json:"safeFrames"`
	Invincibility     float64 `json:"invincibility"`
	ResyncRadius      float64 `json:"resyncRadius"`
	BotSlowdown       float64 `json:"botSlowdown"`
}

// RampTuning configures ramp triggering and the launch impulse.
type RampTuning struct {
	Thickness         float64 `json:"thickness"`
	MarginCap         float64 `json:"marginCap"`
	MarginFactor      float64 `json:"marginFactor"`
	GroundedThreshold float64 `json:"groundedThreshold"`
	Cooldown          float64 `json:"cooldown"`
	MinSpeed          float64 `json:"minSpeed"`
	BaseLift          float64 `json:"baseLift"`
	SpeedFactor       float64 `json:"speedFactor"`
	SpeedCap          float64 `json:"speedCap"`
	PlayerLaunch      float64 `json:"playerLaunch"`
	BotLaunch         float64 `json:"botLaunch"`
	BaseScore         float64 `json:"baseScore"`
	ProximityScore    float64 `json:"proximityScore"`
	SubstepSpeed      float64 `json:"substepSpeed"`
	MinSubsteps       int     `json:"minSubsteps"`
	MaxSubsteps       int     `json:"maxSubsteps"`
}

type AirtimeTuning struct {
	Cap   float64 `json:"cap"`
	Score float64 `json:"score"`
	Boost float64 `json:"boost"`
}

// RampClassSpec is the geometry and reward of one ramp size class.
type RampClassSpec struct {
	Radius    float64 `json:"radius"`
	Lift      float64 `json:"lift"`
	Kick      float64 `json:"kick"`
	ScoreMult float64 `json:"scoreMult"`
}

type RampClasses struct {
	Normal RampClassSpec `json:"normal"`
	Mega   RampClassSpec `json:"mega"`
	Titan  RampClassSpec `json:"titan"`
}

// Tuning holds the empirically tuned constants. The formulas that consume
// them are fixed; the numbers are configuration.
type Tuning struct {
	Hit         HitTuning     `json:"hit"`
	Ramp        RampTuning    `json:"ramp"`
	Airtime     AirtimeTuning `json:"airtime"`
	RampClasses RampClasses   `json:"rampClasses"`
}

//go:embed tuning.json
var defaultTuningPayload []byte

var (
	defaultTuningOnce sync.Once
	defaultTuning     Tuning
	defaultTuningErr  error
)

// DefaultTuning returns a copy of the embedded tuning.
func DefaultTuning() Tuning {
	defaultTuningOnce.Do(func() {
		defaultTuningErr = json.Unmarshal(defaultTuningPayload, &defaultTuning)
		if defaultTuningErr == nil {
			defaultTuningErr = defaultTuning.Validate()
		}
	})
	if defaultTuningErr != nil {
		panic(defaultTuningErr)
	}
	return defaultTuning
}

// LoadTuning reads a JSON document from path and applies it over the
// defaults. Fields missing from the file keep their default value.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("decode tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.Hit.Radius <= 0:
		return fmt.Errorf("hit radius must be positive, got %v", t.Hit.Radius)
	case t.Hit.VerticalTolerance <= 0:
		return fmt.Errorf("hit vertical tolerance must be positive, got %v", t.Hit.VerticalTolerance)
	case t.Hit.SafeFrames < 0:
		return fmt.Errorf("safe frames must not be negative, got %d", t.Hit.SafeFrames)
	case t.Ramp.SubstepSpeed <= 0:
		return fmt.Errorf("ramp substep speed must be positive, got %v", t.Ramp.SubstepSpeed)
	case t.Ramp.MinSubsteps < 1 || t.Ramp.MaxSubsteps < t.Ramp.MinSubsteps:
		return fmt.Errorf("invalid substep range [%d, %d]", t.Ramp.MinSubsteps, t.Ramp.MaxSubsteps)
	}
	for _, c := range []RampClassSpec{t.RampClasses.Normal, t.RampClasses.Mega, t.RampClasses.Titan} {
		if c.Radius <= 0 {
			return fmt.Errorf("ramp class radius must be positive, got %v", c.Radius)
		}
	}
	return nil
}

// Class returns the spec for a ramp class.
func (t *Tuning) Class(c RampClass) RampClassSpec {
	switch c {
	case RampMega:
		return t.RampClasses.Mega
	case RampTitan:
		return t.RampClasses.Titan
	}
	return t.RampClasses.Normal
}
