package game

import (
	"fmt"
	"math"

	"github.com/solarlune/resolv"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

// longAgo keeps the first ramp contact and hit out of their cooldown windows.
const longAgo = -1e9

// Vehicle is the shared state of the player car and every bot. Which policy
// drives it is decided by the caller each tick.
type Vehicle struct {
	Name  string
	IsBot bool
	Role  Role

	Position geom.Vec3
	Prev     geom.Vec3
	Velocity geom.Vec3

	Heading     float64
	MoveHeading float64
	Speed       float64
	VerticalVel float64

	MaxSpeed   float64
	Accel      float64
	TurnRate   float64
	NormalGrip float64
	DriftGrip  float64

	LastRampAt float64
	Airtime    float64

	steer         float64
	surge         float64
	burstTimer    float64
	burstCooldown float64

	body *resolv.Circle
}

func NewPlayerVehicle() *Vehicle {
	return &Vehicle{
		Name:       "player",
		MaxSpeed:   PlayerMaxSpeed,
		Accel:      PlayerAccel,
		TurnRate:   PlayerTurnRate,
		NormalGrip: NormalGrip,
		DriftGrip:  DriftGrip,
		LastRampAt: longAgo,
	}
}

func NewBotVehicle(index int, maxSpeed, accel float64) *Vehicle {
	return &Vehicle{
		Name:       fmt.Sprintf("bot-%d", index),
		IsBot:      true,
		MaxSpeed:   maxSpeed,
		Accel:      accel,
		TurnRate:   BotTurnRate,
		NormalGrip: BotGrip,
		DriftGrip:  BotGrip,
		LastRampAt: longAgo,
	}
}

// Integrate advances the horizontal position. Prev is captured first so
// collision sweeps can cover the whole frame.
func (v *Vehicle) Integrate(dt float64) {
	v.Prev = v.Position
	v.Position.X += v.Velocity.X * dt
	v.Position.Z += v.Velocity.Z * dt
}

// ClampSpeed bounds speed to [ReverseSpeedLimit, MaxSpeed*boostMul].
func (v *Vehicle) ClampSpeed(boostMul float64) {
	v.Speed = geom.Clamp(v.Speed, ReverseSpeedLimit, v.MaxSpeed*boostMul)
}

// ResetTo places the vehicle at pos facing +Z with all motion cleared.
func (v *Vehicle) ResetTo(pos geom.Vec3) {
	v.Position = pos
	v.Prev = pos
	v.Velocity = geom.Vec3{}
	v.Speed = 0
	v.Heading = 0
	v.MoveHeading = 0
	v.VerticalVel = 0
	v.Airtime = 0
	v.steer = 0
	v.surge = 0
}

func (v *Vehicle) Grounded() bool {
	return v.Position.Y <= 0
}

// Dir is the travel direction sign used to keep steering intuitive in
// reverse.
func (v *Vehicle) Dir() float64 {
	if v.Speed < 0 {
		return -1
	}
	return 1
}

func (v *Vehicle) State() VehicleState {
	s := VehicleState{
		Name:        v.Name,
		Position:    v.Position,
		Heading:     v.Heading,
		Speed:       v.Speed,
		VerticalVel: v.VerticalVel,
	}
	if v.IsBot {
		s.Role = v.Role.String()
		s.Bursting = v.burstTimer > 0
	}
	return s
}

func speedRatio(v *Vehicle) float64 {
	if v.MaxSpeed <= 0 {
		return 0
	}
	return math.Abs(v.Speed) / v.MaxSpeed
}
