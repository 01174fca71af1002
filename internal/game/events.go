package game

import (
	"fmt"
	"log"

	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

type EventType uint8

const (
	EventLifeLost EventType = iota
	EventShieldAbsorbed
	EventLevelCleared
	EventWorldCleared
	EventChampion
	EventGameOver
	EventRampLaunch
	EventLanding
	EventPickup
	EventWorldRebuilt
	EventBotsSpawned
	EventLevelStarted
)

var eventNames = [...]string{
	"life_lost", "shield_absorbed", "level_cleared", "world_cleared", "champion",
	"game_over", "ramp_launch", "landing", "pickup", "world_rebuilt", "bots_spawned",
	"level_started",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// MarshalText lets events travel by name in JSON.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	for i, name := range eventNames {
		if name == string(b) {
			*t = EventType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// Event is a discrete notification for the presentation layer. Title and
// Body carry display text where the event has any.
type Event struct {
	Type  EventType `json:"type" msgpack:"type"`
	Tick  uint32    `json:"tick" msgpack:"tick"`
	Title string    `json:"title,omitempty" msgpack:"title,omitempty"`
	Body  string    `json:"body,omitempty" msgpack:"body,omitempty"`
	Pos   geom.Vec3 `json:"pos" msgpack:"pos"`
	Value float64   `json:"value,omitempty" msgpack:"value,omitempty"`
}

type Observer func(Event)

// EventBus fans events out to observers subscribed by type.
type EventBus struct {
	handlers map[EventType][]Observer
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]Observer)}
}

func (eb *EventBus) Subscribe(t EventType, fn Observer) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}

// Tracer receives diagnostic records on named channels. Simulation results
// never depend on whether a tracer is attached.
type Tracer interface {
	Trace(channel string, payload any)
}

type TracerFunc func(channel string, payload any)

func (f TracerFunc) Trace(channel string, payload any) { f(channel, payload) }

// LogTracer writes trace records to a logger.
type LogTracer struct {
	Logger *log.Logger
}

func (t LogTracer) Trace(channel string, payload any) {
	if t.Logger == nil {
		log.Printf("trace %s: %+v", channel, payload)
		return
	}
	t.Logger.Printf("trace %s: %+v", channel, payload)
}

// Trace channels.
const (
	TraceRamp   = "ramp"
	TraceHit    = "hit"
	TracePickup = "pickup"
	TraceWorld  = "world"
	TraceBot    = "bot"
)

type RampTrace struct {
	Vehicle   string
	Class     RampClass
	Distance  float64
	Proximity float64
	Lift      float64
}

type HitTrace struct {
	Bot      string
	Class    HitClass
	Distance float64
	Accepted bool
	Reason   string
}

type PickupTrace struct {
	ID   int
	Type PickupType
}

type WorldTrace struct {
	Action  string
	Ramps   int
	Pads    int
	Dropped bool
}

type BurstTrace struct {
	Bot      string
	Distance float64
}
