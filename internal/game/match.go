package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladimirvolkov/pursuit/server/internal/fx"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

// Bot spawn placement
const (
	botSpawnSpread = 60.0
	botSpawnClear  = 12.0
	botSpawnTries  = 16
	botBaseAccel   = 20.0
)

// Options configures a new match. Zero values pick defaults.
type Options struct {
	Seed     uint64
	Settings Settings
	Tuning   *Tuning
	Catalog  []WorldDef
	Tracer   Tracer
	Effects  *fx.Pool
}

// Match owns the whole simulation of one run. It is not safe for
// concurrent use; a single loop drives Tick.
type Match struct {
	ID string

	tuning   Tuning
	catalog  []WorldDef
	settings Settings
	profile  DifficultyProfile
	rng      *Rand

	phase      Phase
	paused     bool
	worldIndex int
	levelIndex int
	run        RunState
	clock      float64
	tick       uint32

	player  *Vehicle
	bots    []*Vehicle
	arena   Arena
	pickups []Pickup
	guard   HitGuard
	spawn   geom.Vec3

	events     []Event
	bus        *EventBus
	tracer     Tracer
	fx         *fx.Pool
	rebuilding bool
	lastFocus  bool
}

func NewMatch(opts Options) (*Match, error) {
	settings := opts.Settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("match settings: %w", err)
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	tuning := DefaultTuning()
	if opts.Tuning != nil {
		if err := opts.Tuning.Validate(); err != nil {
			return nil, fmt.Errorf("match tuning: %w", err)
		}
		tuning = *opts.Tuning
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	profile, _ := ProfileFor(settings.Difficulty)

	m := &Match{
		ID:       uuid.NewString(),
		tuning:   tuning,
		catalog:  catalog,
		settings: settings,
		profile:  profile,
		rng:      NewRand(seed),
		player:   NewPlayerVehicle(),
		bus:      NewEventBus(),
		tracer:   opts.Tracer,
		fx:       opts.Effects,
	}
	m.run.Lives = StartLives
	m.resetLevel()
	m.events = m.events[:0]
	return m, nil
}

// Subscribe registers fn for events of type t. Observers run synchronously
// inside Tick.
func (m *Match) Subscribe(t EventType, fn Observer) {
	m.bus.Subscribe(t, fn)
}

func (m *Match) Phase() Phase { return m.phase }

func (m *Match) Paused() bool { return m.paused }

func (m *Match) Settings() Settings { return m.settings }

func (m *Match) Run() RunState { return m.run }

// Start begins the current level. resetLives starts a fresh run.
func (m *Match) Start(resetLives bool) {
	if resetLives {
		m.run.Lives = StartLives
		m.run.Score = 0
	}
	m.phase = PhaseRunning
	m.paused = false
	m.resetLevel()
	lvl := m.level()
	m.emit(Event{Type: EventLevelStarted, Title: lvl.Name, Body: m.catalog[m.worldIndex].Name, Value: lvl.Time})
}

// Restart replays the current level keeping lives and score. A run with no
// lives left starts fresh.
func (m *Match) Restart() {
	m.Start(m.phase == PhaseGameOver || m.run.Lives <= 0)
}

// Continue acknowledges the message of a terminal phase. Cleared phases
// advance progression; game over and idle start a fresh run.
func (m *Match) Continue() {
	switch m.phase {
	case PhaseLevelCleared, PhaseWorldCleared, PhaseChampion:
		m.advance()
		m.Start(false)
	case PhaseGameOver, PhaseIdle:
		m.Start(true)
	}
}

// advance moves to the next level, wrapping to the first world after the
// last one.
func (m *Match) advance() {
	m.levelIndex++
	if m.levelIndex >= len(m.catalog[m.worldIndex].Levels) {
		m.levelIndex = 0
		m.worldIndex = (m.worldIndex + 1) % len(m.catalog)
	}
}

// SetPaused suspends simulation ticks. Effects keep decaying.
func (m *Match) SetPaused(p bool) {
	m.paused = p
}

// ApplySettings swaps in new settings. A difficulty change respawns the
// bots and a ramp density change rebuilds the world, both immediately.
func (m *Match) ApplySettings(s Settings) error {
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return err
	}
	old := m.settings
	m.settings = s
	if s.Difficulty != old.Difficulty {
		m.profile, _ = ProfileFor(s.Difficulty)
		m.spawnBots()
	}
	if s.RampDensity != old.RampDensity {
		m.rebuildWorld()
	}
	return nil
}

func (m *Match) level() LevelDef {
	return m.catalog[m.worldIndex].Levels[m.levelIndex]
}

func (m *Match) resetLevel() {
	r := &m.run
	r.Combo = 1
	r.Boost = 1
	r.Shield = 0
	r.ShieldTimer = 0
	r.Elapsed = 0
	r.Heat = 0
	r.SlowTimer = 0
	r.TimeLeft = m.level().Time
	m.guard = NewHitGuard()
	m.player.ResetTo(m.spawn)
	m.player.LastRampAt = longAgo
	m.rebuildWorld()
	m.spawnBots()
	m.spawnPickups()
	if m.fx != nil {
		m.fx.Clear()
	}
}

// rebuildWorld regenerates the arena. A request made while a rebuild is
// already in flight, for example from a WorldRebuilt observer, is dropped.
func (m *Match) rebuildWorld() {
	if m.rebuilding {
		m.trace(TraceWorld, WorldTrace{Action: "rebuild", Dropped: true})
		return
	}
	m.rebuilding = true
	defer func() { m.rebuilding = false }()

	m.arena = BuildArena(m.rng, m.settings.RampDensity, &m.tuning)
	m.trace(TraceWorld, WorldTrace{Action: "rebuild", Ramps: len(m.arena.Ramps), Pads: len(m.arena.Pads)})
	m.emit(Event{Type: EventWorldRebuilt, Title: string(m.settings.RampDensity), Value: float64(len(m.arena.Ramps))})
}

func (m *Match) spawnBots() {
	lvl := m.level()
	m.bots = m.bots[:0]
	for i := 0; i < lvl.Bots; i++ {
		b := NewBotVehicle(i, lvl.BotSpeed*m.profile.Speed, botBaseAccel+float64(lvl.Bots))
		var pos geom.Vec3
		for try := 0; try < botSpawnTries; try++ {
			pos = geom.Vec3{X: m.rng.Spread(botSpawnSpread), Z: m.rng.Spread(botSpawnSpread)}
			if geom.Dist2D(pos, m.spawn) >= botSpawnClear {
				break
			}
			if try == botSpawnTries-1 {
				pos = m.spawn.Add(geom.Forward(float64(i)).Scale(botSpawnClear + 4))
			}
		}
		b.ResetTo(pos)
		to := m.player.Position.Sub(pos)
		b.Heading = geom.Heading(to)
		b.MoveHeading = b.Heading
		b.Role = RoleFor(i, m.profile.Teamwork)
		m.bots = append(m.bots, b)
	}
	m.emit(Event{Type: EventBotsSpawned, Title: string(m.profile.Name), Value: float64(len(m.bots))})
}

// Tick advances the match by dt seconds with the given input and returns the
// resulting snapshot. dt is clamped to MaxFrameDT.
func (m *Match) Tick(dt float64, in Input) Snapshot {
	dt = geom.Clamp(dt, 0, MaxFrameDT)
	m.tick++
	m.lastFocus = in.CameraFocus
	if m.phase == PhaseRunning && !m.paused && dt > 0 {
		m.step(dt, in)
	}
	if m.fx != nil {
		m.fx.Decay(dt)
	}
	s := m.snapshot()
	m.events = m.events[:0]
	return s
}

// Snapshot returns the current state without advancing. Events are not
// drained.
func (m *Match) Snapshot() Snapshot {
	return m.snapshot()
}

func (m *Match) step(dt float64, in Input) {
	m.clock += dt
	r := &m.run
	r.TimeLeft = max(0, r.TimeLeft-dt)

	m.updateDifficulty(dt)
	m.updatePlayer(in, dt)
	m.updateBots(dt)
	if m.phase != PhaseRunning {
		return
	}

	m.resolveObstacles(m.player)
	for _, b := range m.bots {
		m.resolveObstacles(b)
	}
	m.resolvePickups()
	m.resolvePads(dt)

	if r.TimeLeft <= 0 {
		m.completeLevel()
	}
}

// updateDifficulty ramps heat after the grace period.
func (m *Match) updateDifficulty(dt float64) {
	r := &m.run
	r.Elapsed += dt
	if r.Elapsed > HeatGrace {
		r.Heat = min(HeatMax, r.Heat+dt*HeatRate*m.profile.HeatRamp)
	}
	if r.SlowTimer > 0 {
		r.SlowTimer = max(0, r.SlowTimer-dt)
	}
}

func (m *Match) completeLevel() {
	w := m.catalog[m.worldIndex]
	lastLevel := m.levelIndex == len(w.Levels)-1
	lastWorld := m.worldIndex == len(m.catalog)-1
	switch {
	case lastLevel && lastWorld:
		m.phase = PhaseChampion
		m.emit(Event{
			Type:  EventChampion,
			Title: "Champion Crowned",
			Body:  "You outran every hunter. Press Enter to restart.",
			Value: m.run.Score,
		})
	case lastLevel:
		m.phase = PhaseWorldCleared
		m.emit(Event{
			Type:  EventWorldCleared,
			Title: "World Cleared: " + w.Name,
			Body:  "New realm unlocked. Press Enter to ignite.",
			Value: m.run.Score,
		})
	default:
		m.phase = PhaseLevelCleared
		m.emit(Event{
			Type:  EventLevelCleared,
			Title: "Level Cleared: " + w.Levels[m.levelIndex].Name,
			Body:  "Momentum locked. Press Enter for the next heat.",
			Value: m.run.Score,
		})
	}
}

func lifeLostEvent(lives int, pos geom.Vec3) Event {
	return Event{
		Type:  EventLifeLost,
		Title: "Life Lost",
		Body:  fmt.Sprintf("%d lives left", lives),
		Pos:   pos,
		Value: float64(lives),
	}
}

func gameOverEvent() Event {
	return Event{
		Type:  EventGameOver,
		Title: "System Critical",
		Body:  "The hunters caught you. Press Enter to retry.",
	}
}

func (m *Match) emit(e Event) {
	e.Tick = m.tick
	m.events = append(m.events, e)
	m.bus.Emit(e)
}

func (m *Match) trace(channel string, payload any) {
	if m.tracer != nil {
		m.tracer.Trace(channel, payload)
	}
}

func (m *Match) spawnFx(kind fx.Kind, pos, vel geom.Vec3, life float64) {
	if m.fx != nil {
		m.fx.Spawn(kind, pos, vel, life)
	}
}
