package game

import (
	"errors"
	"math"
	"testing"

	"github.com/vladimirvolkov/pursuit/server/internal/geom"
)

const testDT = 1.0 / 60

// newQuietMatch starts a seeded run on an empty arena with no bots or
// pickups, so a test only sees what it places.
func newQuietMatch(t *testing.T) *Match {
	t.Helper()
	m, err := NewMatch(Options{Seed: 42})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	m.Start(true)
	m.bots = nil
	m.arena = Arena{}
	m.pickups = nil
	return m
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestNewMatchStartsIdle(t *testing.T) {
	m, err := NewMatch(Options{Seed: 7})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	if m.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", m.Phase())
	}
	if m.ID == "" {
		t.Fatal("expected a match id")
	}
	s := m.Tick(testDT, Input{Throttle: true})
	if s.TimeLeft != 70 {
		t.Fatalf("idle match must not run the clock, got %v", s.TimeLeft)
	}
	if s.Lives != StartLives {
		t.Fatalf("expected %d lives, got %d", StartLives, s.Lives)
	}
}

func TestNewMatchRejectsBadSettings(t *testing.T) {
	_, err := NewMatch(Options{Settings: Settings{Difficulty: "nightmare"}})
	if !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
	_, err = NewMatch(Options{Settings: Settings{RampDensity: "dense"}})
	if !errors.Is(err, ErrUnknownRampDensity) {
		t.Fatalf("expected ErrUnknownRampDensity, got %v", err)
	}
	_, err = NewMatch(Options{Catalog: []WorldDef{{Name: "empty"}}})
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestMetersStayBounded(t *testing.T) {
	m, err := NewMatch(Options{Seed: 99, Settings: Settings{Difficulty: DifficultyBrutal}})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	m.Start(true)

	for i := 0; i < 6000; i++ {
		in := Input{
			Throttle:   true,
			Drift:      i%240 < 120,
			Boost:      i%300 < 90,
			SteerLeft:  i%180 < 60,
			SteerRight: i%180 > 120,
		}
		s := m.Tick(testDT, in)
		if s.Boost < 0 || s.Boost > 1 {
			t.Fatalf("tick %d: boost out of range: %v", i, s.Boost)
		}
		if s.Shield < 0 || s.Shield > 1 {
			t.Fatalf("tick %d: shield out of range: %v", i, s.Shield)
		}
		if s.Combo < 1 || s.Combo > ComboMax {
			t.Fatalf("tick %d: combo out of range: %v", i, s.Combo)
		}
		if s.Lives < 0 || s.Lives > MaxLives {
			t.Fatalf("tick %d: lives out of range: %d", i, s.Lives)
		}
		if s.Score < 0 {
			t.Fatalf("tick %d: negative score %d", i, s.Score)
		}
		if s.Heat < 0 || s.Heat > HeatMax {
			t.Fatalf("tick %d: heat out of range: %v", i, s.Heat)
		}
		if m.Phase() != PhaseRunning {
			m.Continue()
		}
	}
}

func TestThrottleFromRest(t *testing.T) {
	m := newQuietMatch(t)
	for i := 0; i < 60; i++ {
		m.Tick(testDT, Input{Throttle: true})
		if m.player.Speed > PlayerMaxSpeed*BoostMultiplier {
			t.Fatalf("speed %v above boosted cap", m.player.Speed)
		}
	}
	sp := m.player.Speed
	if sp <= 0 || sp > PlayerMaxSpeed {
		t.Fatalf("expected speed in (0, %v], got %v", PlayerMaxSpeed, sp)
	}
	if math.Abs(sp-PlayerAccel) > 0.5 {
		t.Fatalf("expected about %v after one second, got %v", PlayerAccel, sp)
	}

	for i := 0; i < 600; i++ {
		m.Tick(testDT, Input{Throttle: true})
	}
	if m.player.Speed != PlayerMaxSpeed {
		t.Fatalf("expected speed to settle at max, got %v", m.player.Speed)
	}
}

func TestCoastNeverReverses(t *testing.T) {
	m := newQuietMatch(t)
	m.player.Speed = 3
	for i := 0; i < 120; i++ {
		m.Tick(testDT, Input{})
		if m.player.Speed < 0 {
			t.Fatalf("coasting crossed zero: %v", m.player.Speed)
		}
	}
	if m.player.Speed != 0 {
		t.Fatalf("expected coast to stop, got %v", m.player.Speed)
	}
}

func TestBoostedBrakeBitesHarder(t *testing.T) {
	drop := func(boost bool) float64 {
		m := newQuietMatch(t)
		m.player.Speed = 20
		m.Tick(testDT, Input{Brake: true, Boost: boost})
		return 20 - m.player.Speed
	}
	plain, boosted := drop(false), drop(true)
	if math.Abs(boosted/plain-BoostAccelMultiplier) > 1e-6 {
		t.Fatalf("boosted brake drop %v should be %vx the plain drop %v", boosted, BoostAccelMultiplier, plain)
	}
}

func TestMoveHeadingLagsHeading(t *testing.T) {
	m := newQuietMatch(t)
	m.player.Speed = 30
	for i := 0; i < 240; i++ {
		prev := m.player.MoveHeading
		drift := i%100 < 50
		m.Tick(testDT, Input{Throttle: true, SteerLeft: true, Drift: drift})
		grip := NormalGrip
		if drift {
			grip = DriftGrip
		}
		allowed := math.Abs(geom.AngleDiff(prev, m.player.Heading)) * math.Min(1, grip*testDT)
		moved := math.Abs(geom.AngleDiff(prev, m.player.MoveHeading))
		if moved > allowed+1e-9 {
			t.Fatalf("tick %d: moveHeading jumped %v, allowed %v", i, moved, allowed)
		}
	}
}

func TestInvertSteerFlipsTurn(t *testing.T) {
	a := newQuietMatch(t)
	b := newQuietMatch(t)
	if err := b.ApplySettings(Settings{Difficulty: DifficultyClassic, RampDensity: DensityNormal, InvertSteer: true}); err != nil {
		t.Fatalf("apply settings: %v", err)
	}
	b.arena = Arena{}
	b.bots = nil
	for i := 0; i < 30; i++ {
		a.Tick(testDT, Input{Throttle: true, SteerLeft: true})
		b.Tick(testDT, Input{Throttle: true, SteerLeft: true})
	}
	if a.player.Heading <= 0 || b.player.Heading >= 0 {
		t.Fatalf("expected opposite turns, got %v and %v", a.player.Heading, b.player.Heading)
	}
}

func TestTimerEndsOnChampion(t *testing.T) {
	cases := []struct {
		world, level int
		want         Phase
		event        EventType
	}{
		{0, 0, PhaseLevelCleared, EventLevelCleared},
		{1, 2, PhaseWorldCleared, EventWorldCleared},
		{2, 2, PhaseChampion, EventChampion},
	}
	for _, tc := range cases {
		m := newQuietMatch(t)
		m.worldIndex, m.levelIndex = tc.world, tc.level
		m.Start(false)
		m.bots = nil
		m.arena = Arena{}
		m.run.TimeLeft = testDT
		s := m.Tick(testDT, Input{})
		if m.Phase() != tc.want {
			t.Fatalf("world %d level %d: expected %s, got %s", tc.world, tc.level, tc.want, m.Phase())
		}
		if s.TimeLeft != 0 {
			t.Fatalf("expected time left 0, got %v", s.TimeLeft)
		}
		if !hasEvent(s.Events, tc.event) {
			t.Fatalf("expected %s event in %+v", tc.event, s.Events)
		}
	}
}

func TestContinueWrapsProgression(t *testing.T) {
	m := newQuietMatch(t)
	m.phase = PhaseLevelCleared
	m.run.Score = 500
	m.Continue()
	if m.worldIndex != 0 || m.levelIndex != 1 {
		t.Fatalf("expected 0/1, got %d/%d", m.worldIndex, m.levelIndex)
	}
	if m.run.Score != 500 {
		t.Fatalf("level advance must keep score, got %v", m.run.Score)
	}

	m.worldIndex, m.levelIndex = 2, 2
	m.phase = PhaseChampion
	m.Continue()
	if m.worldIndex != 0 || m.levelIndex != 0 {
		t.Fatalf("expected wrap to 0/0, got %d/%d", m.worldIndex, m.levelIndex)
	}
	if m.Phase() != PhaseRunning {
		t.Fatalf("expected running, got %s", m.Phase())
	}

	m.phase = PhaseGameOver
	m.run.Lives = 0
	m.Continue()
	if m.run.Lives != StartLives || m.run.Score != 0 {
		t.Fatalf("game over continue must reset the run, got lives %d score %v", m.run.Lives, m.run.Score)
	}
}

func TestPauseSkipsSimulation(t *testing.T) {
	m := newQuietMatch(t)
	m.SetPaused(true)
	before := m.run.TimeLeft
	s := m.Tick(testDT, Input{Throttle: true})
	if s.TimeLeft != before || m.player.Speed != 0 {
		t.Fatalf("paused tick advanced the simulation")
	}
	if !s.Paused {
		t.Fatal("snapshot should report paused")
	}
	m.SetPaused(false)
	m.Tick(testDT, Input{Throttle: true})
	if m.player.Speed == 0 {
		t.Fatal("expected the run to resume")
	}
}

func TestFrameDeltaClamped(t *testing.T) {
	m := newQuietMatch(t)
	before := m.run.TimeLeft
	m.Tick(0.5, Input{})
	if got := before - m.run.TimeLeft; math.Abs(got-MaxFrameDT) > 1e-9 {
		t.Fatalf("expected dt clamp to %v, consumed %v", MaxFrameDT, got)
	}
}

func TestHeatRampsAfterGrace(t *testing.T) {
	m := newQuietMatch(t)
	for i := 0; i < int(HeatGrace*60)-10; i++ {
		m.Tick(testDT, Input{})
	}
	if m.run.Heat != 0 {
		t.Fatalf("heat should not rise during grace, got %v", m.run.Heat)
	}
	for i := 0; i < 60; i++ {
		m.Tick(testDT, Input{})
	}
	if m.run.Heat <= 0 {
		t.Fatal("expected heat to rise after grace")
	}
}

func TestDifficultyChangeRespawnsBots(t *testing.T) {
	m, err := NewMatch(Options{Seed: 5})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	m.Start(true)
	var spawned int
	m.Subscribe(EventBotsSpawned, func(Event) { spawned++ })

	s := m.Settings()
	s.Difficulty = DifficultyCasual
	if err := m.ApplySettings(s); err != nil {
		t.Fatalf("apply settings: %v", err)
	}
	if spawned != 1 {
		t.Fatalf("expected one respawn, got %d", spawned)
	}
	for _, b := range m.bots {
		if b.Role != RoleChase {
			t.Fatalf("casual teamwork should collapse roles, %s is %s", b.Name, b.Role)
		}
		if want := 36 * 0.88; math.Abs(b.MaxSpeed-want) > 1e-9 {
			t.Fatalf("expected bot max speed %v, got %v", want, b.MaxSpeed)
		}
	}

	if err := m.ApplySettings(Settings{Difficulty: "impossible"}); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestNestedRebuildDropped(t *testing.T) {
	var dropped int
	m, err := NewMatch(Options{Seed: 11, Tracer: TracerFunc(func(ch string, payload any) {
		if w, ok := payload.(WorldTrace); ok && ch == TraceWorld && w.Dropped {
			dropped++
		}
	})})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	m.Start(true)

	var rebuilt int
	m.Subscribe(EventWorldRebuilt, func(Event) {
		rebuilt++
		if rebuilt == 1 {
			s := m.Settings()
			s.RampDensity = DensityExtraHigh
			if err := m.ApplySettings(s); err != nil {
				t.Errorf("nested apply: %v", err)
			}
		}
	})

	s := m.Settings()
	s.RampDensity = DensityLow
	if err := m.ApplySettings(s); err != nil {
		t.Fatalf("apply settings: %v", err)
	}
	if rebuilt != 1 {
		t.Fatalf("expected a single rebuild, got %d", rebuilt)
	}
	if dropped != 1 {
		t.Fatalf("expected the nested rebuild to be dropped, got %d", dropped)
	}
	if n := len(m.arena.Ramps); n > densities[DensityLow].Ramps+1 {
		t.Fatalf("arena was rebuilt by the nested call: %d ramps", n)
	}
}
