package session

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/vladimirvolkov/pursuit/server/internal/config"
	"github.com/vladimirvolkov/pursuit/server/internal/game"
	"github.com/vladimirvolkov/pursuit/server/internal/ws"
)

type fakePeer struct {
	codec ws.Codec
	in    chan ws.Message
	out   chan ws.Message
	done  chan struct{}
	once  sync.Once
}

func newFakePeer() *fakePeer {
	return &fakePeer{
		codec: ws.JSONCodec{},
		in:    make(chan ws.Message, 16),
		out:   make(chan ws.Message, 1024),
		done:  make(chan struct{}),
	}
}

func (p *fakePeer) Send(msg ws.Message) {
	select {
	case p.out <- msg:
	default:
	}
}

func (p *fakePeer) ReadLoop(ctx context.Context) <-chan ws.Message { return p.in }
func (p *fakePeer) Codec() ws.Codec                                { return p.codec }
func (p *fakePeer) Close()                                         { p.once.Do(func() { close(p.done) }) }
func (p *fakePeer) Done() <-chan struct{}                          { return p.done }

// next returns the first queued message of type typ, skipping others.
func (p *fakePeer) next(t *testing.T, typ uint8) ws.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-p.out:
			if msg.Type == typ {
				return msg
			}
		case <-timeout:
			t.Fatalf("no message 0x%02x", typ)
		}
	}
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestSession(t *testing.T, p *fakePeer) *Session {
	t.Helper()
	m, err := game.NewMatch(game.Options{Seed: 7})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	return New(p, m, Options{ID: "test", BroadcastEvery: 2, Logger: quietLogger()})
}

func snapshotOf(t *testing.T, c ws.Codec, msg ws.Message) game.Snapshot {
	t.Helper()
	var s game.Snapshot
	if err := c.Unmarshal(msg.Payload, &s); err != nil {
		t.Fatalf("snapshot payload: %v", err)
	}
	return s
}

func TestControlStartRunsMatch(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	s.handleMessage(mustMessage(t, p, ws.MsgControl, ws.ControlPayload{Action: ws.ActionStart}))
	s.step(1.0 / 60)

	snap := snapshotOf(t, p.codec, p.next(t, ws.MsgSnapshot))
	if snap.Phase != "running" {
		t.Fatalf("phase = %q, want running", snap.Phase)
	}
	if snap.Events != nil {
		t.Fatal("snapshot should not carry events, they go out as separate frames")
	}
}

func TestLevelStartedSentAsEvent(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	s.handleMessage(mustMessage(t, p, ws.MsgControl, ws.ControlPayload{Action: ws.ActionStart}))
	s.step(1.0 / 60)

	for len(p.out) > 0 {
		msg := <-p.out
		if msg.Type != ws.MsgEvent {
			continue
		}
		var e game.Event
		if err := p.codec.Unmarshal(msg.Payload, &e); err != nil {
			t.Fatalf("event payload: %v", err)
		}
		if e.Type == game.EventLevelStarted {
			return
		}
	}
	t.Fatal("no level started event sent")
}

func TestUnknownActionReportsError(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	s.handleMessage(mustMessage(t, p, ws.MsgControl, ws.ControlPayload{Action: "jump"}))

	var e ws.ErrorPayload
	if err := p.codec.Unmarshal(p.next(t, ws.MsgError).Payload, &e); err != nil {
		t.Fatalf("error payload: %v", err)
	}
	if e.Message == "" {
		t.Fatal("expected error text")
	}
}

func TestBadSettingsReportedOnTick(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	s.handleMessage(mustMessage(t, p, ws.MsgSettings, game.Settings{Difficulty: "nightmare"}))
	s.step(1.0 / 60)

	p.next(t, ws.MsgError)
	if got := s.match.Settings().Difficulty; got != game.DifficultyClassic {
		t.Fatalf("difficulty = %q, want unchanged", got)
	}
}

func TestSettingsApplied(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	want := game.Settings{Difficulty: game.DifficultyBrutal, RampDensity: game.DensityHigh, InvertSteer: true}
	s.handleMessage(mustMessage(t, p, ws.MsgSettings, want))
	s.step(1.0 / 60)

	if got := s.match.Settings(); got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestPingPong(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	s.handleMessage(mustMessage(t, p, ws.MsgPing, ws.PingPayload{ClientTime: 1234}))

	var pong ws.PongPayload
	if err := p.codec.Unmarshal(p.next(t, ws.MsgPong).Payload, &pong); err != nil {
		t.Fatalf("pong payload: %v", err)
	}
	if pong.ClientTime != 1234 || pong.ServerTime == 0 {
		t.Fatalf("unexpected pong %+v", pong)
	}
}

func TestInputSteerClamped(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	s.handleMessage(mustMessage(t, p, ws.MsgInput, game.Input{AnalogActive: true, AnalogSteer: 7}))
	s.inputMu.Lock()
	got := s.input.AnalogSteer
	s.inputMu.Unlock()
	if got != 1 {
		t.Fatalf("analog steer = %v, want 1", got)
	}
}

func TestSnapshotThrottled(t *testing.T) {
	p := newFakePeer()
	s := newTestSession(t, p)

	for i := 0; i < 10; i++ {
		s.step(1.0 / 60)
	}
	n := 0
	for len(p.out) > 0 {
		if (<-p.out).Type == ws.MsgSnapshot {
			n++
		}
	}
	if n != 5 {
		t.Fatalf("snapshots = %d, want 5 for 10 idle ticks at every 2", n)
	}
}

func TestManagerEndsSessionWhenPeerCloses(t *testing.T) {
	p := newFakePeer()
	ender := &countingEnder{ch: make(chan struct{}, 1)}
	m := NewManager(config.Default(), game.DefaultTuning(), nil)
	m.Ender = ender
	m.log = quietLogger()

	s := m.start(p, "peer-1")
	if s == nil {
		t.Fatal("session not started")
	}
	p.next(t, ws.MsgWelcome)
	p.Close()

	select {
	case <-ender.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("game loop still running")
	}
}

func TestManagerRejectsBadTuning(t *testing.T) {
	p := newFakePeer()
	ender := &countingEnder{ch: make(chan struct{}, 1)}
	tuning := game.DefaultTuning()
	tuning.Hit.Radius = 0
	m := NewManager(config.Default(), tuning, nil)
	m.Ender = ender
	m.log = quietLogger()

	if s := m.start(p, "peer-2"); s != nil {
		t.Fatal("expected no session")
	}
	select {
	case <-p.Done():
	default:
		t.Fatal("peer should be closed")
	}
	<-ender.ch
}

type countingEnder struct{ ch chan struct{} }

func (e *countingEnder) SessionEnded() { e.ch <- struct{}{} }

func mustMessage(t *testing.T, p *fakePeer, typ uint8, payload any) ws.Message {
	t.Helper()
	msg, err := ws.NewMessage(p.codec, typ, 0, payload)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	return msg
}
