// Package session drives one match for one connected client.
package session

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vladimirvolkov/pursuit/server/internal/game"
	"github.com/vladimirvolkov/pursuit/server/internal/geom"
	"github.com/vladimirvolkov/pursuit/server/internal/ws"
)

// Peer is the connection a session talks to.
type Peer interface {
	Send(msg ws.Message)
	ReadLoop(ctx context.Context) <-chan ws.Message
	Codec() ws.Codec
	Close()
	Done() <-chan struct{}
}

type Options struct {
	ID             string
	TickRate       int
	BroadcastEvery int
	Logger         *log.Logger
}

// Session owns a match. Only the game loop goroutine touches the match;
// the read loop hands it inputs and commands.
type Session struct {
	id             string
	peer           Peer
	match          *game.Match
	log            *log.Logger
	tickRate       int
	broadcastEvery int

	input   game.Input
	inputMu sync.Mutex
	cmds    chan func(*game.Match) error
	tick    atomic.Uint32

	cancel context.CancelFunc
	done   chan struct{}
}

func New(peer Peer, match *game.Match, opts Options) *Session {
	if opts.TickRate <= 0 {
		opts.TickRate = game.TickRate
	}
	if opts.BroadcastEvery <= 0 {
		opts.BroadcastEvery = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Session{
		id:             opts.ID,
		peer:           peer,
		match:          match,
		log:            opts.Logger,
		tickRate:       opts.TickRate,
		broadcastEvery: opts.BroadcastEvery,
		cmds:           make(chan func(*game.Match) error, 16),
	}
}

func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.send(ws.MsgWelcome, ws.WelcomePayload{
		SessionID: s.id,
		MatchID:   s.match.ID,
		Codec:     s.peer.Codec().Name(),
		TickRate:  s.tickRate,
	})
	s.broadcast(s.match.Snapshot())

	go s.readLoop(ctx)
	go func() {
		s.gameLoop(ctx)
		close(s.done)
	}()
}

// Done returns a channel that closes when the game loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) readLoop(ctx context.Context) {
	msgs := s.peer.ReadLoop(ctx)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				s.log.Printf("session %s: client disconnected", s.id)
				s.cancel()
				return
			}
			s.handleMessage(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleMessage(msg ws.Message) {
	codec := s.peer.Codec()
	switch msg.Type {
	case ws.MsgInput:
		var in game.Input
		if err := codec.Unmarshal(msg.Payload, &in); err != nil {
			return
		}
		in.AnalogSteer = geom.Clamp(in.AnalogSteer, -1, 1)
		s.inputMu.Lock()
		s.input = in
		s.inputMu.Unlock()

	case ws.MsgSettings:
		var st game.Settings
		if err := codec.Unmarshal(msg.Payload, &st); err != nil {
			s.sendError("bad settings payload")
			return
		}
		s.enqueue(func(m *game.Match) error { return m.ApplySettings(st) })

	case ws.MsgControl:
		var c ws.ControlPayload
		if err := codec.Unmarshal(msg.Payload, &c); err != nil {
			return
		}
		cmd, ok := controlCommand(c.Action)
		if !ok {
			s.sendError("unknown action " + c.Action)
			return
		}
		s.enqueue(cmd)

	case ws.MsgPing:
		var ping ws.PingPayload
		if err := codec.Unmarshal(msg.Payload, &ping); err != nil {
			return
		}
		s.send(ws.MsgPong, ws.PongPayload{
			ClientTime: ping.ClientTime,
			ServerTime: uint64(time.Now().UnixMilli()),
		})
	}
}

func controlCommand(action string) (func(*game.Match) error, bool) {
	var fn func(*game.Match)
	switch action {
	case ws.ActionStart:
		fn = func(m *game.Match) { m.Start(true) }
	case ws.ActionContinue:
		fn = (*game.Match).Continue
	case ws.ActionRestart:
		fn = (*game.Match).Restart
	case ws.ActionPause:
		fn = func(m *game.Match) { m.SetPaused(true) }
	case ws.ActionResume:
		fn = func(m *game.Match) { m.SetPaused(false) }
	default:
		return nil, false
	}
	return func(m *game.Match) error { fn(m); return nil }, true
}

func (s *Session) enqueue(cmd func(*game.Match) error) {
	select {
	case s.cmds <- cmd:
	default:
		s.log.Printf("session %s: command queue full, dropping", s.id)
	}
}

func (s *Session) gameLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.tickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.step(dt)
		case <-ctx.Done():
			return
		}
	}
}

// step applies queued commands and advances the match once.
func (s *Session) step(dt float64) {
drain:
	for {
		select {
		case cmd := <-s.cmds:
			if err := cmd(s.match); err != nil {
				s.sendError(err.Error())
			}
		default:
			break drain
		}
	}

	s.inputMu.Lock()
	in := s.input
	s.inputMu.Unlock()

	snap := s.match.Tick(dt, in)
	tick := s.tick.Add(1)
	for _, e := range snap.Events {
		s.send(ws.MsgEvent, e)
		switch e.Type {
		case game.EventGameOver, game.EventChampion:
			s.log.Printf("session %s: %s score=%d", s.id, e.Type, snap.Score)
		}
	}
	if int(tick)%s.broadcastEvery == 0 || len(snap.Events) > 0 {
		snap.Events = nil
		s.broadcast(snap)
	}
}

func (s *Session) broadcast(snap game.Snapshot) {
	s.send(ws.MsgSnapshot, snap)
}

func (s *Session) send(typ uint8, payload any) {
	msg, err := ws.NewMessage(s.peer.Codec(), typ, s.tick.Load(), payload)
	if err != nil {
		s.log.Printf("session %s: encode 0x%02x: %v", s.id, typ, err)
		return
	}
	s.peer.Send(msg)
}

func (s *Session) sendError(text string) {
	s.send(ws.MsgError, ws.ErrorPayload{Message: text})
}
