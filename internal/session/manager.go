package session

import (
	"context"

	"github.com/vladimirvolkov/pursuit/server/internal/config"
	"github.com/vladimirvolkov/pursuit/server/internal/fx"
	"github.com/vladimirvolkov/pursuit/server/internal/game"
	"github.com/vladimirvolkov/pursuit/server/internal/logger"
	"github.com/vladimirvolkov/pursuit/server/internal/ws"
)

// Ender is told when a session finishes.
type Ender interface {
	SessionEnded()
}

// Manager creates one session per accepted connection.
type Manager struct {
	Config  config.Config
	Tuning  game.Tuning
	Tracer  game.Tracer
	Catalog []game.WorldDef
	Ender   Ender

	log *logger.Logger
}

func NewManager(cfg config.Config, tuning game.Tuning, tracer game.Tracer) *Manager {
	return &Manager{
		Config: cfg,
		Tuning: tuning,
		Tracer: tracer,
		log:    logger.New("session"),
	}
}

func (m *Manager) CreateSession(c *ws.Conn) {
	m.start(c, c.ID)
}

func (m *Manager) start(p Peer, id string) *Session {
	match, err := game.NewMatch(game.Options{
		Tuning:  &m.Tuning,
		Catalog: m.Catalog,
		Tracer:  m.Tracer,
		Effects: fx.NewPool(0),
	})
	if err != nil {
		m.log.Printf("session %s: new match: %v", id, err)
		p.Close()
		if m.Ender != nil {
			m.Ender.SessionEnded()
		}
		return nil
	}

	s := New(p, match, Options{
		ID:             id,
		TickRate:       m.Config.TickRate,
		BroadcastEvery: m.Config.BroadcastEvery(),
		Logger:         m.log,
	})
	s.Start(context.Background())
	m.log.Printf("session %s: match %s started", id, match.ID)

	go func() {
		select {
		case <-s.Done():
		case <-p.Done():
			s.Stop()
			<-s.Done()
		}
		p.Close()
		m.log.Printf("session %s: ended", id)
		if m.Ender != nil {
			m.Ender.SessionEnded()
		}
	}()
	return s
}
