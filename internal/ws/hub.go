package ws

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/vladimirvolkov/pursuit/server/internal/middleware"
)

// Client frames are inputs and control messages well under this size.
const readLimit = 4096

type SessionCreator interface {
	CreateSession(c *Conn)
}

// HubStats holds live server metrics.
type HubStats struct {
	ActiveSessions   int64  `json:"activeSessions"`
	TotalConnections uint64 `json:"totalConnections"`
	Rejected         uint64 `json:"rejected"`
}

type Hub struct {
	creator     SessionCreator
	maxSessions int64
	codec       Codec

	activeSessions   atomic.Int64
	totalConnections atomic.Uint64
	rejected         atomic.Uint64

	limiter        *middleware.IPRateLimiter
	originPatterns []string
}

type HubOptions struct {
	MaxSessions    int
	DefaultCodec   Codec
	Limiter        *middleware.IPRateLimiter
	OriginPatterns []string
}

func NewHub(creator SessionCreator, opts HubOptions) *Hub {
	codec := opts.DefaultCodec
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Hub{
		creator:        creator,
		maxSessions:    int64(opts.MaxSessions),
		codec:          codec,
		limiter:        opts.Limiter,
		originPatterns: opts.OriginPatterns,
	}
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveSessions:   h.activeSessions.Load(),
		TotalConnections: h.totalConnections.Load(),
		Rejected:         h.rejected.Load(),
	}
}

// SessionEnded decrements the active session counter. Call when a session
// goroutine exits.
func (h *Hub) SessionEnded() {
	h.activeSessions.Add(-1)
}

// reserveSession claims a session slot, failing once the cap is reached.
func (h *Hub) reserveSession() bool {
	for {
		n := h.activeSessions.Load()
		if h.maxSessions > 0 && n >= h.maxSessions {
			return false
		}
		if h.activeSessions.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := middleware.RealIP(r)
	if h.limiter != nil && !h.limiter.ConnectAllowed(ip) {
		h.rejected.Add(1)
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	release := func() {
		if h.limiter != nil {
			h.limiter.Disconnect(ip)
		}
	}

	codec := h.codec
	if name := r.URL.Query().Get("codec"); name != "" {
		c, err := ParseCodec(name)
		if err != nil {
			release()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		codec = c
	}

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}
	ws, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		release()
		log.Printf("ws accept error: %v", err)
		return
	}
	ws.SetReadLimit(readLimit)

	h.totalConnections.Add(1)
	conn := NewConn(ws, uuid.NewString(), ip, codec, h.limiter)
	log.Printf("new connection: %s from %s codec=%s (total: %d)", conn.ID, ip, codec.Name(), h.totalConnections.Load())

	// Background context so the connection outlives the HTTP handler.
	go conn.WriteLoop(context.Background())
	go func() {
		<-conn.Done()
		release()
	}()

	if !h.reserveSession() {
		h.rejected.Add(1)
		log.Printf("max sessions reached, rejecting %s", conn.ID)
		conn.CloseWith(websocket.StatusTryAgainLater, "server full")
		return
	}
	h.creator.CreateSession(conn)

	// Block until the connection is closed so the HTTP handler keeps the
	// underlying TCP connection open.
	<-conn.Done()
	log.Printf("connection closed: %s", conn.ID)
}
