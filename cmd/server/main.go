package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vladimirvolkov/pursuit/server/internal/config"
	"github.com/vladimirvolkov/pursuit/server/internal/game"
	"github.com/vladimirvolkov/pursuit/server/internal/logger"
	"github.com/vladimirvolkov/pursuit/server/internal/middleware"
	"github.com/vladimirvolkov/pursuit/server/internal/session"
	"github.com/vladimirvolkov/pursuit/server/internal/ws"
)

// securityHeaders wraps a handler with common security response headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// noCache keeps browsers from holding on to stale client bundles.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func main() {
	// Write logs to stdout so the platform doesn't mark them as errors
	log.SetOutput(os.Stdout)
	lg := logger.New("server")

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalf("config: %v", err)
	}

	tuning := game.DefaultTuning()
	if cfg.TuningFile != "" {
		tuning, err = game.LoadTuning(cfg.TuningFile)
		if err != nil {
			lg.Fatalf("tuning: %v", err)
		}
		lg.Printf("loaded tuning from %s", cfg.TuningFile)
	}

	var tracer game.Tracer
	if cfg.Trace {
		tracer = game.LogTracer{Logger: logger.New("trace")}
	}

	codec, err := ws.ParseCodec(string(cfg.Codec))
	if err != nil {
		lg.Fatalf("codec: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewIPRateLimiter(cfg.MaxConnsPerIP, cfg.MsgRate, time.Second)
	go limiter.Run(ctx, 5*time.Minute)

	manager := session.NewManager(cfg, tuning, tracer)
	hub := ws.NewHub(manager, ws.HubOptions{
		MaxSessions:    cfg.MaxSessions,
		DefaultCodec:   codec,
		Limiter:        limiter,
		OriginPatterns: cfg.AllowedOrigins,
	})
	manager.Ender = hub

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Stats())
	})
	mux.Handle("/", noCache(http.FileServer(http.Dir(cfg.StaticDir))))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}

	go func() {
		<-ctx.Done()
		lg.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	lg.Printf("pursuit server starting on :%s (tick %d Hz, broadcast every %d, codec %s)",
		cfg.Port, cfg.TickRate, cfg.BroadcastEvery(), codec.Name())
	lg.Printf("serving static files from %s", cfg.StaticDir)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		lg.Fatalf("server error: %v", err)
	}
	lg.Println("server stopped")
}
