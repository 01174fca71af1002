package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type visitor struct {
	connections int
	tokens      float64
	lastRefill  time.Time
}

// IPRateLimiter tracks per-IP connection counts and message rates.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time

	maxConnsPerIP int
	burst         float64
	refillPerSec  float64
}

// NewIPRateLimiter creates a rate limiter.
//   - maxConnsPerIP: max simultaneous WebSocket connections per IP
//   - msgRate: messages allowed per msgWindow, also the burst size
//   - msgWindow: time window for message rate
func NewIPRateLimiter(maxConnsPerIP, msgRate int, msgWindow time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		visitors:      make(map[string]*visitor),
		now:           time.Now,
		maxConnsPerIP: maxConnsPerIP,
		burst:         float64(msgRate),
		refillPerSec:  float64(msgRate) / msgWindow.Seconds(),
	}
}

func (rl *IPRateLimiter) lookup(ip string) *visitor {
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.burst, lastRefill: rl.now()}
		rl.visitors[ip] = v
	}
	return v
}

// ConnectAllowed checks if an IP can open a new connection.
// If allowed, increments the connection count and returns true.
func (rl *IPRateLimiter) ConnectAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v := rl.lookup(ip)
	if v.connections >= rl.maxConnsPerIP {
		return false
	}
	v.connections++
	return true
}

// Disconnect decrements the connection count for an IP.
func (rl *IPRateLimiter) Disconnect(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		return
	}
	v.connections = max(0, v.connections-1)
}

// MessageAllowed spends one token from the IP's bucket. Tokens refill
// continuously up to the burst size.
func (rl *IPRateLimiter) MessageAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v := rl.lookup(ip)
	now := rl.now()
	v.tokens = min(rl.burst, v.tokens+now.Sub(v.lastRefill).Seconds()*rl.refillPerSec)
	v.lastRefill = now
	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// Run removes idle entries every interval until ctx is done.
func (rl *IPRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (rl *IPRateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.connections <= 0 {
			delete(rl.visitors, ip)
		}
	}
}

// RealIP extracts the client IP from the request.
// Checks X-Forwarded-For (for reverse proxies) then RemoteAddr.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if comma := strings.Index(xff, ","); comma > 0 {
			return strings.TrimSpace(xff[:comma])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
