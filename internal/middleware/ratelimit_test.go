package middleware

import (
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(conns, rate int) (*IPRateLimiter, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewIPRateLimiter(conns, rate, time.Second)
	rl.now = clk.now
	return rl, clk
}

func TestConnectionCap(t *testing.T) {
	rl, _ := newTestLimiter(2, 10)
	if !rl.ConnectAllowed("1.1.1.1") || !rl.ConnectAllowed("1.1.1.1") {
		t.Fatal("first two connections should pass")
	}
	if rl.ConnectAllowed("1.1.1.1") {
		t.Fatal("third connection should be refused")
	}
	if !rl.ConnectAllowed("2.2.2.2") {
		t.Fatal("other IPs are independent")
	}
	rl.Disconnect("1.1.1.1")
	if !rl.ConnectAllowed("1.1.1.1") {
		t.Fatal("slot should free after disconnect")
	}
	rl.Disconnect("9.9.9.9")
}

func TestMessageBucketRefills(t *testing.T) {
	rl, clk := newTestLimiter(1, 4)
	for i := 0; i < 4; i++ {
		if !rl.MessageAllowed("ip") {
			t.Fatalf("message %d should fit the burst", i)
		}
	}
	if rl.MessageAllowed("ip") {
		t.Fatal("bucket should be empty")
	}
	clk.t = clk.t.Add(250 * time.Millisecond)
	if !rl.MessageAllowed("ip") {
		t.Fatal("a quarter second should refill one token")
	}
	if rl.MessageAllowed("ip") {
		t.Fatal("only one token should have refilled")
	}
	clk.t = clk.t.Add(time.Hour)
	for i := 0; i < 4; i++ {
		rl.MessageAllowed("ip")
	}
	if rl.MessageAllowed("ip") {
		t.Fatal("refill must cap at the burst size")
	}
}

func TestSweepKeepsConnected(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	rl.ConnectAllowed("a")
	rl.MessageAllowed("b")
	rl.sweep()
	if _, ok := rl.visitors["a"]; !ok {
		t.Fatal("connected visitor should survive the sweep")
	}
	if _, ok := rl.visitors["b"]; ok {
		t.Fatal("idle visitor should be swept")
	}
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:4242"
	if got := RealIP(r); got != "10.0.0.5" {
		t.Fatalf("RealIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := RealIP(r); got != "203.0.113.7" {
		t.Fatalf("RealIP with XFF = %q", got)
	}
}
