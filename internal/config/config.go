// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

type Config struct {
	Port           string
	StaticDir      string
	AllowedOrigins []string
	TuningFile     string
	Trace          bool

	TickRate      int
	BroadcastRate int
	MaxSessions   int
	MaxConnsPerIP int
	MsgRate       int

	Codec Codec
}

func Default() Config {
	return Config{
		Port:          "8080",
		StaticDir:     "../client/dist",
		TickRate:      60,
		BroadcastRate: 30,
		MaxSessions:   100,
		MaxConnsPerIP: 4,
		MsgRate:       120,
		Codec:         CodecJSON,
	}
}

// Load applies environment overrides on top of Default.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	c := Default()
	if v := getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		c.StaticDir = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	c.TuningFile = getenv("TUNING_FILE")
	if v := getenv("TRACE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("TRACE: %w", err)
		}
		c.Trace = b
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TICK_RATE", &c.TickRate},
		{"BROADCAST_RATE", &c.BroadcastRate},
		{"MAX_SESSIONS", &c.MaxSessions},
		{"MAX_CONNS_PER_IP", &c.MaxConnsPerIP},
		{"MSG_RATE", &c.MsgRate},
	}
	for _, it := range ints {
		v := getenv(it.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", it.key, err)
		}
		if n <= 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %d", it.key, n)
		}
		*it.dst = n
	}
	if c.BroadcastRate > c.TickRate {
		c.BroadcastRate = c.TickRate
	}

	if v := getenv("CODEC"); v != "" {
		switch Codec(strings.ToLower(v)) {
		case CodecJSON:
			c.Codec = CodecJSON
		case CodecMsgpack:
			c.Codec = CodecMsgpack
		default:
			return Config{}, fmt.Errorf("CODEC: unknown codec %q", v)
		}
	}
	return c, nil
}

// BroadcastEvery is how many ticks pass between snapshot broadcasts.
func (c Config) BroadcastEvery() int {
	if c.BroadcastRate <= 0 {
		return 1
	}
	n := c.TickRate / c.BroadcastRate
	if n < 1 {
		return 1
	}
	return n
}
