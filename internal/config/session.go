package config

import "time"

// SessionConfig controls the Redis session cache.  TTL is refreshed on
// every write so an active planner session never expires mid-edit.
type SessionConfig struct {
	Prefix string
	TTL    time.Duration
}

func LoadSessionConfig() SessionConfig {
	return SessionConfig{
		Prefix: envStr("SESSION_CACHE_PREFIX", "planner"),
		TTL:    envDur("SESSION_CACHE_TTL", 24*time.Hour),
	}
}
