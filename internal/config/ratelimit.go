package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig tunes the Redis token-bucket limiter that protects the
// search endpoint. Every upstream search fans out into several provider
// calls, so the bucket capacity is deliberately lower than a generic API
// limiter would use.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads rate-limiter settings from the environment,
// falling back to defaults sized for the search fan-out.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 { cfg.Capacity = 1 }
	if cfg.RefillTokens < 1 { cfg.RefillTokens = 1 }
	if cfg.RefillInterval <= 0 { cfg.RefillInterval = time.Second }
	minTTL := 5 * cfg.RefillInterval
	if cfg.TTL < minTTL { cfg.TTL = minTTL }
	return cfg
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" { return d }
	switch v {
	case "1","true","TRUE","True","yes","YES","on","ON": return true
	case "0","false","FALSE","False","no","NO","off","OFF": return false
	}
	return d
}
func envInt(k string, d int) int {
	v := os.Getenv(k); if v == "" { return d }
	if n, err := strconv.Atoi(v); err == nil { return n }
	return d
}
func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k); if v == "" { return d }
	if dur, err := time.ParseDuration(v); err == nil { return dur }
	return d
}
