package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the login attempt limiter.  The limiter counts
// attempts per username+client-address key inside a fixed window anchored at
// the first attempt; it is not a decaying sliding window.  Changing Window
// or MaxAttempts changes the observable lockout duration for users.
type RateLimitConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		MaxAttempts: envInt("RATE_LIMIT_MAX_ATTEMPTS", 5),
		Window:      envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if def.MaxAttempts < 1 {
		def.MaxAttempts = 1
	}
	if def.Window <= 0 {
		def.Window = 15 * time.Minute
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
