package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache placed in front of
// GET /api/behaviors/stats.  When Enabled is false or no Redis client is
// configured, caching is disabled.  Entries are dropped whenever a behavior
// record is created, so TTL only bounds staleness from out-of-band writes.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route"),
		Prefix:       getenv("CACHE_PREFIX", "cache:stats"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 65536),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range splitList(s) {
		m[strings.ToUpper(p)] = true
	}
	return m
}
