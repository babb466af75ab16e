package config

import "time"

// CacheConfig controls the Redis response cache placed in front of the
// read-heavy reporting endpoints (leaderboard, dashboard stats). When
// Enabled is false or no Redis client is configured the middleware is a
// pass-through.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables. The default TTL is
// short because the dashboard is refresh-driven and should stay close to
// live data.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
