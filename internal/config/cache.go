package config

import "time"

// CacheConfig defines settings for the layout cache middleware.  When
// Enabled is false or no Redis client is configured the layout is built
// on every request.  Cached layouts are keyed by a generation counter
// stored under Prefix, so TTL only bounds memory use: a mutation makes
// every older entry unreachable at once.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Defaults are used when a
// variable is unset or malformed.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 5*time.Minute),
        Prefix:       envStr("CACHE_PREFIX", "layout"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 5 * time.Minute
    }
    return cfg
}
