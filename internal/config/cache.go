package config

import (
    "time"
)

// CacheConfig drives the Redis response cache in front of the public
// portfolio endpoints.  Caching is off when Enabled is false or no Redis
// client is available.  Admin writes to projects purge every entry under
// Prefix.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 60*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "theta:cache:projects"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 { cfg.TTL = 60 * time.Second }
    return cfg
}
