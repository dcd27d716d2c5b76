package config

import "time"

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache.  Routes restricts
// caching to the listed route patterns (as registered with echo); an empty
// list caches every route the middleware is attached to.  TTL is kept short
// by default because the booked-seat snapshot is the main cached payload
// and it is purged on every booking or cancellation anyway.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    Routes       map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      toSet(envList("CACHE_METHODS", "GET", true)),
        Routes:       toSet(envList("CACHE_ROUTES", "/v1/layout,/v1/bookings/booked", false)),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

func toSet(items []string) map[string]bool {
    m := make(map[string]bool, len(items))
    for _, it := range items {
        m[it] = true
    }
    return m
}
