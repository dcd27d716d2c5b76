package config

import "time"

// RateLimitConfig drives the Redis token bucket placed in front of every
// route.  A key starts with Capacity tokens and regains RefillTokens every
// RefillInterval; a request costs one token.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    // TTL bounds how long an idle bucket survives in Redis.
    TTL time.Duration
    // KeyStrategy is one of ip, user, ip_route, user_route, ip_user_route.
    KeyStrategy string
    Prefix      string
    // Debug adds the computed bucket key to every response.
    Debug bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* from the environment.  Seat
// suggestions are cheap to ask for repeatedly, so the default allows a
// burst of 60 and one request per second after that.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    cfg.normalize()
    return cfg
}

// normalize raises nonsensical values to the smallest working bucket.  An
// idle bucket must outlive a few refills or it would be recreated full.
func (c *RateLimitConfig) normalize() {
    c.Capacity = max(c.Capacity, 1)
    c.RefillTokens = max(c.RefillTokens, 1)
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    c.TTL = max(c.TTL, 5*c.RefillInterval)
}
