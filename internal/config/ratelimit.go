package config

import (
	"strings"
	"time"
)

// RateLimitConfig tunes the throttle in front of login, registration and
// OTP routes.  A client may send Burst requests at once and then Rate
// requests per Period.
type RateLimitConfig struct {
	Enabled bool
	Burst   int
	Rate    int
	Period  time.Duration
	// KeyBy lists the request attributes a bucket is keyed on: ip,
	// session and route.
	KeyBy   []string
	Prefix  string
	Verbose bool
}

// Interval is the time one request's worth of allowance takes to return.
func (c RateLimitConfig) Interval() time.Duration {
	if c.Rate < 1 || c.Period <= 0 {
		return time.Second
	}
	return c.Period / time.Duration(c.Rate)
}

func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Burst:   envInt("RATE_LIMIT_BURST", 5),
		Rate:    envInt("RATE_LIMIT_RATE", 1),
		Period:  envDur("RATE_LIMIT_PERIOD", 30*time.Second),
		KeyBy:   splitList(envStr("RATE_LIMIT_KEY", "ip,route")),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "votemamu:rl"),
		Verbose: envBool("RATE_LIMIT_VERBOSE", false),
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.Rate < 1 {
		c.Rate = 1
	}
	if c.Period <= 0 {
		c.Period = time.Second
	}
	if len(c.KeyBy) == 0 {
		c.KeyBy = []string{"ip"}
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
