package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/votemamu/web/internal/config"
	"github.com/votemamu/web/internal/logging"
)

// gcraScript keeps one theoretical arrival time per key (GCRA).  A request
// is admitted when it arrives no earlier than tat - burst*interval; the key
// expires once the bucket would be full again.
//
// Returns {allowed, remaining, retry_after_ms}.
var gcraScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local tat = tonumber(redis.call('GET', KEYS[1])) or now
if tat < now then tat = now end
local window = burst * interval
local earliest = tat + interval - window
if now < earliest then
	return {0, 0, earliest - now}
end
tat = tat + interval
redis.call('SET', KEYS[1], tat, 'PX', math.max(1, tat - now))
return {1, math.floor((now - (tat - window)) / interval), 0}
`)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits requests per key against a shared redis bucket.
type Limiter struct {
	rdb      *redis.Client
	interval time.Duration
	burst    int
	now      func() time.Time
}

func NewLimiter(rdb *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{rdb: rdb, interval: cfg.Interval(), burst: cfg.Burst, now: time.Now}
}

// Take spends one request from the bucket of key.
func (l *Limiter) Take(ctx context.Context, key string) (Decision, error) {
	res, err := gcraScript.Run(ctx, l.rdb, []string{key},
		l.now().UnixMilli(), l.interval.Milliseconds(), l.burst).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, errUnexpectedReply
	}
	return Decision{
		Allowed:    cast.ToInt64(res[0]) == 1,
		Remaining:  cast.ToInt(res[1]),
		RetryAfter: time.Duration(cast.ToInt64(res[2])) * time.Millisecond,
	}, nil
}

type limiterError string

func (e limiterError) Error() string { return string(e) }

const errUnexpectedReply = limiterError("ratelimit: unexpected script reply")

// NewTokenBucket throttles the routes it wraps.  It passes everything
// through when disabled, without redis, or when redis fails.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logging.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	log = logging.OrNoOp(log)
	lim := NewLimiter(rdb, cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			d, err := lim.Take(c.Request().Context(), key)
			if err != nil {
				log.Warn("ratelimit: check failed, admitting", "key", key, "error", err)
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Verbose {
				log.Info("ratelimit: throttled", "key", key, "retry_after", d.RetryAfter.String())
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too_many_requests",
				"message":     "অনেকবার চেষ্টা করা হয়েছে, কিছুক্ষণ পরে আবার চেষ্টা করুন",
				"retry_after": secs,
			})
		}
	}
}

// buildRateKey joins the prefix with each attribute named in cfg.KeyBy.
// Unknown names are skipped.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	for _, by := range cfg.KeyBy {
		switch by {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			parts = append(parts, "ip", ip)
		case "session", "user":
			parts = append(parts, "user", userID(c))
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(parts, ":")
}
