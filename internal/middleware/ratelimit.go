package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/seat-planner/internal/config"
)

// tokenBucket refills a per-key bucket and takes one token atomically.
// It returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
    local cap, refill, every = tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
    local now = tonumber(ARGV[1])
    local b = redis.call('HMGET', KEYS[1], 'left', 'at')
    local left, at = tonumber(b[1]) or cap, tonumber(b[2]) or now

    if every > 0 and refill > 0 and now > at then
        local n = math.floor((now - at) / every)
        left = math.min(cap, left + n * refill)
        at = at + n * every
    end

    local ok, wait = 0, 0
    if left >= 1 then
        ok, left = 1, left - 1
    else
        wait = math.max(0, every - (now - at))
    end

    redis.call('HSET', KEYS[1], 'left', left, 'at', at)
    redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
    return { ok, left, wait }
`)

// NewTokenBucket limits requests per key (see buildRateKey).  Redis
// failures let the request through: the limiter protects the service, it
// must never take it down.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }
            vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Slice()
            if err != nil || len(vals) != 3 {
                log.WithError(err).WithField("key", key).Warn("rate limit check skipped")
                return next(c)
            }
            allowed := fmt.Sprint(vals[0]) == "1"
            remaining := asInt64(vals[1])
            retryMs := asInt64(vals[2])

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if allowed {
                return next(c)
            }

            secs := int(math.Ceil(float64(retryMs) / 1000.0))
            if secs < 0 {
                secs = 0
            }
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.WithFields(logrus.Fields{"key": key, "retry_ms": retryMs}).Info("rate limited")
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "success":     false,
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    op := Operator(c)
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "operator":
        parts = append(parts, "op", op)
    case "route":
        parts = append(parts, "route", route)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    default:
        parts = append(parts, "ip", ip, "op", op, "route", route)
    }
    return strings.Join(parts, ":")
}
