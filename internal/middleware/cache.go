package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/pkg/errors"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/seat-planner/internal/config"
    "github.com/iliyamo/seat-planner/internal/metrics"
)

// CacheStore is the subset of the Redis client used by the layout cache.
// *redis.Client satisfies it.
type CacheStore interface {
    Get(ctx context.Context, key string) *redis.StringCmd
    SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
    Incr(ctx context.Context, key string) *redis.IntCmd
}

// captureWriter records status and body while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

func generationKey(cfg config.CacheConfig) string { return cfg.Prefix + ":gen" }

// entryKey addresses one cached response under generation gen.
func entryKey(cfg config.CacheConfig, gen int64, c echo.Context) string {
    r := c.Request()
    sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + r.URL.RawQuery))
    return fmt.Sprintf("%s:%d:%x", cfg.Prefix, gen, sum[:])
}

// cachedResponse is what a cache entry holds.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h,omitempty"`
    Body   []byte      `json:"b"`
}

func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

// decodePayload reports ok=false for anything that is not a complete
// entry, which callers treat as a miss.
func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return 0, nil, nil, false
    }
    if cr.Header == nil {
        cr.Header = http.Header{}
    }
    return cr.Status, cr.Header, cr.Body, true
}

// LayoutCache caches successful GET responses of the routes it wraps.
// Entries are keyed by the current generation, which LayoutInvalidator
// bumps after every committed change.  The generation is read before the
// handler runs, so a response built from older state can only ever be
// stored under an older generation.
func LayoutCache(cfg config.CacheConfig, store CacheStore, m *metrics.Metrics, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || store == nil {
        return passthrough
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()

            gen, err := store.Get(ctx, generationKey(cfg)).Int64()
            if err != nil && !errors.Is(err, redis.Nil) {
                log.WithError(err).Warn("layout cache unavailable")
                return next(c)
            }
            key := entryKey(cfg, gen, c)

            if bs, err := store.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    m.CacheLookup(true)
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            }
            m.CacheLookup(false)

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated() {
                return nil
            }

            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err == nil {
                err = store.SetEx(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err()
            }
            if err != nil {
                log.WithError(err).Warn("store layout in cache")
            }
            return nil
        }
    }
}

// LayoutInvalidator bumps the cache generation.  It implements
// service.ChangeListener.
type LayoutInvalidator struct {
    store CacheStore
    key   string
    log   logrus.FieldLogger
}

func NewLayoutInvalidator(cfg config.CacheConfig, store CacheStore, log logrus.FieldLogger) *LayoutInvalidator {
    return &LayoutInvalidator{store: store, key: generationKey(cfg), log: log}
}

// StateChanged runs after a commit, possibly after the request context
// was cancelled, so it uses a detached context with its own timeout.
func (l *LayoutInvalidator) StateChanged(ctx context.Context) {
    ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
    defer cancel()
    gen, err := l.store.Incr(ctx, l.key).Result()
    if err != nil {
        l.log.WithError(err).Error("bump layout cache generation")
        return
    }
    l.log.WithField("generation", strconv.FormatInt(gen, 10)).Debug("layout cache invalidated")
}
