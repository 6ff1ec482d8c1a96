package middleware

import (
    "bytes"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-pos/internal/config"
)

// cachedResponse is the serialized form of a cache entry.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// bodyCapture tees the response body into a buffer while forwarding
// it to the client, up to a size limit.
type bodyCapture struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
    over   bool
}

func (w *bodyCapture) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
    if !w.over {
        if w.buf.Len()+len(b) <= w.limit {
            w.buf.Write(b)
        } else {
            w.over = true
        }
    }
    return w.ResponseWriter.Write(b)
}

// ResponseCache returns a middleware caching successful responses in
// Redis, keyed by route and query string. The menu and floor listings
// are read far more often than they change, so even a short TTL takes
// most reads off MySQL. Pass-through when disabled or Redis is nil.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg.Prefix, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var entry cachedResponse
                if json.Unmarshal(raw, &entry) == nil {
                    c.Response().Header().Set(echo.HeaderContentType, entry.ContentType)
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(entry.Status, entry.ContentType, entry.Body)
                }
            }

            cw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            if cw.status == http.StatusOK && !cw.over {
                entry := cachedResponse{
                    Status:      cw.status,
                    ContentType: c.Response().Header().Get(echo.HeaderContentType),
                    Body:        cw.buf.Bytes(),
                }
                if raw, err := json.Marshal(entry); err == nil {
                    rdb.Set(ctx, key, raw, cfg.TTL)
                }
            }
            return nil
        }
    }
}

// cacheKey hashes route and query into a stable key under prefix.
func cacheKey(prefix string, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
    return fmt.Sprintf("%s:%x", prefix, sum[:])
}
