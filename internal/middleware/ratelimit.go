package middleware

import (
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-pos/internal/config"
)

// RateLimit returns a fixed-window request limiter backed by Redis.
// Each client IP gets at most cfg.Limit requests per cfg.Window;
// excess requests receive 429 with a Retry-After header. When the
// limiter is disabled or Redis is unavailable the middleware is a
// pass-through, so a Redis outage never takes the POS down.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            window := time.Now().Unix() / int64(cfg.Window.Seconds())
            key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, c.RealIP(), window)

            n, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                // Counting failed; let the request through.
                return next(c)
            }
            if n == 1 {
                rdb.Expire(ctx, key, cfg.Window)
            }
            if n > int64(cfg.Limit) {
                retry := cfg.Window - time.Duration(time.Now().Unix()%int64(cfg.Window.Seconds()))*time.Second
                c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}
