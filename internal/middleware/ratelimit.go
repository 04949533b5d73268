package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/elmazzun/jwt-manager/internal/logging"
)

// LoginThrottle limits login attempts per client IP with a fixed window
// counter in Redis, keeping brute force off the bcrypt path. A nil client
// or non-positive limit disables it.
func LoginThrottle(rdb *redis.Client, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rdb == nil || limit <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("login_attempts:%s", c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// The throttle being down must not lock everyone out.
				logging.FromContext(ctx).Warn("login throttle unavailable", "error", err)
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, window)
			}
			if count > limit {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			}

			return next(c)
		}
	}
}
