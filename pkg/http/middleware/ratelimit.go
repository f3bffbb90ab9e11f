package middleware

import (
	"context"
	"net/http"

	applogger "PippyDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Limiter decides whether a key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests over the limit with 429, keyed by client IP.
// Limiter errors fail open.
func RateLimit(lim Limiter, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if lim == nil {
				return next(c)
			}
			key := c.RealIP()
			ok, err := lim.Allow(c.Request().Context(), key)
			if err != nil {
				l.Warn("rate limiter error", applogger.Error(err), applogger.String("key", key))
				return next(c)
			}
			if !ok {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "Too Many Requests",
				})
			}
			return next(c)
		}
	}
}
