package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/refonic/inventory/internal/api/metrics"
)

// Limiter records an attempt for key and reports whether it is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LoginRateLimit throttles login attempts per client IP. When the limiter
// itself fails the request is let through.
func LoginRateLimit(limiter Limiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			ok, err := limiter.Allow(c.Request().Context(), "login:"+ip)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("login rate limiter unavailable")
				return next(c)
			}
			if !ok {
				metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
			}

			return next(c)
		}
	}
}
