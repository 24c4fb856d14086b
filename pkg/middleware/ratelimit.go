package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/redis"
)

// RateLimitConfig tunes the per-voter toggle limiter.
type RateLimitConfig struct {
	// Requests allowed per voter per window.
	Requests int64
	Window   time.Duration
}

// VoteRateLimit caps how fast a single voter may toggle votes. The limiter
// fails open: if Redis is unreachable the toggle still goes through.
func VoteRateLimit(limiter *redis.RateLimiter, cfg RateLimitConfig, logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			tenantID := clovercontext.GetTenantID(ctx)
			userID := clovercontext.GetUserID(ctx)
			if userID == "" {
				return next(c)
			}

			key := fmt.Sprintf("votes:%s:%s", tenantID, userID)
			result, err := limiter.Allow(ctx, key, cfg.Requests, cfg.Window)
			if err != nil {
				logger.WithContext(ctx).WithError(err).Error("Rate limit check failed, allowing request")
				return next(c)
			}

			if !result.Allowed {
				metrics.RateLimitHits.WithLabelValues(tenantID).Inc()
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(result.RetryIn.Seconds())+1))
				return httperror.NewHTTPError(http.StatusTooManyRequests, "too many vote changes, slow down")
			}

			return next(c)
		}
	}
}
