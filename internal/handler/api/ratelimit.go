package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"PerfectRatio/internal/service/ratelimit"
	xhttp "PerfectRatio/pkg/http"
	applogger "PerfectRatio/pkg/logger"
)

// RateLimit enforces the fixed-window budget per client IP and route. A nil
// limiter disables it. Limiter store failures let the request through.
func RateLimit(limiter *ratelimit.FixedWindow, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := c.RealIP() + "|" + c.Request().Method + " " + c.Path()
			d, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				l.Warn("rate limiter unavailable", applogger.String("key", key), applogger.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				appErr := xhttp.TooManyRequestsError(http.StatusText(http.StatusTooManyRequests)).
					WithParam("retry_after_seconds", retry)
				return xhttp.AppErrorResponse(c, appErr)
			}
			return next(c)
		}
	}
}
