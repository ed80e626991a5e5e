package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "PerfectRatio/pkg/logger"
)

// RequestLogging logs each HTTP request at debug level.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			l.Debug("http request",
				applogger.String("method", c.Request().Method),
				applogger.String("uri", c.Request().RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}
