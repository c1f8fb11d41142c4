package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoggerMiddleware logs one line per admin request. Health probes go to debug,
// server errors to warn.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= stdhttp.StatusInternalServerError:
			event = logger.Warn()
		case c.Request.URL.Path == "/health":
			event = logger.Debug()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client", c.ClientIP()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("admin request")
	}
}
