package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/ctxutil"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// RequestLogger emits one line per request after the handler chain runs.
// Healthcheck probes are skipped; they would drown everything else.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil || c.FullPath() == "/healthcheck" {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if tr, ok := ctxutil.TraceFrom(c.Request.Context()); ok {
			if tr.TraceID != "" {
				fields = append(fields, "trace_id", tr.TraceID)
			}
			if tr.RequestID != "" {
				fields = append(fields, "request_id", tr.RequestID)
			}
		}
		if viewer := Viewer(c); viewer != nil {
			fields = append(fields, "subject_id", viewer.Subject)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "gin_errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
