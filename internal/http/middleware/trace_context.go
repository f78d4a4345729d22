package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext stamps every request with trace and request ids. Caller
// headers win, then an active OTEL span, then a fresh uuid. The ids ride the
// request context and echo back as response headers.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		tr := ctxutil.Trace{
			TraceID:   incomingTraceID(c),
			RequestID: incomingRequestID(c),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTrace(c.Request.Context(), tr))
		c.Writer.Header().Set(headerTraceID, tr.TraceID)
		c.Writer.Header().Set(headerRequestID, tr.RequestID)
		c.Next()
	}
}

func incomingRequestID(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(headerRequestID)); v != "" {
		return v
	}
	return uuid.NewString()
}

func incomingTraceID(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(headerTraceID)); v != "" {
		return v
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}
