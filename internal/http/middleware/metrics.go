package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/observability"
)

// Metrics instruments request counts and latency. Healthcheck probes are not
// recorded; they would dominate every histogram bucket.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/healthcheck" {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// routeLabel keeps the gin route template so path params collapse into one
// series per endpoint. Unmatched paths share a single label to stop scanners
// from minting unbounded series.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
