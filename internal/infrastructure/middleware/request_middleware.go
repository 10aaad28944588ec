package middleware

import (
	"regexp"
	"time"

	"agentmart/pkg/logger"
	"agentmart/pkg/utils"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// RequestIDMiddleware accepts a well-formed inbound X-Request-ID or mints
// one, and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !inboundRequestID.MatchString(id) {
			id = utils.GenerateRequestID()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

type HTTPMetrics interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

// RequestLoggerMiddleware logs each request through the context logger
// and records its latency.
func RequestLoggerMiddleware(cl *logger.ContextLogger, metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		cl.LogRequest(c.Request.Context(), c.Request.Method, c.Request.URL.Path, status, elapsed.Milliseconds())
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, elapsed)
	}
}
