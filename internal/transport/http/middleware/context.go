package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key the trace identifier is stored under.
	TraceIDKey = "trace_id"
	// RequestContextKey is the gin context key for the enriched request context.
	RequestContextKey = "request_context"

	traceIDHeader = "X-Trace-ID"
)

// RequestContext captures the per-request metadata handlers and the device
// guard read from.
type RequestContext struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext assigns a trace identifier and stores the request metadata for
// downstream middleware and handlers.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Writer.Header().Set(traceIDHeader, traceID)

		c.Set(RequestContextKey, RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID returns the trace identifier assigned to the request, if any.
func GetTraceID(c *gin.Context) string {
	if value, exists := c.Get(TraceIDKey); exists {
		if traceID, ok := value.(string); ok {
			return traceID
		}
	}
	return ""
}

// GetRequestContext returns the enriched request context stored by EnrichContext.
func GetRequestContext(c *gin.Context) (RequestContext, bool) {
	value, exists := c.Get(RequestContextKey)
	if !exists {
		return RequestContext{}, false
	}

	rc, ok := value.(RequestContext)
	return rc, ok
}
