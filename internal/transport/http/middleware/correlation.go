package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/logger"
)

const (
	// TraceIDHeader carries the caller-supplied trace identifier.
	TraceIDHeader = "X-Trace-ID"
	// RequestIDHeader carries the per-request identifier echoed to callers.
	RequestIDHeader = "X-Request-ID"
	// OperatorKey is the gin context key holding the authenticated operator.
	OperatorKey = "operator"

	traceIDKey        = "trace_id"
	requestContextKey = "request_context"
)

// RequestContext aggregates the request-scoped identity used by logs and
// error responses.
type RequestContext struct {
	TraceID   string
	RequestID string
	Operator  string
	IP        string
	UserAgent string
}

// Correlate assigns trace and request identifiers to every request. Inbound
// identifiers are reused so a browser session can be followed across calls;
// both are echoed back as response headers and the request id is threaded
// into the request context for downstream log correlation.
func Correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := headerOrNew(c, TraceIDHeader)
		requestID := headerOrNew(c, RequestIDHeader)

		c.Header(TraceIDHeader, traceID)
		c.Header(RequestIDHeader, requestID)
		c.Set(traceIDKey, traceID)
		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			RequestID: requestID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func headerOrNew(c *gin.Context, header string) string {
	if v := c.GetHeader(header); v != "" {
		return v
	}
	return uuid.NewString()
}

// GetTraceID returns the trace id assigned by Correlate, or "".
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestContext returns the request context assigned by Correlate. It
// never returns nil.
func GetRequestContext(c *gin.Context) *RequestContext {
	if v, ok := c.Get(requestContextKey); ok {
		if reqCtx, ok := v.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{}
}
