package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applog "github.com/Josselin-menguy/ldap-user-manager/internal/infra/logger"
)

// quietPaths are probe endpoints logged at debug level only, to keep load
// balancer and Prometheus polling out of the access log.
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// AccessLog emits one structured line per request. Client IPs are masked, the
// operator is included once the session middleware has resolved it, and the
// level follows the response status.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		status := c.Writer.Status()
		reqCtx := GetRequestContext(c)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", applog.MaskIP(c.ClientIP())),
			zap.String("trace_id", reqCtx.TraceID),
			zap.String("request_id", reqCtx.RequestID),
		}
		if reqCtx.Operator != "" {
			fields = append(fields, zap.String("operator", reqCtx.Operator))
		}
		if ua := reqCtx.UserAgent; ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			if _, quiet := quietPaths[path]; quiet {
				log.Debug("request", fields...)
				return
			}
			log.Info("request", fields...)
		}
	}
}
