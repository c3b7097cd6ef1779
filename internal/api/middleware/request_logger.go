package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// quietPaths are polled by probes and scrapers and logged at debug level.
var quietPaths = map[string]struct{}{
	"/api/v1/health": {},
	"/metrics":       {},
}

// RequestLogger logs basic request information along with the request_id and,
// for authenticated requests, the token subject.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := GetRequestLogger(c).WithFields(map[string]interface{}{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if subject := Subject(c); subject != "" {
			entry = entry.WithField("subject", subject)
		}
		if _, quiet := quietPaths[c.Request.URL.Path]; quiet {
			entry.Debug("handled request")
			return
		}
		entry.Info("handled request")
	}
}
