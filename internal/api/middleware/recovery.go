package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/util"
)

// Recovery turns a handler panic into a 500 that carries the request id. When
// verbose is true the stacktrace and sanitized request metadata are logged too.
func Recovery(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			entry := GetRequestLogger(c).WithField("panic", util.SanitizeForLog(fmt.Sprint(r)))
			if verbose {
				entry.WithFields(map[string]interface{}{
					"method":  c.Request.Method,
					"path":    SanitizePath(c.Request.URL.Path),
					"headers": SanitizeHeaders(c.Request.Header),
				}).Errorf("PANIC: %v\nStacktrace:\n%s", r, debug.Stack())
			} else {
				entry.Errorf("PANIC: %v", r)
			}

			body := gin.H{"error": "internal server error"}
			if rid := c.GetString(RequestIDKey); rid != "" {
				body["request_id"] = rid
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
