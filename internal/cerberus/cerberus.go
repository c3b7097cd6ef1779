package cerberus

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/services"
)

// Cerberus enforces recorded block decisions against callers of the agent's own API.
type Cerberus struct {
	cfg      config.APIConfig
	security *services.SecurityService
}

// New creates a new Cerberus instance
func New(cfg config.APIConfig, security *services.SecurityService) *Cerberus {
	return &Cerberus{cfg: cfg, security: security}
}

// IsEnabled returns whether block enforcement is switched on.
func (c *Cerberus) IsEnabled() bool {
	return c.cfg.EnforceBlocks && c.security != nil
}

// Middleware returns a Gin middleware that rejects clients with a block decision.
// Lookup failures let the request through.
func (c *Cerberus) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.IsEnabled() {
			ctx.Next()
			return
		}

		clientIP := ctx.ClientIP()
		blocked, err := c.security.IsBlocked(ctx.Request.Context(), clientIP)
		if err != nil {
			logger.Component("cerberus").WithError(err).WithField("ip", clientIP).Warn("block lookup failed")
			ctx.Next()
			return
		}
		if blocked {
			logger.Component("cerberus").WithFields(map[string]interface{}{
				"ip":       clientIP,
				"decision": "block",
				"path":     ctx.Request.URL.Path,
			}).Warn("request blocked by incident response")
			metrics.IncBlockedRequest()
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Blocked by incident response"})
			return
		}

		ctx.Next()
	}
}
