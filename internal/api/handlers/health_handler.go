package handlers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/version"
)

// getLocalIP returns the non-loopback local IP of the host
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}

// HealthHandler responds with service metadata and store reachability. An
// unreachable store reports "degraded" with 503.
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, store, code := "ok", "ok", http.StatusOK

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			status, store, code = "degraded", "unreachable", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":      status,
			"store":       store,
			"service":     version.Name,
			"version":     version.Version,
			"git_commit":  version.GitCommit,
			"build_time":  version.BuildTime,
			"internal_ip": getLocalIP(),
		})
	}
}
