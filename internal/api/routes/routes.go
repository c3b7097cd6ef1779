package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/api/handlers"
	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/cerberus"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/live"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, hub *live.Hub, cfg config.Config) error {
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	router.GET("/api/v1/health", handlers.HealthHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	queryService := services.NewQueryService(db)
	securityService := services.NewSecurityService(db)
	notificationService := services.NewNotificationService(db, cfg.Notify.SlackURL)

	incidentHandler := handlers.NewIncidentHandler(queryService)
	securityHandler := handlers.NewSecurityHandler(securityService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	liveHandler := handlers.NewLiveHandler(hub)

	guard := cerberus.New(cfg.API, securityService)
	api := router.Group("/api/v1", guard.Middleware())
	ws := router.Group("/ws", guard.Middleware())
	if cfg.API.JWTSecret != "" {
		auth := middleware.AuthMiddleware(cfg.API.JWTSecret)
		api.Use(auth)
		ws.Use(auth)
	} else {
		logger.Log().Warn("api.jwt_secret not set, read API is unauthenticated")
	}

	api.GET("/incidents", incidentHandler.ListIncidents)
	api.GET("/incidents/:id", incidentHandler.GetIncident)
	api.GET("/logs", incidentHandler.ListLogs)
	api.GET("/actions", incidentHandler.ListActions)
	api.GET("/decisions", securityHandler.ListDecisions)
	api.GET("/tickets", notificationHandler.ListTickets)

	ws.GET("/incidents", liveHandler.Incidents)
	ws.GET("/actions", liveHandler.Actions)

	return nil
}
