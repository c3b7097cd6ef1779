package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/services"
)

// IncidentHandler serves incidents, raw logs and actions.
type IncidentHandler struct {
	service *services.QueryService
}

func NewIncidentHandler(service *services.QueryService) *IncidentHandler {
	return &IncidentHandler{service: service}
}

func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	incidents, err := h.service.ListIncidents(c.Request.Context(), limit)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list incidents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list incidents"})
		return
	}
	c.JSON(http.StatusOK, incidents)
}

func (h *IncidentHandler) GetIncident(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	incident, err := h.service.GetIncident(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrIncidentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
			return
		}
		middleware.GetRequestLogger(c).WithError(err).WithField("incident_id", id).Error("failed to load incident")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load incident"})
		return
	}
	c.JSON(http.StatusOK, incident)
}

func (h *IncidentHandler) ListLogs(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logs, err := h.service.ListLogs(c.Request.Context(), limit)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *IncidentHandler) ListActions(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actions, err := h.service.ListActions(c.Request.Context(), limit)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list actions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list actions"})
		return
	}
	c.JSON(http.StatusOK, actions)
}
