package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/services"
)

type SecurityHandler struct {
	service *services.SecurityService
}

func NewSecurityHandler(service *services.SecurityService) *SecurityHandler {
	return &SecurityHandler{service: service}
}

// ListDecisions returns recent block decisions taken by automated response.
func (h *SecurityHandler) ListDecisions(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decisions, err := h.service.ListDecisions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list decisions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions})
}
