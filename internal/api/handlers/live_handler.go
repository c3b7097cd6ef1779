package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/live"
)

// LiveHandler upgrades viewers to websockets and attaches them to a hub topic.
type LiveHandler struct {
	hub *live.Hub
}

func NewLiveHandler(hub *live.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

func (h *LiveHandler) Incidents(c *gin.Context) { h.serve(c, live.TopicIncidents) }

func (h *LiveHandler) Actions(c *gin.Context) { h.serve(c, live.TopicActions) }

// serve blocks for the lifetime of the connection.
func (h *LiveHandler) serve(c *gin.Context, topic string) {
	log := middleware.GetRequestLogger(c).WithField("topic", topic)

	ws, err := live.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	conn := live.NewWebSocketConn(ws)

	sub, err := h.hub.Subscribe(topic, conn)
	if err != nil {
		log.WithError(err).Error("failed to subscribe viewer")
		_ = conn.Close()
		return
	}
	log.Info("live viewer connected")

	conn.DrainReads()
	h.hub.Unsubscribe(sub)
	log.Info("live viewer disconnected")
}
