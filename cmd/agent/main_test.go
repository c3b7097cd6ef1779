package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/api/handlers"
	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/live"
)

func TestIssueToken_AcceptedByAuthMiddleware(t *testing.T) {
	token, err := issueToken("s3cret", "dashboard", time.Hour)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", middleware.AuthMiddleware("s3cret"), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.Subject(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dashboard", w.Body.String())
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := issueToken("", "dashboard", time.Hour)
	assert.Error(t, err)
}

func TestBuildScheduler(t *testing.T) {
	db := handlers.OpenTestDB(t)
	hub := live.NewHub(live.DefaultQueueSize)
	t.Cleanup(hub.Close)

	cfg := config.Config{
		LLM:   config.LLMConfig{Provider: "mock"},
		Agent: config.AgentConfig{PollInterval: time.Hour, ReconnectBackoff: time.Second},
	}
	sched := buildScheduler(db, hub, cfg)
	require.NotNil(t, sched)
	require.NotNil(t, sched.Cron)
}
