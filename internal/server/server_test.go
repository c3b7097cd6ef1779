package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/api/handlers"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/live"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	hub := live.NewHub(live.DefaultQueueSize)
	t.Cleanup(hub.Close)
	srv, err := New(handlers.OpenTestDB(t), hub, cfg)
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)
	return srv
}

func TestNew_MiddlewareAndNoRoute(t *testing.T) {
	srv := newTestServer(t, config.Config{Environment: "production"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	w = httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}

func TestNew_CORS(t *testing.T) {
	t.Run("allow all by default", func(t *testing.T) {
		srv := newTestServer(t, config.Config{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("Origin", "http://dashboard.local")
		w := httptest.NewRecorder()
		srv.Engine.ServeHTTP(w, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("configured origins", func(t *testing.T) {
		srv := newTestServer(t, config.Config{API: config.APIConfig{CORSOrigins: []string{"http://localhost:5173"}}})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		srv.Engine.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		w = httptest.NewRecorder()
		srv.Engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return fmt.Sprintf("%d", l.Addr().(*net.TCPAddr).Port)
}

func TestRun_GracefulShutdown(t *testing.T) {
	port := freePort(t)
	srv := newTestServer(t, config.Config{Server: config.ServerConfig{HTTPPort: port, GracefulTimeout: time.Second}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + port + "/api/v1/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()
	port := fmt.Sprintf("%d", l.Addr().(*net.TCPAddr).Port)

	srv := newTestServer(t, config.Config{Server: config.ServerConfig{HTTPPort: port}})
	assert.Error(t, srv.Run(context.Background()))
}
