package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/logger"
)

func panicRouter(verbose bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(verbose))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})
	return router
}

func TestRecoveryLogsStacktraceVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(true, buf)

	w := httptest.NewRecorder()
	panicRouter(true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	out := buf.String()
	assert.Contains(t, out, "PANIC: test panic")
	assert.Contains(t, out, "Stacktrace:")
	assert.Contains(t, out, "request_id")
}

func TestRecoveryLogsBriefWhenNotVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(false, buf)

	w := httptest.NewRecorder()
	panicRouter(false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	rid := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, rid)
	assert.JSONEq(t, `{"error":"internal server error","request_id":"`+rid+`"}`, w.Body.String())
	out := buf.String()
	assert.Contains(t, out, "PANIC: test panic")
	assert.NotContains(t, out, "Stacktrace:")
}

func TestRecoverySanitizesHeaders(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(true, buf)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	panicRouter(true).ServeHTTP(w, req)

	out := buf.String()
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, "<redacted>")
}

func TestRecoveryWithoutRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.Init(false, &bytes.Buffer{})
	router := gin.New()
	router.Use(Recovery(false))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
