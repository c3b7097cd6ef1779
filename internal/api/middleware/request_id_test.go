package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/logger"
)

func TestRequestIDAddsHeaderAndLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(true, buf)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		_, ok := c.Get("logger")
		assert.True(t, ok, "expected request-scoped logger in context")
		GetRequestLogger(c).Info("inside handler")
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusOK, w.Code)
	rid := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(rid)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), rid)
}

func TestRequestIDReusesInboundID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, inbound)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, inbound, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\n")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid\n", w.Header().Get(RequestIDHeader))
}

func TestGetRequestLoggerFallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetRequestLogger(c))
}
