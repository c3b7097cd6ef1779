package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header required")
}

func TestAuthMiddleware_ValidBearer(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   "soc-dashboard",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "soc-dashboard", w.Body.String())
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "viewer"})
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{}), "invalid token"},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}), "token expired"},
		{"wrong algorithm", "Bearer " + signToken(t, jwt.SigningMethodHS384, []byte(testSecret), jwt.RegisteredClaims{}), "invalid token"},
		{"not bearer", "Basic dXNlcjpwYXNz", "Authorization header required"},
		{"garbage", "Bearer not.a.jwt", "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			authRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}
