package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func doGet(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth(t *testing.T) {
	r := newTestRouter(APIKeyAuth("secreto"))

	tests := []struct {
		name     string
		key      string
		expected int
	}{
		{name: "correct key", key: "secreto", expected: http.StatusOK},
		{name: "wrong key", key: "otro", expected: http.StatusUnauthorized},
		{name: "missing key", key: "", expected: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers["X-API-Key"] = tt.key
			}
			w := doGet(r, headers)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

// TestAPIKeyAuthUnconfigured tests that a missing server key closes the API
// instead of opening it
func TestAPIKeyAuthUnconfigured(t *testing.T) {
	r := newTestRouter(APIKeyAuth(""))

	w := doGet(r, map[string]string{"X-API-Key": "cualquiera"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	r := newTestRouter(RateLimit(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2}))

	assert.Equal(t, http.StatusOK, doGet(r, nil).Code)
	assert.Equal(t, http.StatusOK, doGet(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, nil).Code)
}

func TestRequestIDGenerated(t *testing.T) {
	r := newTestRouter(RequestID())

	w := doGet(r, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

// TestRequestIDPropagated tests that a client-supplied id is echoed back
func TestRequestIDPropagated(t *testing.T) {
	r := newTestRouter(RequestID())

	w := doGet(r, map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
