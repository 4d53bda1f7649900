package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/mcxwatch/config"
	"github.com/use-agent/mcxwatch/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/scrape", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(APIKeyContextKey))
	})
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/scrape", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"alpha", "", "beta"}))

	w := do(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ErrCodeUnauthorized, body.Code)
	assert.Contains(t, body.Error, "missing API key")

	w = do(r, map[string]string{"X-API-Key": "gamma"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, map[string]string{"X-API-Key": "alpha"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alpha", w.Body.String())

	w = do(r, map[string]string{"Authorization": "Bearer beta"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "beta", w.Body.String())
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth([]string{""}))
	assert.Equal(t, http.StatusOK, do(r, nil).Code)
}

func TestRateLimit_PerIdentityBuckets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newEngine(Auth([]string{"alpha", "beta"}), RateLimit(ctx, config.RateLimitConfig{RequestsPerSecond: 0.2, Burst: 2}))

	alpha := map[string]string{"X-API-Key": "alpha"}
	assert.Equal(t, http.StatusOK, do(r, alpha).Code)
	assert.Equal(t, http.StatusOK, do(r, alpha).Code)

	w := do(r, alpha)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ErrCodeRateLimited, body.Code)

	assert.Equal(t, http.StatusOK, do(r, map[string]string{"X-API-Key": "beta"}).Code, "other callers keep their own bucket")
}

func TestLimiterSet_Sweep(t *testing.T) {
	s := newLimiterSet(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Now()
	s.get("old", now.Add(-2*time.Hour))
	s.get("fresh", now)

	s.sweep(now.Add(-limiterIdleTTL))

	assert.NotContains(t, s.entries, "old")
	assert.Contains(t, s.entries, "fresh")
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 5, retryAfterSeconds(0.2))
	assert.Equal(t, 1, retryAfterSeconds(10))
	assert.Equal(t, 60, retryAfterSeconds(0))
}
