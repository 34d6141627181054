package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(time.Second, 3)
	defer limiter.Close()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("test-key"), "request %d", i+1)
	}
	assert.False(t, limiter.Allow("test-key"))
	assert.True(t, limiter.Allow("other-key"))

	now = now.Add(1100 * time.Millisecond)
	assert.True(t, limiter.Allow("test-key"))
}

func TestLimiter_GetRemaining(t *testing.T) {
	limiter := NewLimiter(time.Second, 5)
	defer limiter.Close()

	assert.Equal(t, 5, limiter.GetRemaining("test-key"))
	limiter.Allow("test-key")
	limiter.Allow("test-key")
	assert.Equal(t, 3, limiter.GetRemaining("test-key"))
}

func TestMiddleware(t *testing.T) {
	limiter := NewLimiter(time.Minute, 1)
	defer limiter.Close()

	h := limiter.Middleware(func(r *http.Request) string { return r.RemoteAddr })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	limiter.Close()
}
