package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sujal/maths-tabel-server/internal/api/middleware"
	"github.com/sujal/maths-tabel-server/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func failHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_RejectsOverBudget(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterOptions{
		Name:     "test",
		Requests: 3,
		Window:   time.Hour,
		Message:  "Too many requests.",
	}, metrics.NewCollector())
	defer rl.Stop()

	handler := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		rec := doRequest(handler, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := doRequest(handler, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests.")
}

func TestRateLimiter_KeyedPerClient(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterOptions{
		Name:     "test",
		Requests: 1,
		Window:   time.Hour,
		Message:  "Too many requests.",
	}, metrics.NewCollector())
	defer rl.Stop()

	handler := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:5678").Code)

	// A different client has its own budget.
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.2:1234").Code)
}

func TestRateLimiter_RefundSuccesses(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterOptions{
		Name:            "auth",
		Requests:        2,
		Window:          time.Hour,
		Message:         "Too many authentication attempts.",
		RefundSuccesses: true,
	}, metrics.NewCollector())
	defer rl.Stop()

	// Successful requests hand their token back, so far more than the
	// budget of them pass.
	success := rl.Middleware(okHandler())
	for i := 0; i < 10; i++ {
		rec := doRequest(success, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code, "success %d should not consume budget", i+1)
	}

	// Failures consume it.
	failure := rl.Middleware(failHandler())
	assert.Equal(t, http.StatusUnauthorized, doRequest(failure, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(failure, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(failure, "10.0.0.1:1234").Code)
}
