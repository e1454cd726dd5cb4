package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/sujal/maths-tabel-server/internal/metrics"
)

// RateLimiter enforces a request budget per client IP for one tier of
// the API. Each tier (global, auth, admin) gets its own instance with
// its own budget and rejection message.
//
// A budget of N requests per window maps to a token bucket with
// rate N/window and burst N. With RefundSuccesses set, requests that
// finish below 400 hand their token back, so only failures count
// toward the budget (used by the auth tier so normal logins are not
// throttled by their own success).
type RateLimiter struct {
	name            string
	limit           rate.Limit
	burst           int
	message         string
	refundSuccesses bool
	collector       *metrics.Collector

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	stopCh   chan struct{}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

const cleanupInterval = 5 * time.Minute

type RateLimiterOptions struct {
	Name            string
	Requests        int
	Window          time.Duration
	Message         string
	RefundSuccesses bool
}

func NewRateLimiter(opts RateLimiterOptions, collector *metrics.Collector) *RateLimiter {
	rl := &RateLimiter{
		name:            opts.Name,
		limit:           rate.Limit(float64(opts.Requests) / opts.Window.Seconds()),
		burst:           opts.Requests,
		message:         opts.Message,
		refundSuccesses: opts.RefundSuccesses,
		collector:       collector,
		limiters:        make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.getOrCreate(clientKey(r))

		reservation := limiter.Reserve()
		if !reservation.OK() || reservation.Delay() > 0 {
			reservation.Cancel()
			rl.collector.RecordRateLimited(rl.name)
			rl.reject(w)
			return
		}

		if !rl.refundSuccesses {
			next.ServeHTTP(w, r)
			return
		}

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() < http.StatusBadRequest {
			reservation.Cancel()
		}
	})
}

func (rl *RateLimiter) getOrCreate(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, ok := rl.limiters[key]; ok {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ttl := cleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter) {
	retryAfterSec := int(math.Ceil(1.0 / float64(rl.limit)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	writeJSONError(w, http.StatusTooManyRequests, rl.message)
}

// clientKey identifies the requesting client by network origin.
// RemoteAddr has already been rewritten from X-Forwarded-For when
// trust-proxy is enabled.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
