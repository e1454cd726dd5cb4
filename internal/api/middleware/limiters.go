package middleware

import (
	"time"

	"github.com/sujal/maths-tabel-server/internal/metrics"
)

// Limiters bundles the three limiter tiers. The global tier covers all
// API traffic, the auth tier counts only failed register/login calls,
// and the admin tier covers the admin console.
type Limiters struct {
	Global *RateLimiter
	Auth   *RateLimiter
	Admin  *RateLimiter
}

func NewLimiters(collector *metrics.Collector) *Limiters {
	window := 15 * time.Minute
	return &Limiters{
		Global: NewRateLimiter(RateLimiterOptions{
			Name:     "global",
			Requests: 300,
			Window:   window,
			Message:  "Too many requests. Please try again in a few minutes.",
		}, collector),
		Auth: NewRateLimiter(RateLimiterOptions{
			Name:            "auth",
			Requests:        20,
			Window:          window,
			Message:         "Too many authentication attempts. Please try again in 15 minutes.",
			RefundSuccesses: true,
		}, collector),
		Admin: NewRateLimiter(RateLimiterOptions{
			Name:     "admin",
			Requests: 120,
			Window:   window,
			Message:  "Too many admin requests. Please slow down.",
		}, collector),
	}
}

func (l *Limiters) Stop() {
	l.Global.Stop()
	l.Auth.Stop()
	l.Admin.Stop()
}
