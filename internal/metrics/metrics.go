// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	loginOutcomes *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	sessionsSwept prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mathstabel_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status_code"}),
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mathstabel_login_outcomes_total",
			Help: "Login attempts by outcome (success, invalid, pending)",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mathstabel_rate_limited_total",
			Help: "Requests rejected by the rate limiter, per tier",
		}, []string{"tier"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mathstabel_sessions_swept_total",
			Help: "Expired sessions removed by sweeps",
		}),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.loginOutcomes,
		c.rateLimited,
		c.sessionsSwept,
	)

	return c
}

func (c *Collector) RecordRequest(method string, statusCode int) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.loginOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRateLimited(tier string) {
	c.rateLimited.WithLabelValues(tier).Inc()
}

func (c *Collector) RecordSessionsSwept(count int64) {
	c.sessionsSwept.Add(float64(count))
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
