// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the mcp-router gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// DispatchBuckets defines histogram buckets suited for event dispatch
// latencies, ranging from 1ms to 30s. Most handlers are fast local
// mutations; the long tail covers handlers that call downstream ERPs.
var DispatchBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcprouter_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcprouter_request_duration_seconds",
			Help:    "Request duration",
			Buckets: DispatchBuckets,
		},
		[]string{"method"},
	)

	// DispatchesTotal counts routed events by event type and outcome.
	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcprouter_dispatches_total",
			Help: "Event dispatches",
		},
		[]string{"event_type", "status"},
	)

	// DispatchDuration records handler execution time in seconds per event type.
	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcprouter_dispatch_duration_seconds",
			Help:    "Handler execution duration",
			Buckets: DispatchBuckets,
		},
		[]string{"event_type"},
	)

	// AuthFailuresTotal counts rejected requests by failure type.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcprouter_auth_failures_total",
			Help: "Authorization failures",
		},
		[]string{"type"},
	)

	// RateLimitRejectedTotal counts requests rejected by the tenant rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcprouter_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"plan"},
	)

	// TenantLookupsTotal counts tenant resolutions by outcome.
	TenantLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcprouter_tenant_lookups_total",
			Help: "Tenant resolutions",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		DispatchesTotal,
		DispatchDuration,
		AuthFailuresTotal,
		RateLimitRejectedTotal,
		TenantLookupsTotal,
	)
}
