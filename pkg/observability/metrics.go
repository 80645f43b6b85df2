// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the tokengate service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// ResolverBuckets defines histogram buckets for claims store lookups,
// ranging from 1ms to 5s. bcrypt comparison alone sits near 50-100ms.
var ResolverBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Issuance failure reasons used as the "reason" label.
const (
	ReasonBadRequest        = "bad_request"
	ReasonLoginNotFound     = "login_not_found"
	ReasonIncorrectPassword = "incorrect_password"
	ReasonError             = "error"
)

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// InflightRequests tracks requests currently being served.
	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokengate_inflight_requests",
			Help: "Requests in flight",
		},
	)

	// TokensIssuedTotal counts successfully issued tokens by signing algorithm.
	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_tokens_issued_total",
			Help: "Issued tokens",
		},
		[]string{"algorithm"},
	)

	// IssuanceFailuresTotal counts issuance requests that did not produce a token.
	IssuanceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_issuance_failures_total",
			Help: "Failed issuance requests",
		},
		[]string{"reason"},
	)

	// ResolverDuration records claims resolver latency in seconds by outcome.
	ResolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengate_resolver_duration_seconds",
			Help:    "Claims resolver latency",
			Buckets: ResolverBuckets,
		},
		[]string{"outcome"},
	)

	// AuthRejectedTotal counts requests rejected by the bearer guard.
	AuthRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tokengate_auth_rejected_total",
			Help: "Requests rejected by bearer authentication",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InflightRequests,
		TokensIssuedTotal,
		IssuanceFailuresTotal,
		ResolverDuration,
		AuthRejectedTotal,
	)
}
