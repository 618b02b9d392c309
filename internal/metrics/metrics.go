// Package metrics exposes Prometheus metrics for the HTTP layer and the auth subsystem
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for authentication and authorization counters
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	DecisionAllow   = "allow"
	DecisionDeny    = "deny"
)

// UnmatchedPath labels requests that never reached a registered route
const UnmatchedPath = "unmatched"

// Metrics holds all Prometheus metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoginsTotal        *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec
	GuardDecisions     *prometheus.CounterVec
	TokensIssuedTotal  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wookiebooks_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wookiebooks_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wookiebooks_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wookiebooks_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wookiebooks_ownership_guard_decisions_total",
				Help: "Ownership guard decisions",
			},
			[]string{"decision"},
		),
		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wookiebooks_tokens_issued_total",
				Help: "Signed tokens issued",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.GuardDecisions,
		m.TokensIssuedTotal,
	)

	return m
}

// Handler returns the /metrics handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Login counts a login attempt
func (m *Metrics) Login(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// Registration counts a registration attempt
func (m *Metrics) Registration(outcome string) {
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// TokenIssued counts an issued token
func (m *Metrics) TokenIssued() {
	m.TokensIssuedTotal.Inc()
}

// GuardDecision counts an ownership guard decision
func (m *Metrics) GuardDecision(allowed bool) {
	decision := DecisionDeny
	if allowed {
		decision = DecisionAllow
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

// Middleware records request count and duration labelled with the chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		path := UnmatchedPath
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
