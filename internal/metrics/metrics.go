// Package metrics holds the prometheus collectors of the minutes server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minutes"

// MoM upsert outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeConflict = "conflict"
)

// Login results.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Metrics owns a registry and the collectors registered on it. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	RateLimitAllowed    *prometheus.CounterVec
	RateLimitRejected   *prometheus.CounterVec
	Logins              *prometheus.CounterVec
	TranscriptionsSaved prometheus.Counter
	MoMUpserts          *prometheus.CounterVec
	SessionsExpired     prometheus.Counter
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
			[]string{"method", "route"},
		),
		RateLimitAllowed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter."},
			[]string{"limiter"},
		),
		RateLimitRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter."},
			[]string{"limiter"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "logins_total", Help: "Login attempts by result."},
			[]string{"result"},
		),
		TranscriptionsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "transcriptions_saved_total", Help: "Transcriptions persisted."},
		),
		MoMUpserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "mom_upserts_total", Help: "Minutes of meeting upserts by outcome."},
			[]string{"outcome"},
		),
		SessionsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "sessions_expired_deleted_total", Help: "Expired sessions removed by the cleanup job."},
		),
	}
	m.RegisterCollectors(m.registry)
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterCollectors registers the server collectors on reg.
func (m *Metrics) RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.RateLimitAllowed,
		m.RateLimitRejected,
		m.Logins,
		m.TranscriptionsSaved,
		m.MoMUpserts,
		m.SessionsExpired,
	)
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimit records a limiter decision.
func (m *Metrics) RateLimit(limiter string, allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.RateLimitAllowed.WithLabelValues(limiter).Inc()
		return
	}
	m.RateLimitRejected.WithLabelValues(limiter).Inc()
}

// Login records a login attempt.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// TranscriptionSaved records a persisted transcription.
func (m *Metrics) TranscriptionSaved() {
	if m == nil {
		return
	}
	m.TranscriptionsSaved.Inc()
}

// MoMUpsert records a MoM upsert outcome.
func (m *Metrics) MoMUpsert(outcome string) {
	if m == nil {
		return
	}
	m.MoMUpserts.WithLabelValues(outcome).Inc()
}

// ExpiredSessionsDeleted records sessions removed by the cleanup job.
func (m *Metrics) ExpiredSessionsDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsExpired.Add(float64(n))
}
