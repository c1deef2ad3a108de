package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.MoMUpsert(OutcomeCreated)
	m.MoMUpsert(OutcomeUpdated)
	m.MoMUpsert(OutcomeUpdated)
	m.Login(LoginFailure)
	m.TranscriptionSaved()
	m.RateLimit("login", true)
	m.RateLimit("login", false)
	m.ExpiredSessionsDeleted(3)
	m.ExpiredSessionsDeleted(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MoMUpserts.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MoMUpserts.WithLabelValues(OutcomeUpdated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(LoginFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TranscriptionsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitAllowed.WithLabelValues("login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitRejected.WithLabelValues("login")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsExpired))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MoMUpsert(OutcomeCreated)
		m.Login(LoginSuccess)
		m.TranscriptionSaved()
		m.RateLimit("login", true)
		m.ObserveRequest(http.MethodGet, "/", 200, time.Millisecond)
		m.ExpiredSessionsDeleted(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/dashboard", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `minutes_http_requests_total{method="GET",route="/dashboard",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
