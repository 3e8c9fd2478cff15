package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.SpinObserved("won")
	m.SpinObserved("already_played")
	m.SpinObserved("already_played")
	m.RemainingObserved(7)
	m.ObserveHTTP(http.MethodPost, "/api/spin", http.StatusOK, 12*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.spins.WithLabelValues("won")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.spins.WithLabelValues("already_played")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.remaining))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/spin", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "advent_spin_outcomes_total")
	assert.Contains(t, rec.Body.String(), "advent_pool_remaining_prizes 7")
}
