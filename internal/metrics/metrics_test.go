package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Operation("assign_single", "ok")
		m.ImportRows(1, 2, 3)
		m.ObserveLayout(time.Millisecond, 4)
		m.CacheLookup(true)
		m.EventPublished(nil)
	})
	assert.NotNil(t, m.Handler())
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Operation("assign_single", "ok")
	m.Operation("assign_single", "ok")
	m.Operation("assign_single", "conflict")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("assign_single", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("assign_single", "conflict")))

	m.ImportRows(3, 1, 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importRows.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("skipped")))

	m.CacheLookup(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("miss")))

	m.EventPublished(errors.New("down"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("error")))

	m.ObserveLayout(time.Millisecond, 5)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.layoutWait))
}

func TestHandlerExposesSeatingMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Operation("unassign", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `seating_operations_total{op="unassign",outcome="ok"} 1`)
}
