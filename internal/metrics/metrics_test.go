package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveMutation("favorites", "add")
	m.ObserveMutation("favorites", "add")
	m.ObserveStorageFault("comparison", "save")
	m.ObserveComparisonRejected()
	m.ObserveChat("responded")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("favorites", "add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageFaults.WithLabelValues("comparison", "save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chat.WithLabelValues("responded")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("favorites", "add")
		m.ObserveStorageFault("favorites", "load")
		m.ObserveComparisonRejected()
		m.ObserveChat("failed")
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.ObserveChat("failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `estateflow_chat_submissions_total{outcome="failed"} 1`)
}
