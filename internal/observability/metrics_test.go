package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.Harvested("cartucho hp 664", 3)
	m.Harvested("cartucho hp 664", 2)
	m.StageFailed("report")
	m.SetHighRisk(4)
	m.RunFinished("completed")

	assert.Equal(t, 5.0, testutil.ToFloat64(m.RecordsHarvested.WithLabelValues("cartucho hp 664")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("report")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.HighRiskProducts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("completed")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Harvested("x", 1)
		m.StageFailed("x")
		m.ObserveStage("x", 1)
		m.SetHighRisk(1)
		m.RunFinished("failed")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.StageFailed("harvest")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `piracy_stage_failures_total{stage="harvest"} 1`)
}
