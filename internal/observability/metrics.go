package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RecordsHarvested *prometheus.CounterVec
	StageFailures    *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	HighRiskProducts prometheus.Gauge
	Runs             *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsHarvested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piracy_records_harvested_total",
				Help: "Product records harvested from search listings",
			},
			[]string{"search_term"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piracy_stage_failures_total",
				Help: "Pipeline stage failures",
			},
			[]string{"stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "piracy_stage_duration_seconds",
				Help:    "Pipeline stage duration",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"stage"},
		),
		HighRiskProducts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "piracy_high_risk_products",
				Help: "High risk products found by the last run",
			},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "piracy_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		m.RecordsHarvested,
		m.StageFailures,
		m.StageDuration,
		m.HighRiskProducts,
		m.Runs,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Harvested(term string, n int) {
	if m == nil {
		return
	}
	m.RecordsHarvested.WithLabelValues(term).Add(float64(n))
}

func (m *Metrics) StageFailed(stage string) {
	if m == nil {
		return
	}
	m.StageFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) SetHighRisk(n int) {
	if m == nil {
		return
	}
	m.HighRiskProducts.Set(float64(n))
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
