package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the document engine.
type Metrics struct {
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	FillRate           prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers metrics on the given registerer; tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scriba_generations_total",
			Help: "Total document generation requests by template type and outcome",
		}, []string{"template", "outcome"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scriba_generation_duration_seconds",
			Help:    "End-to-end latency of document generation",
			Buckets: prometheus.DefBuckets,
		}, []string{"template"}),
		FillRate: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scriba_fill_rate_percent",
			Help:    "Percentage of template fields that received a value",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
		}),
	}
}

// ObserveGeneration records one finished generation request.
func (m *Metrics) ObserveGeneration(template, outcome string, elapsed time.Duration, fillRate int) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(template, outcome).Inc()
	m.GenerationDuration.WithLabelValues(template).Observe(elapsed.Seconds())
	if outcome == "success" {
		m.FillRate.Observe(float64(fillRate))
	}
}
