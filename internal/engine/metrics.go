package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/lnquery/internal/queryir"
)

// Metrics are the engine's Prometheus collectors.
type Metrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	records  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lnquery",
			Name:      "queries_total",
			Help:      "Number of executed queries by API type and outcome",
		}, []string{"api", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lnquery",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query duration",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"api"}),
		records: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lnquery",
			Name:      "records_returned",
			Help:      "Records returned per successful query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"api"}),
	}
}

func (m *Metrics) observe(api queryir.APIType, outcome string, d time.Duration, records int) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(string(api), outcome).Inc()
	m.duration.WithLabelValues(string(api)).Observe(d.Seconds())
	if outcome == "ok" {
		m.records.WithLabelValues(string(api)).Observe(float64(records))
	}
}
