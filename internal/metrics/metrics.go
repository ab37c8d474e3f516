// Package metrics holds the Prometheus collectors for delta comparisons.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roofledger/scopediff/internal/domain"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	comparisons    *prometheus.CounterVec
	variances      *prometheus.CounterVec
	engineDuration prometheus.Histogram
	ingestedItems  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		comparisons: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scopediff",
			Name:      "comparisons_total",
			Help:      "Delta engine runs by origin (stateless or claim).",
		}, []string{"origin"}),
		variances: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scopediff",
			Name:      "variances_total",
			Help:      "Variances detected by kind and severity.",
		}, []string{"kind", "severity"}),
		engineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scopediff",
			Name:      "engine_duration_seconds",
			Help:      "Time spent in the delta engine per comparison.",
			Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
		}),
		ingestedItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scopediff",
			Name:      "ingested_line_items_total",
			Help:      "Line items ingested by party.",
		}, []string{"party"}),
	}
}

// ObserveComparison records one engine run and its variances.
func (m *Metrics) ObserveComparison(origin string, elapsed time.Duration, variances []domain.Variance) {
	if m == nil {
		return
	}
	m.comparisons.WithLabelValues(origin).Inc()
	m.engineDuration.Observe(elapsed.Seconds())
	for _, v := range variances {
		m.variances.WithLabelValues(string(v.Kind), string(v.Severity)).Inc()
	}
}

// ObserveIngest records items ingested for one party.
func (m *Metrics) ObserveIngest(party domain.Party, items int) {
	if m == nil {
		return
	}
	m.ingestedItems.WithLabelValues(string(party)).Add(float64(items))
}
