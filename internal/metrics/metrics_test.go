package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/roofledger/scopediff/internal/domain"
)

func TestObserveComparison(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveComparison("claim", time.Millisecond, []domain.Variance{
		{Kind: domain.VarianceMissing, Severity: domain.SeverityLow},
		{Kind: domain.VarianceMissing, Severity: domain.SeverityLow},
		{Kind: domain.VarianceUnderpaid, Severity: domain.SeverityHigh},
	})
	m.ObserveIngest(domain.PartyContractor, 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.comparisons.WithLabelValues("claim")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.variances.WithLabelValues("MISSING", "low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.variances.WithLabelValues("UNDERPAID", "high")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ingestedItems.WithLabelValues("contractor")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveComparison("stateless", time.Second, nil)
		m.ObserveIngest(domain.PartyAdjuster, 1)
	})
}
