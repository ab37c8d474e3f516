package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roofledger/scopediff/internal/domain"
)

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Equal(t, 0, st.TotalVariances)
	assert.True(t, st.TotalDelta.IsZero())
	assert.Zero(t, st.HighSeverity+st.MediumSeverity+st.LowSeverity)
	assert.Zero(t, st.MissingItems+st.UnderpaidItems+st.QtyMismatches)
}

func TestComputeStats_Counts(t *testing.T) {
	adjuster := []domain.LineItem{
		item("Shingles - 30yr", "10", "100", "1000"),
		item("Tear Off", "30", "50", "1500"),
	}
	contractor := []domain.LineItem{
		item("shingles -  30YR", "12", "120", "1440"),
		item("Ridge Vent", "1", "300", "300"),
		item("Tear Off", "30", "150", "4500"),
		item("Decking", "40", "20", "800"),
		item("Underlayment", "1", "1", "1"),
	}

	vs := ComputeDelta(adjuster, contractor)
	st := ComputeStats(vs)

	assert.Equal(t, 6, st.TotalVariances)
	assert.Equal(t, 3, st.MissingItems)
	assert.Equal(t, 2, st.UnderpaidItems)
	assert.Equal(t, 1, st.QtyMismatches)
	assert.Equal(t, 1, st.HighSeverity)
	assert.Equal(t, 1, st.MediumSeverity)
	assert.Equal(t, 4, st.LowSeverity)
	assert.Equal(t, "4981", st.TotalDelta.String())
}

func TestComputeStats_SumsExactlyWhatIsPassed(t *testing.T) {
	vs := []domain.Variance{
		{Kind: domain.VarianceMissing, DeltaTotal: dec("100.10"), Severity: domain.SeverityLow},
		{Kind: domain.VarianceQtyMismatch, DeltaTotal: dec("-250.05"), Severity: domain.SeverityLow},
		// Not produced by the engine but still counted in the total.
		{Kind: domain.VarianceScopeMismatch, DeltaTotal: dec("0.01"), Severity: domain.SeverityLow},
	}

	st := ComputeStats(vs)
	assert.Equal(t, 3, st.TotalVariances)
	assert.True(t, st.TotalDelta.Equal(dec("-149.94")), st.TotalDelta.String())
	assert.Equal(t, 1, st.MissingItems)
	assert.Equal(t, 1, st.QtyMismatches)
	assert.Equal(t, 0, st.UnderpaidItems)
}
