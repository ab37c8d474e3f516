package delta

import (
	"github.com/shopspring/decimal"

	"github.com/roofledger/scopediff/internal/domain"
)

// ComputeStats aggregates the variance list exactly as given. TotalDelta is
// the signed sum of every DeltaTotal.
func ComputeStats(variances []domain.Variance) domain.Stats {
	st := domain.Stats{
		TotalVariances: len(variances),
		TotalDelta:     decimal.Zero,
	}
	for _, v := range variances {
		st.TotalDelta = st.TotalDelta.Add(v.DeltaTotal)

		switch v.Severity {
		case domain.SeverityHigh:
			st.HighSeverity++
		case domain.SeverityMedium:
			st.MediumSeverity++
		case domain.SeverityLow:
			st.LowSeverity++
		}

		switch v.Kind {
		case domain.VarianceMissing:
			st.MissingItems++
		case domain.VarianceUnderpaid:
			st.UnderpaidItems++
		case domain.VarianceQtyMismatch:
			st.QtyMismatches++
		}
	}
	return st
}
