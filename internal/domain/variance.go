package domain

import "github.com/shopspring/decimal"

type VarianceKind string

const (
	VarianceMissing     VarianceKind = "MISSING"
	VarianceUnderpaid   VarianceKind = "UNDERPAID"
	VarianceQtyMismatch VarianceKind = "QTY_MISMATCH"
	// VarianceScopeMismatch is reserved. Nothing in the delta engine emits it.
	VarianceScopeMismatch VarianceKind = "SCOPE_MISMATCH"
)

// Valid reports whether k is one of the declared kinds.
func (k VarianceKind) Valid() bool {
	switch k {
	case VarianceMissing, VarianceUnderpaid, VarianceQtyMismatch, VarianceScopeMismatch:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Variance is one discrepancy between an adjuster scope and a contractor
// scope. Adjuster is nil for MISSING variances.
type Variance struct {
	Kind        VarianceKind    `json:"kind"`
	Description string          `json:"description"`
	Adjuster    *LineItem       `json:"adjuster,omitempty"`
	Contractor  *LineItem       `json:"contractor,omitempty"`
	DeltaTotal  decimal.Decimal `json:"delta_total"`
	Severity    Severity        `json:"severity"`
}

// Stats aggregates a variance list.
type Stats struct {
	TotalVariances int             `json:"total_variances"`
	TotalDelta     decimal.Decimal `json:"total_delta"`
	HighSeverity   int             `json:"high_severity"`
	MediumSeverity int             `json:"medium_severity"`
	LowSeverity    int             `json:"low_severity"`
	MissingItems   int             `json:"missing_items"`
	UnderpaidItems int             `json:"underpaid_items"`
	QtyMismatches  int             `json:"qty_mismatches"`
}
