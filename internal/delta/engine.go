// Package delta compares an adjuster's line-item scope with a contractor's
// and reports the discrepancies, ranked by how much money they represent.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package delta

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roofledger/scopediff/internal/domain"
)

var (
	mediumThreshold = decimal.NewFromInt(500)
	highThreshold   = decimal.NewFromInt(2000)
)

// NormalizeDescription returns the matching key for a line item description:
// lower-cased, whitespace runs collapsed to one space, trimmed.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ClassifySeverity buckets a delta by its absolute value. Both boundaries are
// strict: 500 is low, 2000 is medium.
func ClassifySeverity(delta decimal.Decimal) domain.Severity {
	abs := delta.Abs()
	switch {
	case abs.GreaterThan(highThreshold):
		return domain.SeverityHigh
	case abs.GreaterThan(mediumThreshold):
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// scope is a description-keyed view of one party's items. A repeated key
// keeps the position of its first occurrence and the value of its last.
type scope struct {
	keys  []string
	items map[string]*domain.LineItem
}

func indexScope(items []domain.LineItem) scope {
	s := scope{items: make(map[string]*domain.LineItem, len(items))}
	for i := range items {
		key := NormalizeDescription(items[i].Description)
		if _, seen := s.items[key]; !seen {
			s.keys = append(s.keys, key)
		}
		s.items[key] = &items[i]
	}
	return s
}

// ComputeDelta reconciles the two scopes and returns every variance sorted by
// DeltaTotal, largest first. Equal deltas keep detection order.
//
// Only contractor-side items anchor a variance; an item the adjuster priced
// but the contractor did not produces nothing. A matched pair may yield both
// a QTY_MISMATCH and an UNDERPAID variance.
func ComputeDelta(adjuster, contractor []domain.LineItem) []domain.Variance {
	adj := indexScope(adjuster)
	con := indexScope(contractor)

	variances := make([]domain.Variance, 0, len(con.keys))
	for _, key := range con.keys {
		c := con.items[key]
		a, ok := adj.items[key]
		if !ok {
			variances = append(variances, newVariance(domain.VarianceMissing, nil, c, c.Total))
			continue
		}

		diff := c.Total.Sub(a.Total)
		if !a.Quantity.Equal(c.Quantity) {
			variances = append(variances, newVariance(domain.VarianceQtyMismatch, a, c, diff))
		}
		if a.UnitPrice.LessThan(c.UnitPrice) {
			variances = append(variances, newVariance(domain.VarianceUnderpaid, a, c, diff))
		}
	}

	sort.SliceStable(variances, func(i, j int) bool {
		return variances[i].DeltaTotal.GreaterThan(variances[j].DeltaTotal)
	})
	return variances
}

func newVariance(kind domain.VarianceKind, a, c *domain.LineItem, delta decimal.Decimal) domain.Variance {
	return domain.Variance{
		Kind:        kind,
		Description: c.Description,
		Adjuster:    a,
		Contractor:  c,
		DeltaTotal:  delta,
		Severity:    ClassifySeverity(delta),
	}
}
