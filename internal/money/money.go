// Package money parses and rounds the monetary cells found in estimate
// exports.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is the rounding scale for computed totals.
const Cents = 2

var cellReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// Parse reads an amount such as "1,234.50" or "$ 99". Accounting-style
// parentheses mark a negative amount. An empty cell is an error.
func Parse(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = raw[1 : len(raw)-1]
	}
	raw = cellReplacer.Replace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Round rounds half away from zero to whole cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Cents)
}

// LineTotal is quantity*unitPrice rounded to cents.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(quantity.Mul(unitPrice))
}
