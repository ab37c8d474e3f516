package domain

import "github.com/shopspring/decimal"

// LineItem is a single priced work item from one party's estimate.
// Total is trusted as given and is never recomputed from Quantity*UnitPrice.
type LineItem struct {
	Code        string          `json:"code,omitempty"`
	Description string          `json:"description" validate:"notblank,max=512"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gte=0"`
	Unit        string          `json:"unit,omitempty" validate:"max=16"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Total       decimal.Decimal `json:"total"`
}
