package ingestion

import (
	"fmt"

	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/money"
)

// rawItem holds the text cells of one parsed row before conversion.
type rawItem struct {
	Code        string
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Total       string
}

// lineItem converts and validates the row. A blank total is filled in from
// quantity and unit price; a present total is kept as written.
func (r rawItem) lineItem() (domain.LineItem, error) {
	qty, err := money.Parse(r.Quantity)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := money.Parse(r.UnitPrice)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("unit price: %w", err)
	}

	total := money.LineTotal(qty, price)
	if r.Total != "" {
		if total, err = money.Parse(r.Total); err != nil {
			return domain.LineItem{}, fmt.Errorf("total: %w", err)
		}
	}

	it := domain.LineItem{
		Code:        r.Code,
		Description: r.Description,
		Quantity:    qty,
		Unit:        r.Unit,
		UnitPrice:   price,
		Total:       total,
	}
	if err := domain.Validate(it); err != nil {
		return domain.LineItem{}, fmt.Errorf("invalid item %q: %w", r.Description, err)
	}
	return it, nil
}
