package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/roofledger/scopediff/internal/domain"
)

// jsonEstimateFile is the top-level JSON export structure.
type jsonEstimateFile struct {
	EstimateRef string          `json:"estimate_ref"`
	Items       []jsonLineEntry `json:"items"`
}

// Amounts arrive either as JSON numbers or as strings like "$1,200.00".
type jsonLineEntry struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    json.RawMessage `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   json.RawMessage `json:"unit_price"`
	Total       json.RawMessage `json:"total"`
}

// ParseJSON parses a JSON estimate export and returns its items and
// estimate reference.
func ParseJSON(data []byte) ([]domain.LineItem, string, error) {
	var file jsonEstimateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("unmarshal: %w", err)
	}

	items := make([]domain.LineItem, 0, len(file.Items))
	for i, entry := range file.Items {
		raw := rawItem{
			Code:        entry.Code,
			Description: entry.Description,
			Quantity:    rawAmount(entry.Quantity),
			Unit:        entry.Unit,
			UnitPrice:   rawAmount(entry.UnitPrice),
			Total:       rawAmount(entry.Total),
		}
		it, err := raw.lineItem()
		if err != nil {
			return nil, "", fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, it)
	}

	return items, file.EstimateRef, nil
}

func rawAmount(m json.RawMessage) string {
	if len(m) == 0 || string(m) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return string(m)
}
