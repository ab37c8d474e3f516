package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roofledger/scopediff/internal/domain"
)

var csvColumns = map[string][]string{
	"code":        {"code", "sel", "item_code"},
	"description": {"description", "desc", "item"},
	"quantity":    {"quantity", "qty"},
	"unit":        {"unit", "uom"},
	"unit_price":  {"unit_price", "price", "unit_cost"},
	"total":       {"total", "rcv", "line_total"},
}

// ParseCSV parses a comma-separated line-item export. Columns are located by
// header name, so their order may vary.
//
// Expected header (code, unit and total optional):
//
//	code,description,quantity,unit,unit_price,total
func ParseCSV(data []byte) ([]domain.LineItem, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return parseDelimited(reader)
}

// ParseXact parses a pipe-delimited estimating-software export.
//
// Expected header:
//
//	SEL|DESC|QTY|UNIT|UNIT_PRICE|RCV
func ParseXact(data []byte) ([]domain.LineItem, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = '|'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return parseDelimited(reader)
}

func parseDelimited(reader *csv.Reader) ([]domain.LineItem, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var items []domain.LineItem
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if blankRow(row) {
			continue
		}

		raw := rawItem{
			Code:        cell(row, idx["code"]),
			Description: cell(row, idx["description"]),
			Quantity:    cell(row, idx["quantity"]),
			Unit:        cell(row, idx["unit"]),
			UnitPrice:   cell(row, idx["unit_price"]),
			Total:       cell(row, idx["total"]),
		}
		it, err := raw.lineItem()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		items = append(items, it)
	}

	return items, nil
}

func locateColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(csvColumns))
	for col := range csvColumns {
		idx[col] = -1
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for col, aliases := range csvColumns {
			for _, a := range aliases {
				if name == a {
					if idx[col] < 0 {
						idx[col] = i
					}
				}
			}
		}
	}

	for _, required := range []string{"description", "quantity", "unit_price"} {
		if idx[required] < 0 {
			return nil, fmt.Errorf("missing %s column in header", required)
		}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
