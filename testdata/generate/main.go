package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/money"
)

type catalogEntry struct {
	code  string
	desc  string
	unit  string
	price string
}

var catalog = []catalogEntry{
	{"RFG 300S", "Laminated comp. shingle rfg. - w/out felt", "SQ", "286.41"},
	{"RFG ARMV", "Remove Laminated comp. shingle rfg.", "SQ", "68.93"},
	{"RFG FELT15", "Roofing felt - 15 lb.", "SQ", "40.57"},
	{"RFG IWS", "Ice & water barrier", "SF", "1.98"},
	{"RFG DRIP", "Drip edge", "LF", "3.12"},
	{"RFG STRT", "Asphalt starter - universal starter course", "LF", "2.31"},
	{"RFG RIDGC", "Hip / Ridge cap - composition shingles", "LF", "7.64"},
	{"RFG VENTR", "Continuous ridge vent - shingle-over style", "LF", "10.86"},
	{"RFG FLPIPE", "Flashing - pipe jack", "EA", "52.20"},
	{"RFG VMTL", "Valley metal", "LF", "7.89"},
	{"RFG STEP", "Step flashing", "LF", "10.48"},
	{"GTR ALGT", "Gutter / downspout - aluminum - up to 5\"", "LF", "9.68"},
	{"DMO DUMP", "Dumpster load - Approx. 20 yards", "EA", "568.00"},
	{"RFG SHTG", "Sheathing - OSB - 1/2\"", "SF", "2.46"},
	{"RFG STEEP", "Additional charge for steep roof - 7/12 to 9/12 slope", "SQ", "61.96"},
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	var adjuster, contractor []domain.LineItem

	for _, c := range catalog {
		price := decimal.RequireFromString(c.price)
		qty := decimal.NewFromInt(int64(1 + rng.Intn(40)))
		roll := rng.Float64()

		// 20% of items are only in the contractor's scope.
		if roll >= 0.80 {
			contractor = append(contractor, newItem(c, qty, price))
			continue
		}
		adjuster = append(adjuster, newItem(c, qty, price))

		conQty, conPrice := qty, price
		switch {
		case roll < 0.15:
			// Contractor measured more.
			conQty = qty.Add(decimal.NewFromInt(int64(1 + rng.Intn(6))))
		case roll < 0.30:
			// Contractor priced 5-25% higher.
			pct := decimal.NewFromFloat(1.05 + rng.Float64()*0.20)
			conPrice = money.Round(price.Mul(pct))
		case roll < 0.40:
			conQty = qty.Add(decimal.NewFromInt(2))
			conPrice = money.Round(price.Mul(decimal.NewFromFloat(1.10)))
		}
		contractor = append(contractor, newItem(c, conQty, conPrice))
	}

	writeXact(filepath.Join(baseDir, "adjuster_estimate.txt"), adjuster)
	fmt.Printf("Generated %d adjuster items -> adjuster_estimate.txt\n", len(adjuster))

	writeCSV(filepath.Join(baseDir, "contractor_estimate.csv"), contractor)
	writeJSONFile(filepath.Join(baseDir, "contractor_estimate.json"), map[string]any{
		"estimate_ref": "CTR-2026-0001",
		"items":        contractor,
	})
	fmt.Printf("Generated %d contractor items -> contractor_estimate.csv, contractor_estimate.json\n", len(contractor))

	fmt.Println("Test data generation complete.")
}

func newItem(c catalogEntry, qty, price decimal.Decimal) domain.LineItem {
	return domain.LineItem{
		Code:        c.code,
		Description: c.desc,
		Quantity:    qty,
		Unit:        c.unit,
		UnitPrice:   price,
		Total:       money.LineTotal(qty, price),
	}
}

func writeXact(path string, items []domain.LineItem) {
	writeDelimited(path, '|', []string{"SEL", "DESC", "QTY", "UNIT", "UNIT_PRICE", "RCV"}, items)
}

func writeCSV(path string, items []domain.LineItem) {
	writeDelimited(path, ',', []string{"code", "description", "quantity", "unit", "unit_price", "total"}, items)
}

func writeDelimited(path string, comma rune, header []string, items []domain.LineItem) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = comma
	defer w.Flush()

	w.Write(header)
	for _, it := range items {
		w.Write([]string{
			it.Code,
			it.Description,
			it.Quantity.String(),
			it.Unit,
			it.UnitPrice.StringFixed(2),
			it.Total.StringFixed(2),
		})
	}
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	for _, c := range []string{"testdata", "../testdata", "."} {
		if info, err := os.Stat(filepath.Join(c, "generate")); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
