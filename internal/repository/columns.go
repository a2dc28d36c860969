package repository

import (
	"fmt"
	"strings"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/util"

	"github.com/shopspring/decimal"
)

// Normalised header names accepted for each required column.
var columnAliases = map[string][]string{
	"code":  {"stockcode", "productcode", "sku"},
	"date":  {"invoicedate", "date", "timestamp"},
	"qty":   {"quantity", "qty"},
	"price": {"price", "unitprice"},
}

var requiredColumns = []string{"code", "date", "qty", "price"}

type columnIndex map[string]int

// mapHeader locates the required columns in a header row, matching names
// case-, space- and underscore-insensitively.
func mapHeader(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := util.NormalizeHeader(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	idx := make(columnIndex, len(requiredColumns))
	var missing []string
	for _, col := range requiredColumns {
		found := false
		for _, alias := range columnAliases[col] {
			if i, ok := pos[alias]; ok {
				idx[col] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, columnAliases[col][0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// parseRow converts one data row. ok is false when Quantity or Price is not
// numeric; the timestamp is kept verbatim for the cleaner.
func (idx columnIndex) parseRow(row []string, source string) (models.TransactionRecord, bool) {
	qty, ok := util.ParseQuantity(cell(row, idx["qty"]))
	if !ok {
		return models.TransactionRecord{}, false
	}
	price, err := decimal.NewFromString(cell(row, idx["price"]))
	if err != nil {
		return models.TransactionRecord{}, false
	}
	return models.TransactionRecord{
		ProductCode: cell(row, idx["code"]),
		Timestamp:   cell(row, idx["date"]),
		Quantity:    qty,
		UnitPrice:   price,
		Source:      source,
	}, true
}
