package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shanshui/giftplanner/internal/catalog"
)

// Per-field defaults applied when a canonical column is missing from the
// file. Text defaults match the library's display conventions.
const (
	defaultName     = "未命名"
	defaultCategory = "默认"
)

// ParseProducts decodes a delimited product file and maps every data row
// to a Product with a freshly generated id. It returns the records in file
// order; callers decide how to merge them into the library.
//
// A decode or format failure imports nothing and reports what went wrong.
func ParseProducts(data []byte) ([]catalog.Product, error) {
	rows, err := DecodeTable(data)
	if err != nil {
		return nil, err
	}

	cols := ResolveHeader(rows[0])
	products := make([]catalog.Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		products = append(products, buildProduct(row, cols, i))
	}
	return products, nil
}

// buildProduct maps one data row to a Product. Resolved columns are read
// from the row (numeric columns through SanitizeNumber); unresolved
// columns fall back to fixed per-field defaults.
func buildProduct(row []string, cols map[Field]int, rowIndex int) catalog.Product {
	text := func(f Field, fallback string) string {
		idx := cols[f]
		if idx == ColumnNotFound {
			return fallback
		}
		return cell(row, idx)
	}
	price := func(f Field) decimal.Decimal {
		idx := cols[f]
		if idx == ColumnNotFound {
			return decimal.Zero
		}
		return SanitizeNumber(cell(row, idx))
	}

	return catalog.Product{
		ID:            uuid.NewString(),
		SKU:           text(FieldSKU, fmt.Sprintf("SKU-%d", rowIndex)),
		Name:          text(FieldName, defaultName),
		Spec:          text(FieldSpec, ""),
		Unit:          text(FieldUnit, ""),
		PlatformPrice: price(FieldPlatformPrice),
		ChannelPrice:  price(FieldChannelPrice),
		RetailPrice:   price(FieldRetailPrice),
		Image:         text(FieldImage, ""),
		Manufacturer:  text(FieldManufacturer, ""),
		Category:      text(FieldCategory, defaultCategory),
	}
}

// cell reads a column from a row, tolerating short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// SanitizeNumber strips every character that is not a digit or decimal
// point and parses the remainder. Empty-after-strip or unparsable input
// yields zero. Values with embedded currency symbols or thousands
// separators survive; multiple decimal points are best-effort garbage-in
// and coerce to zero rather than raising an error.
func SanitizeNumber(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
