// Package report serializes a gift set's tiers and their cost breakdowns
// into delimited text for spreadsheet tools.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shanshui/giftplanner/internal/catalog"
	"github.com/shanshui/giftplanner/internal/pricing"
)

// Header is the fixed 19-column layout: 14 tier-summary columns followed
// by 5 per-product columns. The first resolved product of each tier
// carries the summary values; subsequent products carry 14 empty columns
// so the per-product detail stays aligned underneath.
var Header = []string{
	"方案名称", "档位营收价", "选品折率", "数量", "非折扣零售总额", "整体折扣率",
	"折后展示总价", "全采购成本", "单套杂费", "预估税额", "单套全成本", "单套净利",
	"净利率", "全案总投入",
	"产品名称", "SKU", "零售单价", "折后单价", "采购单价",
}

var emptySummary = make([]string, 14)

// BuildCSV renders a gift set to comma-separated text, prefixed with a
// UTF-8 byte-order marker so common spreadsheet tools pick the right
// encoding. Breakdowns are computed by the same engine the planner views
// use, so the figures are numerically identical.
//
// Product names are wrapped in double quotes unconditionally, with no
// internal-quote escaping (the importer reads the same minimal dialect).
// A tier with zero resolved products contributes no rows.
func BuildCSV(set catalog.GiftSet, lookup catalog.Lookup) []byte {
	var b strings.Builder
	b.WriteString("\uFEFF")
	b.WriteString(strings.Join(Header, ","))
	b.WriteByte('\n')

	for _, tier := range set.Tiers {
		products := lookup.Resolve(tier)
		if len(products) == 0 {
			continue
		}
		bd := pricing.Compute(tier, products)

		for i, item := range bd.Items {
			var row []string
			if i == 0 {
				row = summaryColumns(set.Name, bd)
			} else {
				row = append(row, emptySummary...)
			}
			row = append(row, productColumns(item)...)
			b.WriteString(strings.Join(row, ","))
			b.WriteByte('\n')
		}
	}

	return []byte(b.String())
}

// summaryColumns renders the 14 tier-summary values. Monetary values are
// fixed to 2 decimal places, percentages carry a % suffix.
func summaryColumns(setName string, bd pricing.Breakdown) []string {
	return []string{
		setName,
		bd.RevenuePerUnit.String(),
		bd.DiscountRate.String() + "%",
		strconv.Itoa(bd.Quantity),
		bd.TotalRetail.StringFixed(2),
		bd.OverallDiscountRate.StringFixed(2) + "%",
		bd.PresentationValue.StringFixed(2),
		bd.PurchaseCost.StringFixed(2),
		bd.OtherCosts.StringFixed(2),
		bd.TaxAmount.StringFixed(2),
		bd.TotalUnitCost.StringFixed(2),
		bd.NetProfit.StringFixed(2),
		bd.MarginPercentage.StringFixed(2) + "%",
		bd.TotalProjectInvestment.StringFixed(2),
	}
}

// productColumns renders the 5 per-product detail values.
func productColumns(item pricing.LineItem) []string {
	return []string{
		`"` + item.Product.Name + `"`,
		item.Product.SKU,
		item.Product.RetailPrice.String(),
		item.DiscountedPrice.StringFixed(2),
		item.Product.PlatformPrice.String(),
	}
}

// Filename builds the download name for a gift set report.
func Filename(set catalog.GiftSet, now time.Time) string {
	return fmt.Sprintf("方案报表_%s_%s.csv", set.Name, now.Format("2006-01-02"))
}
