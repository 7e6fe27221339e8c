// Package pricing implements the tier financial model: a pure function
// from tier parameters and resolved products to a full cost/profit
// breakdown. The same breakdown feeds both the planner views and the
// tabular report, which must stay numerically identical.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shanshui/giftplanner/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one resolved product in a tier with its discounted display
// price. The discounted price is shown per line item but never summed
// into cost.
type LineItem struct {
	Product         catalog.Product `json:"product"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
}

// Breakdown carries every figure the tier model derives.
type Breakdown struct {
	RevenuePerUnit         decimal.Decimal `json:"revenuePerUnit"`
	TotalRetail            decimal.Decimal `json:"totalRetail"`
	DiscountRate           decimal.Decimal `json:"discountRate"`        // tier input, percent
	OverallDiscountRate    decimal.Decimal `json:"overallDiscountRate"` // display metric, percent
	PresentationValue      decimal.Decimal `json:"productPresentationValue"`
	PurchaseCost           decimal.Decimal `json:"totalPlatformPurchaseCost"`
	OtherCosts             decimal.Decimal `json:"otherCosts"`
	TaxAmount              decimal.Decimal `json:"taxAmount"`
	TotalUnitCost          decimal.Decimal `json:"totalUnitCost"`
	NetProfit              decimal.Decimal `json:"netProfit"`
	MarginPercentage       decimal.Decimal `json:"marginPercentage"`
	TotalProjectInvestment decimal.Decimal `json:"totalProjectInvestment"`
	Quantity               int             `json:"quantity"`
	Items                  []LineItem      `json:"items"`
}

// Compute derives the cost/profit breakdown for a tier over its resolved
// products (selection order preserved, duplicates included).
//
// Cost accounting always uses the full platform purchase price; the
// discount rate shapes the presentation value (the tax base) and the
// per-item display prices, never the product cost. Guarded divisions
// return zero instead of dividing by zero, so the computation is total: a
// negative net profit is a valid, displayable result.
func Compute(tier catalog.Tier, products []catalog.Product) Breakdown {
	revenue := tier.TargetTierPrice

	totalRetail := decimal.Zero
	purchase := decimal.Zero
	for _, p := range products {
		totalRetail = totalRetail.Add(p.RetailPrice)
		purchase = purchase.Add(p.PlatformPrice)
	}

	discountDecimal := tier.DiscountRate.Div(hundred)

	overall := decimal.Zero
	if totalRetail.IsPositive() {
		overall = revenue.Div(totalRetail).Mul(hundred)
	}

	presentation := totalRetail.Mul(discountDecimal)
	other := tier.BoxCost.Add(tier.LaborCost).Add(tier.LogisticsCost)
	tax := presentation.Add(other).Mul(tier.TaxRate.Div(hundred))
	totalUnit := purchase.Add(other).Add(tax)
	net := revenue.Sub(totalUnit)

	margin := decimal.Zero
	if revenue.IsPositive() {
		margin = net.Div(revenue).Mul(hundred)
	}

	items := make([]LineItem, 0, len(products))
	for _, p := range products {
		items = append(items, LineItem{
			Product:         p,
			DiscountedPrice: p.RetailPrice.Mul(discountDecimal),
		})
	}

	return Breakdown{
		RevenuePerUnit:         revenue,
		TotalRetail:            totalRetail,
		DiscountRate:           tier.DiscountRate,
		OverallDiscountRate:    overall,
		PresentationValue:      presentation,
		PurchaseCost:           purchase,
		OtherCosts:             other,
		TaxAmount:              tax,
		TotalUnitCost:          totalUnit,
		NetProfit:              net,
		MarginPercentage:       margin,
		TotalProjectInvestment: totalUnit.Mul(decimal.NewFromInt(int64(tier.Quantity))),
		Quantity:               tier.Quantity,
		Items:                  items,
	}
}
