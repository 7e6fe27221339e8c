// Package catalog provides the product library and gift set planning model.
// This package has no UI dependencies and can be used by any frontend.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a single entry in the product library.
//
// Monetary fields are plain decimals in one implied currency. ChannelPrice
// is carried through import and persistence but consumed by no computation.
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Spec          string          `json:"spec"`
	Unit          string          `json:"unit"`
	PlatformPrice decimal.Decimal `json:"platformPrice"` // purchase cost per unit
	ChannelPrice  decimal.Decimal `json:"channelPrice"`
	RetailPrice   decimal.Decimal `json:"retailPrice"`
	Image         string          `json:"image"` // URL; empty or unreachable means "no image"
	Manufacturer  string          `json:"manufacturer"`
	Category      string          `json:"category"`
}

// Tier is one price tier inside a gift set. Tiers exist only inside their
// owning GiftSet and are created and edited through the tier parameter form.
type Tier struct {
	ID              string          `json:"id"`
	Label           string          `json:"label"` // derived display string, not authoritative
	TargetTierPrice decimal.Decimal `json:"targetTierPrice"`
	DiscountRate    decimal.Decimal `json:"discountRate"` // percentage, display pricing only
	Quantity        int             `json:"quantity"`
	BoxCost         decimal.Decimal `json:"boxCost"`
	LaborCost       decimal.Decimal `json:"laborCost"`
	LogisticsCost   decimal.Decimal `json:"logisticsCost"`
	TaxRate         decimal.Decimal `json:"taxRate"`

	// SelectedProductIDs is ordered and may contain duplicates; the same
	// product can appear several times in a tier. Ids that no longer
	// resolve in the library stay stored until explicitly removed but are
	// excluded from every computation and export row.
	SelectedProductIDs []string `json:"selectedProductIds"`
}

// GiftSet is a named plan owning an ordered list of tiers.
type GiftSet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Tiers     []Tier    `json:"tiers"`
}

// TierParams are the editable financial parameters of a tier.
type TierParams struct {
	TargetTierPrice decimal.Decimal `json:"targetTierPrice"`
	DiscountRate    decimal.Decimal `json:"discountRate"`
	Quantity        int             `json:"quantity"`
	BoxCost         decimal.Decimal `json:"boxCost"`
	LaborCost       decimal.Decimal `json:"laborCost"`
	LogisticsCost   decimal.Decimal `json:"logisticsCost"`
	TaxRate         decimal.Decimal `json:"taxRate"`
}

// DefaultTierParams returns the prefilled values a new tier starts from
// when the caller supplies none.
func DefaultTierParams() TierParams {
	return TierParams{
		TargetTierPrice: decimal.NewFromInt(500),
		DiscountRate:    decimal.NewFromInt(80),
		Quantity:        100,
		BoxCost:         decimal.NewFromInt(25),
		LaborCost:       decimal.NewFromInt(5),
		LogisticsCost:   decimal.NewFromInt(15),
		TaxRate:         decimal.NewFromInt(6),
	}
}

// Lookup maps product ids to products for tier resolution.
type Lookup map[string]Product

// NewLookup builds a Lookup from a product slice.
func NewLookup(products []Product) Lookup {
	m := make(Lookup, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

// Resolve returns the products referenced by the tier, in selection order,
// duplicates included. Ids missing from the lookup are silently dropped;
// a dangling reference is never an error.
func (l Lookup) Resolve(t Tier) []Product {
	out := make([]Product, 0, len(t.SelectedProductIDs))
	for _, id := range t.SelectedProductIDs {
		if p, ok := l[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
