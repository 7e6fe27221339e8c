package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shanshui/giftplanner/internal/catalog"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixtureSet() (catalog.GiftSet, catalog.Lookup) {
	products := []catalog.Product{
		{ID: "p1", SKU: "A-1", Name: "保温杯", RetailPrice: d("300"), PlatformPrice: d("80")},
		{ID: "p2", SKU: "A-2", Name: "茶具", RetailPrice: d("200"), PlatformPrice: d("70")},
	}
	set := catalog.GiftSet{
		ID:   "s1",
		Name: "年会方案",
		Tiers: []catalog.Tier{
			{
				ID:                 "t1",
				TargetTierPrice:    d("500"),
				DiscountRate:       d("80"),
				Quantity:           100,
				BoxCost:            d("25"),
				LaborCost:          d("5"),
				LogisticsCost:      d("15"),
				TaxRate:            d("6"),
				SelectedProductIDs: []string{"p1", "p2"},
			},
		},
	}
	return set, catalog.NewLookup(products)
}

func TestBuildCSV(t *testing.T) {
	set, lookup := fixtureSet()

	out := string(BuildCSV(set, lookup))
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatal("output must start with a UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\uFEFF"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 product rows", len(lines))
	}

	header := strings.Split(lines[0], ",")
	if len(header) != 19 {
		t.Errorf("header columns = %d, want 19", len(header))
	}
	if header[0] != "方案名称" || header[18] != "采购单价" {
		t.Errorf("unexpected header boundaries: %q ... %q", header[0], header[18])
	}

	first := strings.Split(lines[1], ",")
	if len(first) != 19 {
		t.Fatalf("first row columns = %d, want 19", len(first))
	}
	if first[0] != "年会方案" {
		t.Errorf("set name = %q, want 年会方案", first[0])
	}
	if first[1] != "500" {
		t.Errorf("revenue = %q, want 500", first[1])
	}
	if first[2] != "80%" {
		t.Errorf("discount rate = %q, want 80%%", first[2])
	}
	if first[3] != "100" {
		t.Errorf("quantity = %q, want 100", first[3])
	}
	if first[9] != "26.70" {
		t.Errorf("tax = %q, want 26.70", first[9])
	}
	if first[12] != "55.66%" {
		t.Errorf("margin = %q, want 55.66%%", first[12])
	}
	if first[13] != "22170.00" {
		t.Errorf("investment = %q, want 22170.00", first[13])
	}
	if first[14] != `"保温杯"` {
		t.Errorf("product name = %q, want quoted 保温杯", first[14])
	}
	if first[17] != "240.00" {
		t.Errorf("discounted price = %q, want 240.00", first[17])
	}

	second := strings.Split(lines[2], ",")
	if len(second) != 19 {
		t.Fatalf("second row columns = %d, want 19", len(second))
	}
	for i := 0; i < 14; i++ {
		if second[i] != "" {
			t.Errorf("second row summary column %d = %q, want empty", i, second[i])
		}
	}
	if second[14] != `"茶具"` || second[15] != "A-2" {
		t.Errorf("second row product = %q %q", second[14], second[15])
	}
}

func TestBuildCSV_SkipsEmptyTiers(t *testing.T) {
	set, lookup := fixtureSet()
	set.Tiers = append(set.Tiers, catalog.Tier{
		ID:                 "t2",
		TargetTierPrice:    d("300"),
		SelectedProductIDs: []string{"missing-1", "missing-2"},
	})
	set.Tiers = append(set.Tiers, catalog.Tier{ID: "t3", TargetTierPrice: d("200")})

	out := string(BuildCSV(set, lookup))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("lines = %d, want 3 (tiers with no resolved products add no rows)", len(lines))
	}
}

func TestBuildCSV_DanglingIDsExcluded(t *testing.T) {
	set, lookup := fixtureSet()
	set.Tiers[0].SelectedProductIDs = []string{"p1", "ghost", "p2"}

	out := string(BuildCSV(set, lookup))
	if strings.Contains(out, "ghost") {
		t.Error("dangling ids must not appear in the report")
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("lines = %d, want 3 (only resolved products produce rows)", len(lines))
	}
}

func TestFilename(t *testing.T) {
	set := catalog.GiftSet{Name: "年会方案"}
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	got := Filename(set, now)
	want := "方案报表_年会方案_2026-03-15.csv"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}
