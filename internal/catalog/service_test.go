package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeStore is a minimal in-memory Store for service tests.
type fakeStore struct {
	products []Product
	sets     []GiftSet
}

func (s *fakeStore) LoadProducts(ctx context.Context) ([]Product, error) {
	return append([]Product{}, s.products...), nil
}

func (s *fakeStore) SaveProducts(ctx context.Context, products []Product) error {
	s.products = append([]Product{}, products...)
	return nil
}

func (s *fakeStore) LoadGiftSets(ctx context.Context) ([]GiftSet, error) {
	return append([]GiftSet{}, s.sets...), nil
}

func (s *fakeStore) SaveGiftSets(ctx context.Context, sets []GiftSet) error {
	s.sets = append([]GiftSet{}, sets...)
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() (*Service, *fakeStore) {
	st := &fakeStore{}
	return NewService(st), st
}

func TestImportRecords_PrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.ImportRecords(ctx, []Product{{ID: "old", Name: "旧品"}}); err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}
	count, err := svc.ImportRecords(ctx, []Product{{ID: "new-1"}, {ID: "new-2"}})
	if err != nil {
		t.Fatalf("ImportRecords() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	products, err := svc.Products(ctx, ProductFilter{})
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("len(products) = %d, want 3", len(products))
	}
	if products[0].ID != "new-1" || products[2].ID != "old" {
		t.Errorf("imports must land at the front: got order %s, %s, %s",
			products[0].ID, products[1].ID, products[2].ID)
	}
}

func TestProducts_Filter(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	st.products = []Product{
		{ID: "1", Name: "保温杯", SKU: "A-1", Category: "厨房", RetailPrice: d("99")},
		{ID: "2", Name: "茶具", SKU: "B-7", Category: "茶饮", RetailPrice: d("45")},
		{ID: "3", Name: "保温壶", SKU: "A-9", Category: "厨房", RetailPrice: d("150")},
	}

	got, err := svc.Products(ctx, ProductFilter{Search: "保温"})
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("search 保温: len = %d, want 2", len(got))
	}

	got, _ = svc.Products(ctx, ProductFilter{Search: "b-7"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("sku search must be case-insensitive, got %v", got)
	}

	got, _ = svc.Products(ctx, ProductFilter{Category: "厨房"})
	if len(got) != 2 {
		t.Errorf("category 厨房: len = %d, want 2", len(got))
	}

	got, _ = svc.Products(ctx, ProductFilter{Category: "全部"})
	if len(got) != 3 {
		t.Errorf("category 全部 must match everything, len = %d", len(got))
	}

	got, _ = svc.Products(ctx, ProductFilter{Sort: "price-asc"})
	if got[0].ID != "2" || got[2].ID != "3" {
		t.Errorf("price-asc order wrong: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}

	got, _ = svc.Products(ctx, ProductFilter{Sort: "price-desc"})
	if got[0].ID != "3" {
		t.Errorf("price-desc should lead with id 3, got %s", got[0].ID)
	}
}

func TestCategories_DistinctNonEmpty(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	st.products = []Product{
		{ID: "1", Category: "厨房"},
		{ID: "2", Category: ""},
		{ID: "3", Category: "茶饮"},
		{ID: "4", Category: "厨房"},
	}

	got, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(got) != 2 || got[0] != "厨房" || got[1] != "茶饮" {
		t.Errorf("Categories() = %v, want [厨房 茶饮]", got)
	}
}

func TestCreateProduct_Placeholder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	p, err := svc.CreateProduct(ctx)
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if p.ID == "" {
		t.Error("placeholder must get an id")
	}
	if p.Name != "待完善新选品" || p.Unit != "件" || p.Category != "默认" {
		t.Errorf("unexpected placeholder defaults: %+v", p)
	}

	products, _ := svc.Products(ctx, ProductFilter{})
	if len(products) != 1 || products[0].ID != p.ID {
		t.Error("placeholder must land at the front of the library")
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	err := svc.UpdateProduct(ctx, Product{ID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteProduct_KeepsTierReference(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	st.products = []Product{{ID: "p1", Name: "保温杯"}}

	set, err := svc.CreateGiftSet(ctx, "年会方案")
	if err != nil {
		t.Fatalf("CreateGiftSet() error = %v", err)
	}
	tier, err := svc.SaveTier(ctx, set.ID, "", TierParams{TargetTierPrice: d("500")})
	if err != nil {
		t.Fatalf("SaveTier() error = %v", err)
	}
	if err := svc.AddToTier(ctx, set.ID, tier.ID, "p1"); err != nil {
		t.Fatalf("AddToTier() error = %v", err)
	}

	if err := svc.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}

	// The reference stays stored but stops resolving.
	got, _ := svc.GiftSet(ctx, set.ID)
	if len(got.Tiers[0].SelectedProductIDs) != 1 {
		t.Fatal("deleting a product must not rewrite tier selections")
	}
	products, _ := svc.Products(ctx, ProductFilter{})
	if len(NewLookup(products).Resolve(got.Tiers[0])) != 0 {
		t.Error("deleted product must not resolve")
	}
}

func TestSaveTier_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	set, _ := svc.CreateGiftSet(ctx, "年会方案")
	tier, err := svc.SaveTier(ctx, set.ID, "", TierParams{TargetTierPrice: d("500"), DiscountRate: d("80"), Quantity: 100})
	if err != nil {
		t.Fatalf("SaveTier() error = %v", err)
	}
	if tier.Label != "500元档" {
		t.Errorf("Label = %q, want 500元档", tier.Label)
	}
	if tier.SelectedProductIDs == nil {
		t.Error("new tier must start with an empty, non-nil selection")
	}

	updated, err := svc.SaveTier(ctx, set.ID, tier.ID, TierParams{TargetTierPrice: d("300"), Quantity: 50})
	if err != nil {
		t.Fatalf("SaveTier() update error = %v", err)
	}
	if updated.ID != tier.ID {
		t.Error("updating a tier must keep its id")
	}
	if updated.Label != "300元档" {
		t.Errorf("Label = %q, want 300元档", updated.Label)
	}

	got, _ := svc.GiftSet(ctx, set.ID)
	if len(got.Tiers) != 1 || got.Tiers[0].Quantity != 50 {
		t.Errorf("stored tier not updated: %+v", got.Tiers)
	}
}

func TestTierSelections_DuplicatesAndIndexRemoval(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	st.products = []Product{{ID: "p1"}}

	set, _ := svc.CreateGiftSet(ctx, "方案")
	tier, _ := svc.SaveTier(ctx, set.ID, "", TierParams{TargetTierPrice: d("200")})

	for i := 0; i < 3; i++ {
		if err := svc.AddToTier(ctx, set.ID, tier.ID, "p1"); err != nil {
			t.Fatalf("AddToTier() error = %v", err)
		}
	}
	got, _ := svc.GiftSet(ctx, set.ID)
	if len(got.Tiers[0].SelectedProductIDs) != 3 {
		t.Fatalf("selections = %d, want 3 (duplicates allowed)", len(got.Tiers[0].SelectedProductIDs))
	}

	if err := svc.RemoveFromTier(ctx, set.ID, tier.ID, 1); err != nil {
		t.Fatalf("RemoveFromTier() error = %v", err)
	}
	got, _ = svc.GiftSet(ctx, set.ID)
	if len(got.Tiers[0].SelectedProductIDs) != 2 {
		t.Errorf("selections = %d, want 2 after index removal", len(got.Tiers[0].SelectedProductIDs))
	}

	err := svc.RemoveFromTier(ctx, set.ID, tier.ID, 9)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveFromTier(out of range) error = %v, want ErrNotFound", err)
	}
}

func TestGiftSets_NewestFirstAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	first, _ := svc.CreateGiftSet(ctx, "一号")
	second, _ := svc.CreateGiftSet(ctx, "二号")

	sets, err := svc.GiftSets(ctx)
	if err != nil {
		t.Fatalf("GiftSets() error = %v", err)
	}
	if len(sets) != 2 || sets[0].ID != second.ID {
		t.Error("newest gift set must come first")
	}

	if err := svc.DeleteGiftSet(ctx, first.ID); err != nil {
		t.Fatalf("DeleteGiftSet() error = %v", err)
	}
	if _, err := svc.GiftSet(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GiftSet(deleted) error = %v, want ErrNotFound", err)
	}
}
