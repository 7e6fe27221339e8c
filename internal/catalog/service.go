package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports a product, gift set, or tier id that does not exist.
var ErrNotFound = errors.New("not found")

// Service owns the product library and the gift set collection. Every
// mutation loads the affected collection, applies the change, and rewrites
// the collection whole; the mutex keeps that read-modify-write atomic
// under concurrent HTTP handlers.
type Service struct {
	mu    sync.Mutex
	store Store
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	Search   string // case-insensitive substring of name or sku
	Category string // empty or "全部" matches every category
	Sort     string // "price-asc" or "price-desc"; anything else keeps library order
}

// Products returns the library, newest first, filtered and sorted.
func (s *Service) Products(ctx context.Context, f ProductFilter) ([]Product, error) {
	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(f.Search)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		if f.Category != "" && f.Category != "全部" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case "price-asc":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RetailPrice.LessThan(out[j].RetailPrice)
		})
	case "price-desc":
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].RetailPrice.LessThan(out[i].RetailPrice)
		})
	}
	return out, nil
}

// Categories returns the distinct non-empty categories in library order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out, nil
}

// CreateProduct adds a placeholder product to the front of the library for
// manual completion in the editor.
func (s *Service) CreateProduct(ctx context.Context) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Product{
		ID:       uuid.NewString(),
		SKU:      fmt.Sprintf("NEW-%d", rand.IntN(1000)),
		Name:     "待完善新选品",
		Unit:     "件",
		Category: "默认",
	}

	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return Product{}, err
	}
	products = append([]Product{p}, products...)
	if err := s.store.SaveProducts(ctx, products); err != nil {
		return Product{}, err
	}
	return p, nil
}

// ImportRecords prepends imported products to the library, newest first,
// never replacing existing records. Returns the count added.
func (s *Service) ImportRecords(ctx context.Context, records []Product) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return 0, err
	}
	products = append(append([]Product{}, records...), products...)
	if err := s.store.SaveProducts(ctx, products); err != nil {
		return 0, err
	}
	return len(records), nil
}

// UpdateProduct replaces a product record whole. No validation blocks the
// save; the editor's values are stored as typed.
func (s *Service) UpdateProduct(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == p.ID {
			products[i] = p
			return s.store.SaveProducts(ctx, products)
		}
	}
	return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
}

// DeleteProduct removes a product by id. Tiers referencing the id keep the
// reference; it simply stops resolving.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return err
	}
	kept := products[:0]
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return s.store.SaveProducts(ctx, kept)
}

// GiftSets returns all gift sets, newest first.
func (s *Service) GiftSets(ctx context.Context) ([]GiftSet, error) {
	return s.store.LoadGiftSets(ctx)
}

// GiftSet returns one gift set by id.
func (s *Service) GiftSet(ctx context.Context, id string) (GiftSet, error) {
	sets, err := s.store.LoadGiftSets(ctx)
	if err != nil {
		return GiftSet{}, err
	}
	for _, set := range sets {
		if set.ID == id {
			return set, nil
		}
	}
	return GiftSet{}, fmt.Errorf("gift set %s: %w", id, ErrNotFound)
}

// CreateGiftSet creates an empty named gift set at the front of the
// collection.
func (s *Service) CreateGiftSet(ctx context.Context, name string) (GiftSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := GiftSet{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	sets, err := s.store.LoadGiftSets(ctx)
	if err != nil {
		return GiftSet{}, err
	}
	sets = append([]GiftSet{set}, sets...)
	if err := s.store.SaveGiftSets(ctx, sets); err != nil {
		return GiftSet{}, err
	}
	return set, nil
}

// DeleteGiftSet removes a gift set and the tiers it owns.
func (s *Service) DeleteGiftSet(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, err := s.store.LoadGiftSets(ctx)
	if err != nil {
		return err
	}
	kept := sets[:0]
	found := false
	for _, set := range sets {
		if set.ID == id {
			found = true
			continue
		}
		kept = append(kept, set)
	}
	if !found {
		return fmt.Errorf("gift set %s: %w", id, ErrNotFound)
	}
	return s.store.SaveGiftSets(ctx, kept)
}

// SaveTier creates a tier (empty tierID) or rewrites an existing tier's
// parameters. The display label derives from the target price either way.
func (s *Service) SaveTier(ctx context.Context, setID, tierID string, params TierParams) (Tier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var saved Tier
	err := s.updateSet(ctx, setID, func(set *GiftSet) error {
		label := params.TargetTierPrice.String() + "元档"
		if tierID == "" {
			saved = Tier{
				ID:                 uuid.NewString(),
				Label:              label,
				TargetTierPrice:    params.TargetTierPrice,
				DiscountRate:       params.DiscountRate,
				Quantity:           params.Quantity,
				BoxCost:            params.BoxCost,
				LaborCost:          params.LaborCost,
				LogisticsCost:      params.LogisticsCost,
				TaxRate:            params.TaxRate,
				SelectedProductIDs: []string{},
			}
			set.Tiers = append(set.Tiers, saved)
			return nil
		}
		for i := range set.Tiers {
			if set.Tiers[i].ID == tierID {
				t := &set.Tiers[i]
				t.Label = label
				t.TargetTierPrice = params.TargetTierPrice
				t.DiscountRate = params.DiscountRate
				t.Quantity = params.Quantity
				t.BoxCost = params.BoxCost
				t.LaborCost = params.LaborCost
				t.LogisticsCost = params.LogisticsCost
				t.TaxRate = params.TaxRate
				saved = *t
				return nil
			}
		}
		return fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
	})
	return saved, err
}

// DeleteTier removes a tier from its gift set.
func (s *Service) DeleteTier(ctx context.Context, setID, tierID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSet(ctx, setID, func(set *GiftSet) error {
		for i := range set.Tiers {
			if set.Tiers[i].ID == tierID {
				set.Tiers = append(set.Tiers[:i], set.Tiers[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
	})
}

// AddToTier appends a product reference to a tier's selection. The same
// product may be added any number of times.
func (s *Service) AddToTier(ctx context.Context, setID, tierID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSet(ctx, setID, func(set *GiftSet) error {
		for i := range set.Tiers {
			if set.Tiers[i].ID == tierID {
				set.Tiers[i].SelectedProductIDs = append(set.Tiers[i].SelectedProductIDs, productID)
				return nil
			}
		}
		return fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
	})
}

// RemoveFromTier removes one selection by position. Duplicates make the
// index, not the product id, the removal key.
func (s *Service) RemoveFromTier(ctx context.Context, setID, tierID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSet(ctx, setID, func(set *GiftSet) error {
		for i := range set.Tiers {
			if set.Tiers[i].ID != tierID {
				continue
			}
			ids := set.Tiers[i].SelectedProductIDs
			if index < 0 || index >= len(ids) {
				return fmt.Errorf("selection index %d: %w", index, ErrNotFound)
			}
			set.Tiers[i].SelectedProductIDs = append(ids[:index], ids[index+1:]...)
			return nil
		}
		return fmt.Errorf("tier %s: %w", tierID, ErrNotFound)
	})
}

// updateSet applies fn to the named gift set and rewrites the collection.
// Callers hold s.mu.
func (s *Service) updateSet(ctx context.Context, setID string, fn func(*GiftSet) error) error {
	sets, err := s.store.LoadGiftSets(ctx)
	if err != nil {
		return err
	}
	for i := range sets {
		if sets[i].ID == setID {
			if err := fn(&sets[i]); err != nil {
				return err
			}
			return s.store.SaveGiftSets(ctx, sets)
		}
	}
	return fmt.Errorf("gift set %s: %w", setID, ErrNotFound)
}
