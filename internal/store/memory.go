package store

import (
	"context"
	"sync"

	"github.com/shanshui/giftplanner/internal/catalog"
)

// Memory is an in-memory catalog.Store. It backs the tests and keeps the
// same replace-whole-collection semantics as the Postgres store.
type Memory struct {
	mu       sync.Mutex
	products []catalog.Product
	sets     []catalog.GiftSet
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) LoadProducts(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *Memory) SaveProducts(ctx context.Context, products []catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make([]catalog.Product, len(products))
	copy(s.products, products)
	return nil
}

func (s *Memory) LoadGiftSets(ctx context.Context) ([]catalog.GiftSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.GiftSet, len(s.sets))
	copy(out, s.sets)
	return out, nil
}

func (s *Memory) SaveGiftSets(ctx context.Context, sets []catalog.GiftSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = make([]catalog.GiftSet, len(sets))
	copy(s.sets, sets)
	return nil
}
