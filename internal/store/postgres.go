// Package store provides blob-store implementations of catalog.Store.
// State lives in a single key/value table: each collection is one JSON
// document under a fixed key, replaced whole on every save.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanshui/giftplanner/internal/catalog"
)

const (
	keyProducts = "products"
	keyGiftSets = "gift_sets"
)

// Postgres stores both collections in the app_state table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store over an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Init creates the backing table if it does not exist.
func (s *Postgres) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS app_state (
			key        text PRIMARY KEY,
			value      jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("init app_state: %w", err)
	}
	return nil
}

// LoadProducts reads the product collection. A missing key is an empty
// library, not an error.
func (s *Postgres) LoadProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := s.load(ctx, keyProducts, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SaveProducts rewrites the product collection.
func (s *Postgres) SaveProducts(ctx context.Context, products []catalog.Product) error {
	return s.save(ctx, keyProducts, products)
}

// LoadGiftSets reads the gift set collection.
func (s *Postgres) LoadGiftSets(ctx context.Context) ([]catalog.GiftSet, error) {
	var sets []catalog.GiftSet
	if err := s.load(ctx, keyGiftSets, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// SaveGiftSets rewrites the gift set collection.
func (s *Postgres) SaveGiftSets(ctx context.Context, sets []catalog.GiftSet) error {
	return s.save(ctx, keyGiftSets, sets)
}

func (s *Postgres) load(ctx context.Context, key string, dst any) error {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Postgres) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, raw)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
