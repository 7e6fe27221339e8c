package catalog

import "context"

// Store persists the two collections as opaque JSON blobs under fixed
// logical keys. Collections are read whole and rewritten whole on every
// mutation; the store never sees partial records.
type Store interface {
	LoadProducts(ctx context.Context) ([]Product, error)
	SaveProducts(ctx context.Context, products []Product) error
	LoadGiftSets(ctx context.Context) ([]GiftSet, error)
	SaveGiftSets(ctx context.Context, sets []GiftSet) error
}
