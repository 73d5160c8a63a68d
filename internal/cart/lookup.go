package cart

//go:generate mockgen -source=lookup.go -destination=lookup_mock.go -package=cart

import (
	"context"

	"BigCorp/internal/catalog"
)

// ProductLookup resolves the products of a cart in one call. Products the
// catalog no longer shows are simply missing from the result.
type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error)
}

// ProductGetter fetches a single visible product for the add endpoint.
type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, bool, error)
}
