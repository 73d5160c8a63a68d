package catalog

import "context"

// Reader is the read side shoppers see. Every method hides unavailable
// products.
type Reader interface {
	Ping(ctx context.Context) error
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, bool, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, bool, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Product, error)
	TopLevelCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (Category, bool, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]Product, error)
}

type Store interface {
	Reader
	CreateCategory(ctx context.Context, c Category) (Category, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
}
