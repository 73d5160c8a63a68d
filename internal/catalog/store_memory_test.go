package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededMemStore(t *testing.T) (*MemStore, Category, []Product) {
	t.Helper()
	ctx := context.Background()

	s := NewMemStore()
	c, err := s.CreateCategory(ctx, Category{Name: "Category 1", Slug: "category-1"})
	require.NoError(t, err)

	var products []Product
	for _, title := range []string{"Product 1", "Product 2", "Product 3"} {
		p, err := s.CreateProduct(ctx, Product{
			CategoryID: c.ID,
			Title:      title,
			Price:      decimal.RequireFromString("10.00"),
			Available:  true,
		})
		require.NoError(t, err)
		products = append(products, p)
	}
	return s, c, products
}

func TestMemStore_HidesUnavailable(t *testing.T) {
	ctx := context.Background()
	s, c, products := newSeededMemStore(t)
	s.SetAvailable(products[1].ID, false)

	list, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, ok, err := s.GetProduct(ctx, products[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetProductBySlug(ctx, "product-2")
	require.NoError(t, err)
	assert.False(t, ok)

	byCat, err := s.ListByCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, byCat, 2)
}

func TestMemStore_FindByIDs(t *testing.T) {
	ctx := context.Background()
	s, _, products := newSeededMemStore(t)

	found, err := s.FindByIDs(ctx, []int64{products[0].ID, products[2].ID, 9999})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, products[0].ID, found[0].ID)
	assert.Equal(t, products[2].ID, found[1].ID)

	found, err = s.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemStore_Categories(t *testing.T) {
	ctx := context.Background()
	s, root, _ := newSeededMemStore(t)

	child, err := s.CreateCategory(ctx, Category{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, child.Slug)

	top, err := s.TopLevelCategories(ctx)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, root.ID, top[0].ID)

	got, ok, err := s.GetCategoryBySlug(ctx, child.Slug)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, child.ID, got.ID)

	_, err = s.CreateCategory(ctx, Category{Name: "Dup", Slug: root.Slug})
	assert.Error(t, err)

	missing := int64(404)
	_, err = s.CreateCategory(ctx, Category{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateProduct(ctx, Product{CategoryID: missing, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, Seed(ctx, s))

	top, err := s.TopLevelCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}
