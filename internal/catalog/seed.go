package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	title, brand, price string
}

var seedCatalog = []struct {
	name     string
	slug     string
	products []seedProduct
}{
	{name: "Keyboards", slug: "keyboards", products: []seedProduct{
		{title: "Mechanical Keyboard", brand: "Keychron", price: "49.90"},
		{title: "Low Profile Keyboard", brand: "Logitech", price: "39.00"},
	}},
	{name: "Mice", slug: "mice", products: []seedProduct{
		{title: "Wireless Mouse", brand: "Logitech", price: "19.90"},
	}},
}

// Seed fills an empty store with a small demo catalog.
func Seed(ctx context.Context, s Store) error {
	for _, sc := range seedCatalog {
		c, err := s.CreateCategory(ctx, Category{Name: sc.name, Slug: sc.slug})
		if err != nil {
			return fmt.Errorf("seed category %s: %w", sc.name, err)
		}
		for _, sp := range sc.products {
			_, err := s.CreateProduct(ctx, Product{
				CategoryID: c.ID,
				Title:      sp.title,
				Brand:      sp.brand,
				Price:      decimal.RequireFromString(sp.price),
				Available:  true,
			})
			if err != nil {
				return fmt.Errorf("seed product %s: %w", sp.title, err)
			}
		}
	}
	return nil
}
