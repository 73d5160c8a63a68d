package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type MemStore struct {
	mu         sync.RWMutex
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
	now        func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:   map[int64]Product{},
		categories: map[int64]Category{},
		now:        time.Now,
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListProducts(ctx context.Context) ([]Product, error) {
	return s.filter(func(Product) bool { return true }), nil
}

func (s *MemStore) GetProduct(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || !p.Available {
		return Product{}, false, nil
	}
	return p, true, nil
}

func (s *MemStore) GetProductBySlug(ctx context.Context, slug string) (Product, bool, error) {
	found := s.filter(func(p Product) bool { return p.Slug == slug })
	if len(found) == 0 {
		return Product{}, false, nil
	}
	return found[0], true, nil
}

func (s *MemStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filter(func(p Product) bool {
		_, ok := want[p.ID]
		return ok
	}), nil
}

func (s *MemStore) TopLevelCategories(ctx context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.ParentID == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetCategoryBySlug(ctx context.Context, slug string) (Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			return c, true, nil
		}
	}
	return Category{}, false, nil
}

func (s *MemStore) ListByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	return s.filter(func(p Product) bool { return p.CategoryID == categoryID }), nil
}

func (s *MemStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	c = normalizeCategory(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return Category{}, fmt.Errorf("category slug %q already exists", c.Slug)
		}
	}
	if c.ParentID != nil {
		if _, ok := s.categories[*c.ParentID]; !ok {
			return Category{}, fmt.Errorf("parent category %d: %w", *c.ParentID, ErrNotFound)
		}
	}

	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = s.now().UTC()
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p = normalizeProduct(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[p.CategoryID]; !ok {
		return Product{}, fmt.Errorf("category %d: %w", p.CategoryID, ErrNotFound)
	}

	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

// SetAvailable flips a product's availability. Tests and seeding use it to
// simulate products being withdrawn.
func (s *MemStore) SetAvailable(id int64, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.products[id]; ok {
		p.Available = available
		p.UpdatedAt = s.now().UTC()
		s.products[id] = p
	}
}

func (s *MemStore) filter(keep func(Product) bool) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Available && keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
