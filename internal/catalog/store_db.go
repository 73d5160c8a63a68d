package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	productColumns = `id, category_id, title, brand, description, slug, price::text, image, available, created_at, updated_at`
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE available
		ORDER BY id ASC
	`)
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (Product, bool, error) {
	return s.queryProduct(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND available
	`, id)
}

func (s *PostgresStore) GetProductBySlug(ctx context.Context, slug string) (Product, bool, error) {
	return s.queryProduct(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE slug = $1 AND available
		ORDER BY id ASC
		LIMIT 1
	`, slug)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1) AND available
		ORDER BY id ASC
	`, ids)
}

func (s *PostgresStore) ListByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category_id = $1 AND available
		ORDER BY id ASC
	`, categoryID)
}

func (s *PostgresStore) TopLevelCategories(ctx context.Context) ([]Category, error) {
	var out []Category

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
			SELECT id, name, parent_id, slug, created_at
			FROM categories
			WHERE parent_id IS NULL
			ORDER BY name ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Category, 0, 8)
		for rows.Next() {
			var c Category
			if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.Slug, &c.CreatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetCategoryBySlug(ctx context.Context, slug string) (Category, bool, error) {
	var c Category

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			SELECT id, name, parent_id, slug, created_at
			FROM categories
			WHERE slug = $1
		`, slug).Scan(&c.ID, &c.Name, &c.ParentID, &c.Slug, &c.CreatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, false, nil
	}
	if err != nil {
		return Category{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	c = normalizeCategory(c)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO categories (name, parent_id, slug)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, c.Name, c.ParentID, c.Slug).Scan(&c.ID, &c.CreatedAt)
	})
	if err != nil {
		return Category{}, fmt.Errorf("insert category %q: %w", c.Slug, err)
	}
	return c, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p = normalizeProduct(p)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO products (category_id, title, brand, description, slug, price, image, available)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
			RETURNING id, created_at, updated_at
		`, p.CategoryID, p.Title, p.Brand, p.Description, p.Slug, p.Price.StringFixed(2), p.Image, p.Available).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return Product{}, fmt.Errorf("insert product %q: %w", p.Slug, err)
	}
	return p, nil
}

func (s *PostgresStore) queryProduct(ctx context.Context, q string, args ...any) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.pool.QueryRow(ctx, q, args...))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) queryProducts(ctx context.Context, q string, args ...any) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Title, &p.Brand, &p.Description, &p.Slug,
		&price, &p.Image, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
