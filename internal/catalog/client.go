package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogBadStatus   = errors.New("catalog bad status")
)

// Client reads the catalog through the catalog service JSON API. It
// satisfies Reader so the storefront can run against a remote catalog.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/readyz", nil, nil)
	return err
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if _, err := c.get(ctx, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (Product, bool, error) {
	var p Product
	found, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10), nil, &p)
	return p, found, err
}

func (c *Client) GetProductBySlug(ctx context.Context, slug string) (Product, bool, error) {
	var out []Product
	found, err := c.get(ctx, "/products", url.Values{"slug": {slug}}, &out)
	if err != nil || !found || len(out) == 0 {
		return Product{}, false, err
	}
	return out[0], true, nil
}

// FindByIDs resolves ids with one request per batch of maxBatchIDs.
func (c *Client) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	out := []Product{}
	for batch := range slices.Chunk(ids, maxBatchIDs) {
		parts := make([]string, len(batch))
		for i, id := range batch {
			parts[i] = strconv.FormatInt(id, 10)
		}

		var found []Product
		if _, err := c.get(ctx, "/products", url.Values{"ids": {strings.Join(parts, ",")}}, &found); err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (c *Client) TopLevelCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if _, err := c.get(ctx, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCategoryBySlug(ctx context.Context, slug string) (Category, bool, error) {
	var cat Category
	found, err := c.get(ctx, "/categories/"+url.PathEscape(slug), nil, &cat)
	return cat, found, err
}

// ListByCategory filters the full listing; the API addresses categories by
// slug only.
func (c *Client) ListByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	all, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

// get returns false without an error on 404.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) (bool, error) {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
