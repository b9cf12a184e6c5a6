// Package client reads the catalog from the storefront API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/catalog/query"
)

// Client is read-only. It never retries.
type Client struct {
	api   *api.Client
	cache *Cache
}

// New builds a catalog client. cache may be nil.
func New(c *api.Client, cache *Cache) *Client {
	return &Client{api: c, cache: cache}
}

// Products fetches the full product listing.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.get(ctx, "/api/products", &out); err != nil {
		return nil, err
	}
	return orEmpty(out), nil
}

// Product fetches one product by slug. Backends that only address products
// by id answer 404 or 400 there, in which case the listing is searched.
func (c *Client) Product(ctx context.Context, slug string) (domain.Product, error) {
	var p domain.Product
	err := c.get(ctx, "/api/products/"+url.PathEscape(slug), &p)
	if err == nil {
		return p, nil
	}
	if status, ok := api.StatusOf(err); !ok || (status != http.StatusNotFound && status != http.StatusBadRequest) {
		return domain.Product{}, err
	}

	products, err := c.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %q: %w", slug, query.ErrNotFound)
}

// Categories fetches every category.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.get(ctx, "/api/categories", &out); err != nil {
		return nil, err
	}
	return orEmpty(out), nil
}

// SubCategories lists subcategories of categoryID, or all of them for 0.
func (c *Client) SubCategories(ctx context.Context, categoryID int64) ([]domain.SubCategory, error) {
	path := "/api/subcategories"
	if categoryID != 0 {
		path += "?categoryId=" + strconv.FormatInt(categoryID, 10)
	}
	var out []domain.SubCategory
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return orEmpty(out), nil
}

// Search runs a storefront search.
func (c *Client) Search(ctx context.Context, q string) (domain.SearchResults, error) {
	var out domain.SearchResults
	if err := c.get(ctx, "/api/search?q="+url.QueryEscape(q), &out); err != nil {
		return domain.SearchResults{}, err
	}
	out.Products = orEmpty(out.Products)
	out.Categories = orEmpty(out.Categories)
	return out, nil
}

// Invalidate drops cached responses.
func (c *Client) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.cache.get(ctx, path, out) {
		return nil
	}
	if err := c.api.GetJSON(ctx, path, out); err != nil {
		return err
	}
	c.cache.set(ctx, path, out)
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ query.Source = (*Client)(nil)
