// Package demo serves an in-memory catalog and account store for local
// development when no storefront API is available.
package demo

import (
	"context"
	"fmt"
	"sync"

	"github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/catalog/query"
)

// Catalog is a read-only product catalog loaded from the embedded seed.
type Catalog struct {
	mu            sync.RWMutex
	products      []domain.Product
	categories    []domain.Category
	subcategories []domain.SubCategory
}

// NewCatalog loads the embedded seed catalog.
func NewCatalog() (*Catalog, error) {
	return loadSeed(seedYAML)
}

// Products returns every product.
func (c *Catalog) Products(_ context.Context) ([]domain.Product, error) {
	return c.filter(func(domain.Product) bool { return true }), nil
}

// Featured returns the featured products.
func (c *Catalog) Featured(_ context.Context) ([]domain.Product, error) {
	return c.filter(func(p domain.Product) bool { return p.Featured }), nil
}

// Bestsellers returns the bestselling products.
func (c *Catalog) Bestsellers(_ context.Context) ([]domain.Product, error) {
	return c.filter(func(p domain.Product) bool { return p.Bestseller }), nil
}

// NewLaunches returns the newly launched products.
func (c *Catalog) NewLaunches(_ context.Context) ([]domain.Product, error) {
	return c.filter(func(p domain.Product) bool { return p.NewLaunch }), nil
}

// ByCategory lists products whose category slug is slug.
func (c *Catalog) ByCategory(_ context.Context, slug string) ([]domain.Product, error) {
	return c.filter(func(p domain.Product) bool { return p.Category == slug }), nil
}

// Product looks up a product by slug.
func (c *Catalog) Product(_ context.Context, slug string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %q: %w", slug, query.ErrNotFound)
}

// Categories returns every category with its sub-categories.
func (c *Catalog) Categories(_ context.Context) ([]domain.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Category{}, c.categories...), nil
}

// Category looks up a category by slug.
func (c *Catalog) Category(_ context.Context, slug string) (domain.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cat, ok := query.FindCategory(c.categories, slug); ok {
		return cat, nil
	}
	return domain.Category{}, fmt.Errorf("category %q: %w", slug, query.ErrNotFound)
}

// SubCategories lists subcategories of categoryID, or all for 0.
func (c *Catalog) SubCategories(_ context.Context, categoryID int64) ([]domain.SubCategory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []domain.SubCategory{}
	for _, s := range c.subcategories {
		if categoryID == 0 || s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Search matches q against product and category names.
func (c *Catalog) Search(_ context.Context, q string) (domain.SearchResults, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return query.Search(c.products, c.categories, q), nil
}

func (c *Catalog) filter(keep func(domain.Product) bool) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []domain.Product{}
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

var _ query.Source = (*Catalog)(nil)
