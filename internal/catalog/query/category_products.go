package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/storefront/internal/catalog/domain"
)

// ErrNotFound is returned when a slug names no catalog entry.
var ErrNotFound = errors.New("catalog: not found")

// Source is anything that can list the catalog.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	SubCategories(ctx context.Context, categoryID int64) ([]domain.SubCategory, error)
}

// CategoryProductsQuery asks for one category page.
type CategoryProductsQuery struct {
	CategorySlug string
	Subcategory  string // slug or "all"
}

// CategoryPage is everything a category page renders.
type CategoryPage struct {
	Category      domain.Category      `json:"category"`
	SubCategories []domain.SubCategory `json:"subcategories"`
	Products      []domain.Product     `json:"products"`
}

// CategoryProductsHandler resolves a category page against a Source.
type CategoryProductsHandler struct {
	source Source
}

// NewCategoryProductsHandler creates a new category products handler
func NewCategoryProductsHandler(source Source) *CategoryProductsHandler {
	return &CategoryProductsHandler{source: source}
}

// Handle returns ErrNotFound when the category slug is unknown.
func (h *CategoryProductsHandler) Handle(ctx context.Context, q CategoryProductsQuery) (CategoryPage, error) {
	categories, err := h.source.Categories(ctx)
	if err != nil {
		return CategoryPage{}, fmt.Errorf("failed to list categories: %w", err)
	}
	category, ok := FindCategory(categories, q.CategorySlug)
	if !ok {
		return CategoryPage{}, fmt.Errorf("category %q: %w", q.CategorySlug, ErrNotFound)
	}

	subs, err := h.source.SubCategories(ctx, category.ID)
	if err != nil {
		return CategoryPage{}, fmt.Errorf("failed to list subcategories: %w", err)
	}
	products, err := h.source.Products(ctx)
	if err != nil {
		return CategoryPage{}, fmt.Errorf("failed to list products: %w", err)
	}

	return CategoryPage{
		Category:      category,
		SubCategories: subs,
		Products:      FilterByCategory(products, category, subs, q.Subcategory),
	}, nil
}
