package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/catalog/query"
)

const testSeed = `
categories:
  - name: Skincare
    slug: skincare
    subcategories:
      - { name: Serums, slug: serums }
  - name: Makeup
    slug: makeup
products:
  - name: Vitamin C Serum
    slug: vitamin-c-serum
    price: "₹545"
    originalPrice: "699"
    category: skincare
    subcategory: serums
    featured: true
  - name: Matte Lipstick
    slug: matte-lipstick
    price: "399"
    category: makeup
    inStock: false
    newLaunch: true
`

func TestLoadSeed(t *testing.T) {
	c, err := loadSeed([]byte(testSeed))
	require.NoError(t, err)
	ctx := context.Background()

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, 1, categories[0].ProductCount)
	assert.Nil(t, categories[0].ImageURL)

	serum, err := c.Product(ctx, "vitamin-c-serum")
	require.NoError(t, err)
	assert.Equal(t, int64(1), serum.CategoryID)
	assert.Equal(t, int64(1), serum.SubCategoryID)
	assert.Equal(t, "₹545", serum.Price.String())
	assert.Equal(t, "154", serum.Savings().String())
	assert.True(t, serum.InStock)

	lipstick, err := c.Product(ctx, "matte-lipstick")
	require.NoError(t, err)
	assert.False(t, lipstick.InStock)
	assert.Zero(t, lipstick.SubCategoryID)

	_, err = c.Product(ctx, "nope")
	assert.ErrorIs(t, err, query.ErrNotFound)
	_, err = c.Category(ctx, "nope")
	assert.ErrorIs(t, err, query.ErrNotFound)
}

func TestLoadSeedRejectsUnknownCategory(t *testing.T) {
	_, err := loadSeed([]byte("products:\n  - { name: X, slug: x, category: ghost }\n"))
	assert.Error(t, err)
}

func TestCatalogListings(t *testing.T) {
	c, err := loadSeed([]byte(testSeed))
	require.NoError(t, err)
	ctx := context.Background()

	slugs := func(ps []domain.Product, err error) []string {
		require.NoError(t, err)
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Slug)
		}
		return out
	}

	assert.Equal(t, []string{"vitamin-c-serum"}, slugs(c.Featured(ctx)))
	assert.Equal(t, []string{"matte-lipstick"}, slugs(c.NewLaunches(ctx)))
	assert.Equal(t, []string{}, slugs(c.Bestsellers(ctx)))
	assert.Equal(t, []string{"matte-lipstick"}, slugs(c.ByCategory(ctx, "makeup")))

	subs, err := c.SubCategories(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, subs)
	subs, err = c.SubCategories(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	res, err := c.Search(ctx, "serum")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalResults)
}

func TestCategoriesAreCopies(t *testing.T) {
	c, err := loadSeed([]byte(testSeed))
	require.NoError(t, err)
	ctx := context.Background()

	categories, _ := c.Categories(ctx)
	categories[0].Name = "changed"

	again, _ := c.Categories(ctx)
	assert.Equal(t, "Skincare", again[0].Name)
}

func TestEmbeddedSeedLoads(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	products, err := c.Products(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)

	page, err := query.NewCategoryProductsHandler(c).Handle(context.Background(), query.CategoryProductsQuery{
		CategorySlug: "skincare",
		Subcategory:  "serums",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, page.Products)
	for _, p := range page.Products {
		assert.Equal(t, "serums", p.Subcategory)
	}
}
