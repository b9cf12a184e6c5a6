// Package query holds the read-side catalog rules shared by the client
// pages and the demo backend.
package query

import (
	"strings"

	"github.com/tair/storefront/internal/catalog/domain"
)

// AllSubcategories selects every product of a category.
const AllSubcategories = "all"

// FindCategory returns the category with slug, if any.
func FindCategory(categories []domain.Category, slug string) (domain.Category, bool) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return domain.Category{}, false
}

// FilterByCategory keeps the products of category, narrowed by the selected
// subcategory slug. A product belongs to the category by id or by its
// category slug text. The subcategory is matched by resolved id when the
// slug names a known subcategory, otherwise by the product's subcategory
// text.
func FilterByCategory(products []domain.Product, category domain.Category, subcategories []domain.SubCategory, selected string) []domain.Product {
	if category.ID == 0 {
		return []domain.Product{}
	}
	if selected == "" {
		selected = AllSubcategories
	}

	var subID int64
	if selected != AllSubcategories {
		for _, sc := range subcategories {
			if sc.Slug == selected {
				subID = sc.ID
				break
			}
		}
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.CategoryID != category.ID && p.Category != category.Slug {
			continue
		}
		switch {
		case selected == AllSubcategories:
		case subID != 0:
			if p.SubCategoryID != subID {
				continue
			}
		default:
			if p.Subcategory != selected {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Search matches the trimmed, lower-cased query as a substring of product
// name, description and short description, and of category names. A blank
// query matches nothing.
func Search(products []domain.Product, categories []domain.Category, q string) domain.SearchResults {
	res := domain.SearchResults{
		Products:   []domain.Product{},
		Categories: []domain.Category{},
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return res
	}

	for _, p := range products {
		if contains(p.Name, q) || contains(p.Description, q) || contains(p.ShortDescription, q) {
			res.Products = append(res.Products, p)
		}
	}
	for _, c := range categories {
		if contains(c.Name, q) {
			res.Categories = append(res.Categories, c)
		}
	}
	res.TotalResults = len(res.Products) + len(res.Categories)
	return res
}

func contains(field, q string) bool {
	return strings.Contains(strings.ToLower(field), q)
}
