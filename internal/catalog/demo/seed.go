package demo

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tair/storefront/internal/catalog/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type seedSubCategory struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type seedCategory struct {
	Name          string            `yaml:"name"`
	Slug          string            `yaml:"slug"`
	Description   string            `yaml:"description"`
	ImageURL      string            `yaml:"imageUrl"`
	SubCategories []seedSubCategory `yaml:"subcategories"`
}

type seedProduct struct {
	Name             string   `yaml:"name"`
	Slug             string   `yaml:"slug"`
	Description      string   `yaml:"description"`
	ShortDescription string   `yaml:"shortDescription"`
	Price            string   `yaml:"price"`
	OriginalPrice    string   `yaml:"originalPrice"`
	Category         string   `yaml:"category"`
	Subcategory      string   `yaml:"subcategory"`
	ImageURL         string   `yaml:"imageUrl"`
	InStock          *bool    `yaml:"inStock"`
	Featured         bool     `yaml:"featured"`
	Bestseller       bool     `yaml:"bestseller"`
	NewLaunch        bool     `yaml:"newLaunch"`
	Tags             []string `yaml:"tags"`
}

type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
	Products   []seedProduct  `yaml:"products"`
}

// loadSeed builds the demo catalog, assigning ids in file order.
func loadSeed(data []byte) (*Catalog, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	c := &Catalog{}
	categoryIDs := make(map[string]int64)
	subIDs := make(map[string]int64)

	for _, sc := range f.Categories {
		cat := domain.Category{
			ID:          int64(len(c.categories) + 1),
			Name:        sc.Name,
			Slug:        sc.Slug,
			Description: sc.Description,
		}
		if sc.ImageURL != "" {
			img := sc.ImageURL
			cat.ImageURL = &img
		}
		c.categories = append(c.categories, cat)
		categoryIDs[sc.Slug] = cat.ID

		for _, sub := range sc.SubCategories {
			s := domain.SubCategory{
				ID:         int64(len(c.subcategories) + 1),
				CategoryID: cat.ID,
				Name:       sub.Name,
				Slug:       sub.Slug,
			}
			c.subcategories = append(c.subcategories, s)
			subIDs[sc.Slug+"/"+sub.Slug] = s.ID
		}
	}

	for _, sp := range f.Products {
		categoryID, ok := categoryIDs[sp.Category]
		if !ok {
			return nil, fmt.Errorf("product %s: unknown category %q", sp.Slug, sp.Category)
		}
		p := domain.Product{
			ID:               int64(len(c.products) + 1),
			CategoryID:       categoryID,
			SubCategoryID:    subIDs[sp.Category+"/"+sp.Subcategory],
			Name:             sp.Name,
			Slug:             sp.Slug,
			Description:      sp.Description,
			ShortDescription: sp.ShortDescription,
			Price:            domain.ParsePrice(sp.Price),
			Category:         sp.Category,
			Subcategory:      sp.Subcategory,
			ImageURL:         sp.ImageURL,
			InStock:          sp.InStock == nil || *sp.InStock,
			Featured:         sp.Featured,
			Bestseller:       sp.Bestseller,
			NewLaunch:        sp.NewLaunch,
			Tags:             sp.Tags,
		}
		if sp.OriginalPrice != "" {
			op := domain.ParsePrice(sp.OriginalPrice)
			p.OriginalPrice = &op
		}
		c.products = append(c.products, p)
		c.categories[categoryID-1].ProductCount++
	}
	return c, nil
}
