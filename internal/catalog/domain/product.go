package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a catalog product as served by the storefront API. Stores keep
// it as a snapshot: fields the storefront does not interpret are preserved
// in Extra and written back unchanged.
type Product struct {
	ID               int64    `json:"id"`
	CategoryID       int64    `json:"categoryId,omitempty"`
	SubCategoryID    int64    `json:"subCategoryId,omitempty"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Price            Price    `json:"price"`
	OriginalPrice    *Price   `json:"originalPrice,omitempty"`
	Category         string   `json:"category,omitempty"`
	Subcategory      string   `json:"subcategory,omitempty"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	InStock          bool     `json:"inStock"`
	Featured         bool     `json:"featured,omitempty"`
	Bestseller       bool     `json:"bestseller,omitempty"`
	NewLaunch        bool     `json:"newLaunch,omitempty"`
	Tags             []string `json:"-"`

	Extra map[string]json.RawMessage `json:"-"`
}

var productFields = []string{
	"id", "categoryId", "subCategoryId", "name", "slug", "description",
	"shortDescription", "price", "originalPrice", "category", "subcategory",
	"imageUrl", "inStock", "featured", "bestseller", "newLaunch",
}

type productAlias Product

// UnmarshalJSON treats a missing inStock as in stock.
func (p *Product) UnmarshalJSON(b []byte) error {
	a := productAlias{InStock: true}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	for _, k := range productFields {
		delete(fields, k)
	}
	a.Extra = nil
	if len(fields) > 0 {
		a.Extra = fields
	}
	a.Tags = decodeTags(fields["tags"])

	*p = Product(a)
	return nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(productAlias(p))
	if err != nil || (len(p.Extra) == 0 && len(p.Tags) == 0) {
		return base, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := fields[k]; !known {
			fields[k] = v
		}
	}
	if _, ok := fields["tags"]; !ok && len(p.Tags) > 0 {
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return nil, err
		}
		fields["tags"] = tags
	}
	return json.Marshal(fields)
}

// Savings is originalPrice - price, never negative.
func (p Product) Savings() decimal.Decimal {
	if p.OriginalPrice == nil {
		return decimal.Zero
	}
	diff := p.OriginalPrice.Decimal().Sub(p.Price.Decimal())
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// decodeTags accepts either a tag list or the backend's comma-separated form.
func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		return SplitTags(csv)
	}
	return nil
}
