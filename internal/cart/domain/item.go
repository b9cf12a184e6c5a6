package domain

import (
	"github.com/shopspring/decimal"

	catalog "github.com/tair/storefront/internal/catalog/domain"
)

// Item is one cart line: a product snapshot, its quantity and the chosen
// variant. An empty variant means "no variant", not "any variant".
type Item struct {
	Product         catalog.Product `json:"product"`
	Quantity        int             `json:"quantity"`
	SelectedVariant string          `json:"selectedVariant,omitempty"`
}

// Key identifies a cart line.
type Key struct {
	ProductID int64
	Variant   string
}

// KeyOf builds the line identity for a product and variant.
func KeyOf(productID int64, variant string) Key {
	return Key{ProductID: productID, Variant: variant}
}

// Key returns the line identity.
func (i Item) Key() Key {
	return KeyOf(i.Product.ID, i.SelectedVariant)
}

// LineTotal is the coerced unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price.Decimal().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Count sums the quantities of items.
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums the line totals of items.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
