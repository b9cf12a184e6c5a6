package domain

import (
	"strings"

	cart "github.com/tair/storefront/internal/cart/domain"
)

// Order statuses written by checkout.
const (
	StatusPlaced = "placed"
)

// Order is an immutable record of a placed order. Ownership is by email,
// compared trimmed and case-insensitively.
type Order struct {
	ID        string      `json:"id"`
	CreatedAt string      `json:"createdAt"`
	Items     []cart.Item `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	Shipping  float64     `json:"shipping"`
	Total     float64     `json:"total"`
	UserEmail string      `json:"userEmail,omitempty"`
	Name      string      `json:"name,omitempty"`
	Status    string      `json:"status,omitempty"`
}

// NormalizeEmail is the comparison form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BelongsTo reports whether the order was placed by email.
func (o Order) BelongsTo(email string) bool {
	return NormalizeEmail(o.UserEmail) == NormalizeEmail(email)
}
