package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a product amount that may arrive as a JSON number or as
// currency-formatted text such as "₹1,234.50". The original form is kept for
// round-tripping; arithmetic always uses the coerced numeric value.
type Price struct {
	value  decimal.Decimal
	text   string
	isText bool
}

// NewPrice creates a numeric price.
func NewPrice(v float64) Price {
	return Price{value: decimal.NewFromFloat(v)}
}

// ParsePrice keeps s verbatim and coerces it with Numeric.
func ParsePrice(s string) Price {
	return Price{value: Numeric(s), text: s, isText: true}
}

// Numeric drops every character that is not a digit or a decimal point and
// parses the longest leading number that remains. Anything unparseable is 0.
func Numeric(s string) decimal.Decimal {
	var intPart, fracPart strings.Builder
	seenPoint := false
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if seenPoint {
				fracPart.WriteRune(r)
			} else {
				intPart.WriteRune(r)
			}
		case r == '.':
			if seenPoint {
				break scan
			}
			seenPoint = true
		}
	}
	if intPart.Len() == 0 && fracPart.Len() == 0 {
		return decimal.Zero
	}
	lit := intPart.String()
	if lit == "" {
		lit = "0"
	}
	if fracPart.Len() > 0 {
		lit += "." + fracPart.String()
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Decimal returns the amount.
func (p Price) Decimal() decimal.Decimal {
	return p.value
}

// Float64 returns the amount as a float.
func (p Price) Float64() float64 {
	f, _ := p.value.Float64()
	return f
}

func (p Price) String() string {
	if p.isText {
		return p.text
	}
	return p.value.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.isText {
		return json.Marshal(p.text)
	}
	return []byte(p.value.String()), nil
}

// UnmarshalJSON accepts numbers and strings. Other JSON values coerce to 0
// rather than failing the enclosing document.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = Price{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = ParsePrice(s)
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			d = decimal.Zero
		}
		*p = Price{value: d}
	}
	return nil
}
