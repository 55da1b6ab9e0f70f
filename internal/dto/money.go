package dto

import (
	"github.com/shopspring/decimal"
)

// Money is a currency amount. It encodes as a bare JSON number with two
// decimal places, so 437.5 travels as 437.50.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and quoted strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}
