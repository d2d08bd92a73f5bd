package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the smallest representable fraction: two decimal
// places, i.e. cents.
const minorUnitExponent = -2

// Money is a fixed-precision monetary amount. The zero value is 0.00.
// All arithmetic happens on decimal integers, never on binary floats.
type Money struct {
	d decimal.Decimal
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{d: decimal.Zero}
}

// ParseMoney parses a decimal string like "10.00" into Money.
// It rejects non-numeric input and amounts with sub-cent precision.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	if d.Exponent() < minorUnitExponent {
		return Money{}, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}

	return Money{d: d}, nil
}

// ParsePositiveMoney parses a decimal string and requires it to be
// strictly greater than zero.
func ParsePositiveMoney(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}

	if !m.IsPositive() {
		return Money{}, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	return m, nil
}

// MoneyFromCents builds a Money from an integer number of minor units.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, minorUnitExponent)}
}

// MoneyFromDecimal wraps a stored decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.d.LessThan(other.d)
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Decimal exposes the underlying decimal for storage adapters.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// MarshalJSON renders the amount as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both `"10.00"` and `10.00`.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}

	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}
