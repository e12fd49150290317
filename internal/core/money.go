// Package core holds the domain model shared by storage, services and the
// HTTP layer: monetary amounts, tags, transactions, budgets and messages.
//
// Amounts are kept as arbitrary-precision decimals end to end. They are
// parsed from strings, summed as decimals and only converted to float64 at
// the final display step, so cent-level drift cannot accumulate.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal monetary amount without an attached currency. The
// currency lives on the owning record (transaction or budget); arithmetic
// across currencies is a caller error this type does not try to detect.
type Money struct {
	Amount decimal.Decimal
}

// ParseMoney parses a decimal string into Money. Both dot and comma decimal
// separators are accepted. Negative amounts are rejected: signs live on the
// transaction type, not on the amount.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: d}, nil
}

// MustMoney is ParseMoney for literals in tests and fixtures; it panics on
// malformed input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: bad money literal " + s)
	}
	return m
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{Amount: decimal.Zero}
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount.Sub(other.Amount)}
}

// Cmp returns -1, 0 or 1 comparing m against other on the true decimal
// value, never on string order.
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// String renders the canonical decimal form, e.g. "12.5" or "100".
func (m Money) String() string {
	return m.Amount.String()
}

// Float64 is for display rounding only, never for accumulation.
func (m Money) Float64() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) Validate() error {
	if m.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
