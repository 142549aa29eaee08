package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// Money is a fixed-point monetary amount in a single currency.
// All arithmetic rounds to 2 decimal places; amounts are never negative.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func New(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: amount.Round(2), currency: currency}, nil
}

func FromString(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return New(d, currency)
}

// FromCents converts an integer minor-unit amount (e.g. from the
// payment gateway) into a Money value.
func FromCents(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: decimal.New(cents, -2), currency: currency}, nil
}

func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Cents returns the amount in integer minor units for the gateway boundary.
func (m Money) Cents() int64 {
	return m.amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return Money{amount: m.amount.Add(o.amount).Round(2), currency: m.currency}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	result := m.amount.Sub(o.amount).Round(2)
	if result.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: result, currency: m.currency}, nil
}

// Mul multiplies by an arbitrary decimal factor, rounding to 2 places.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	result := m.amount.Mul(factor).Round(2)
	if result.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: result, currency: m.currency}, nil
}

// MulInt multiplies by a non-negative integer quantity.
func (m Money) MulInt(n int) (Money, error) {
	if n < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n))).Round(2), currency: m.currency}, nil
}

func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

// StringFixed returns just the numeric part with 2 decimal places,
// which is how amounts are persisted.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(2)
}
