package money

import (
	"errors"
	"math"
	"math/bits"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrAmountOverflow   = errors.New("money: amount out of range")
)

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
	hundred   = decimal.NewFromInt(100)
)

// Money keeps amounts in integer minor units of the currency to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns an empty amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.Amount + other.Amount
	if (other.Amount > 0 && sum < m.Amount) || (other.Amount < 0 && sum > m.Amount) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.Amount == math.MinInt64 {
		return Money{}, ErrAmountOverflow
	}
	return m.Add(other.Neg())
}

// Neg returns the negated amount preserving currency.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Multiply multiplies a non-negative amount by a non-negative count.
func (m Money) Multiply(times int64) (Money, error) {
	if m.Amount < 0 || times < 0 {
		return Money{}, ErrAmountOverflow
	}
	hi, lo := bits.Mul64(uint64(m.Amount), uint64(times))
	if hi != 0 || lo > math.MaxInt64 {
		return Money{}, ErrAmountOverflow
	}
	return Money{Amount: int64(lo), Currency: m.Currency}, nil
}

// MulDecimal multiplies the amount by a decimal factor and rounds half up
// to the currency sub-unit. Results outside the int64 range fail with
// ErrAmountOverflow.
func (m Money) MulDecimal(factor decimal.Decimal) (Money, error) {
	amount := decimal.NewFromInt(m.Amount).Mul(factor).Round(0)
	if amount.GreaterThan(maxAmount) || amount.LessThan(minAmount) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Amount: amount.IntPart(), Currency: m.Currency}, nil
}

// Percent returns percent% of the amount, rounded half up to the sub-unit.
// percent is clamped to [0, 100], so the result never exceeds the amount.
func (m Money) Percent(percent decimal.Decimal) Money {
	switch {
	case percent.IsNegative():
		percent = decimal.Zero
	case percent.GreaterThan(hundred):
		percent = hundred
	}
	out, _ := m.MulDecimal(percent.Div(hundred))
	return out
}

// Min returns the smaller of two amounts of the same currency.
func (m Money) Min(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.Amount < m.Amount {
		return other, nil
	}
	return m, nil
}

// ClampZero replaces a negative amount with zero.
func (m Money) ClampZero() Money {
	if m.Amount < 0 {
		return Money{Amount: 0, Currency: m.Currency}
	}
	return m
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
