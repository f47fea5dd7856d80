package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every monetary amount
// carries. Amounts supplied with more precision are rounded half-up
// before any comparison or arithmetic.
const MoneyScale = 2

// Money is a fixed-point decimal amount with an attached ISO 4217
// currency code. Arithmetic is exact and only defined between values
// of the same currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney builds a Money value, normalizing the amount to two decimal
// places (round half-up) and the currency to its uppercase canonical form.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}

	return Money{
		Amount:   amount.Round(MoneyScale),
		Currency: cur,
	}, nil
}

// Zero returns the zero amount in the given (already canonical) currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero.Round(MoneyScale), Currency: currency}
}

// SameCurrency reports whether both values carry the same currency code.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Cmp compares the numeric amounts: -1 if m < other, 0 if equal, 1 if
// m > other. Currencies must match.
func (m Money) Cmp(other Money) (int, error) {
	if !m.SameCurrency(other) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return m.Amount.Cmp(other.Amount), nil
}

// Equals reports numeric equality of two same-currency amounts.
// Different currencies are never equal.
func (m Money) Equals(other Money) bool {
	return m.SameCurrency(other) && m.Amount.Cmp(other.Amount) == 0
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// String renders the value as "123.45 SEK".
func (m Money) String() string {
	return m.Amount.StringFixed(MoneyScale) + " " + m.Currency
}
