// Package money provides a fixed-point currency amount measured in minor units.
//
// All ledger arithmetic happens on Amount (an int64 count of paise/cents).
// Decimal strings only appear at the edges: Parse on the way in, String on the
// way out.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places in one major unit.
const Scale = 2

// MaxAmount is the largest magnitude accepted from the outside: 10 trillion
// major units. Sums of many amounts stay well inside int64.
const MaxAmount Amount = 1_000_000_000_000_000

// ErrInvalidAmount is returned when a decimal string cannot be read as money.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a signed quantity of minor currency units.
type Amount int64

// Parse reads a decimal string such as "12.34" or "12,34" and rounds it half away
// from zero to two decimal places.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants in tests and defaults. It panics on bad input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts a major-unit decimal into minor units. Magnitudes above
// MaxAmount are rejected.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Round(Scale).Shift(Scale)
	if !minor.IsInteger() || minor.Abs().GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d.String())
	}
	return Amount(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount with exactly two decimals, e.g. "-1.50".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
