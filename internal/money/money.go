// Package money implements the fixed-point monetary type used across the ledger.
//
// An Amount counts minor units (cents), so sums and differences are exact and
// a balance of "zero" is literally zero. Decimal input is converted with
// half-away-from-zero rounding to two fraction digits.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits carried by an Amount.
const Scale = 2

// ErrInvalidAmount is returned when a string cannot be parsed as a decimal amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a signed monetary value expressed in minor units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Cents builds an Amount from a count of minor units.
func Cents(c int64) Amount {
	return Amount(c)
}

// FromDecimal rounds d to two fraction digits and converts it to minor units.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(Scale).Shift(Scale).IntPart())
}

// FromFloat converts a float to an Amount, rounding to two fraction digits.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Parse reads a decimal string such as "12.34" or "-5".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d), nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Sum adds the given amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Decimal returns the exact decimal representation of a.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// MinorUnits returns the raw number of cents.
func (a Amount) MinorUnits() int64 {
	return int64(a)
}

// Float64 returns a as a float for display purposes only.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

func (a Amount) IsZero() bool     { return a == 0 }
func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }

// Neg returns -a.
func (a Amount) Neg() Amount {
	return -a
}

// Abs returns the magnitude of a.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// DivRound divides a into n parts and rounds the quotient to the nearest cent.
func (a Amount) DivRound(n int) Amount {
	return FromDecimal(a.Decimal().Div(decimal.NewFromInt(int64(n))))
}

// Percent returns pct percent of a, rounded to the nearest cent.
func (a Amount) Percent(pct decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(pct).Div(decimal.NewFromInt(100)))
}

// String formats a with exactly two fraction digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalJSON encodes a as a JSON number with two fraction digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	*a = FromDecimal(d)
	return nil
}

// Value stores a as a NUMERIC literal.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan reads NUMERIC, integer, float or text columns.
func (a *Amount) Scan(value interface{}) error {
	if value == nil {
		*a = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("failed to scan amount: %w", err)
	}
	*a = FromDecimal(d)
	return nil
}
