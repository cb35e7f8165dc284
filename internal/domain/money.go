package domain

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Cents is an amount of BRL in centavos.
type Cents int64

func (c Cents) Decimal() decimal.Decimal { return decimal.New(int64(c), -2) }

func (c Cents) String() string { return c.Decimal().StringFixed(2) }

func (c Cents) Value() (driver.Value, error) { return int64(c), nil }

// MarshalJSON renders the amount as a JSON number with exactly two decimals.
func (c Cents) MarshalJSON() ([]byte, error) { return []byte(c.String()), nil }

func (c *Cents) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: amount: %v", ErrValidation, err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// FromDecimal converts a non-negative amount with at most two decimal digits.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: amount %s is negative", ErrValidation, d)
	}
	if !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("%w: amount %s has more than two decimal digits", ErrValidation, d)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() || shifted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: amount %s out of range", ErrValidation, d)
	}
	return Cents(shifted.IntPart()), nil
}

// FromFloat rejects NaN and infinities before converting.
func FromFloat(f float64) (Cents, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: amount is not finite", ErrValidation)
	}
	return FromDecimal(decimal.NewFromFloat(f))
}

func ParseCents(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrValidation, s, err)
	}
	return FromDecimal(d)
}

func MinCents(vals ...Cents) Cents {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
