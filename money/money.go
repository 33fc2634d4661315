// Package money holds the fixed-point amount type used by the ledger.
//
// A Money value always carries exactly two fraction digits. Results are
// rounded half away from zero, so 0.005 becomes 0.01 and -0.005 becomes -0.01.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits kept by every Money value.
const Places = 2

var ErrNotANumber = errors.New("not a number")

type Money struct {
	d decimal.Decimal
}

var Zero = Money{}

// New rounds d to two places.
func New(d decimal.Decimal) Money {
	return Money{d: d.Round(Places)}
}

func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Places)}
}

// Parse reads a decimal string such as "12.5" or "-3.10".
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrNotANumber
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}

	return New(d), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

func (m Money) Abs() Money {
	return Money{d: m.d.Abs()}
}

// Mul multiplies by an arbitrary-precision factor and rounds the product.
func (m Money) Mul(factor decimal.Decimal) Money {
	return New(m.d.Mul(factor))
}

func (m Money) Sign() int {
	return m.d.Sign()
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

func (m Money) Decimal() decimal.Decimal {
	return m.d
}

func (m Money) Cents() int64 {
	return m.d.Shift(Places).IntPart()
}

func (m Money) String() string {
	return m.d.StringFixed(Places)
}

// Sum adds amounts without intermediate rounding.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scanning money: %w", err)
	}
	m.d = d.Round(Places)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
