package currency

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow         = errors.New("currency: arithmetic overflow")
	ErrUnderflow        = errors.New("currency: arithmetic underflow")
	ErrDivisionByZero   = errors.New("currency: division by zero")
	ErrCurrencyMismatch = errors.New("currency: currency mismatch")
)

// ID names a currency, e.g. "DOT" or "KBTC".
type ID string

// Normalize upper-cases and trims the identifier.
func (id ID) Normalize() ID {
	return ID(strings.ToUpper(strings.TrimSpace(string(id))))
}

func (id ID) Valid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// Amount is a non-negative quantity of a single currency. All arithmetic is
// checked and never wraps.
type Amount struct {
	value    uint256.Int
	currency ID
}

// New returns an amount of v units of c.
func New(v uint64, c ID) Amount {
	var a Amount
	a.value.SetUint64(v)
	a.currency = c
	return a
}

// Zero returns the zero amount of c.
func Zero(c ID) Amount {
	return Amount{currency: c}
}

// FromBig converts a stored big integer. Nil is treated as zero.
func FromBig(v *big.Int, c ID) (Amount, error) {
	if v == nil {
		return Zero(c), nil
	}
	if v.Sign() < 0 {
		return Amount{}, ErrUnderflow
	}
	converted, overflow := uint256.FromBig(v)
	if overflow {
		return Amount{}, ErrOverflow
	}
	return Amount{value: *converted, currency: c}, nil
}

// FromUint256 wraps an existing 256-bit value.
func FromUint256(v *uint256.Int, c ID) Amount {
	a := Amount{currency: c}
	if v != nil {
		a.value.Set(v)
	}
	return a
}

// Parse reads a base-10 integer amount.
func Parse(s string, c ID) (Amount, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("currency: parse %q: %w", s, err)
	}
	return Amount{value: *v, currency: c}, nil
}

func (a Amount) Currency() ID { return a.currency }

func (a Amount) IsZero() bool { return a.value.IsZero() }

// Big returns a freshly allocated big integer for persistence.
func (a Amount) Big() *big.Int { return a.value.ToBig() }

func (a Amount) Uint256() *uint256.Int { return a.value.Clone() }

func (a Amount) String() string {
	return a.value.Dec() + " " + string(a.currency)
}

// Value returns the decimal representation without the currency.
func (a Amount) Value() string { return a.value.Dec() }

// Cmp compares the raw values. Callers compare amounts of one currency.
func (a Amount) Cmp(b Amount) int { return a.value.Cmp(&b.value) }

func (a Amount) Lt(b Amount) bool { return a.Cmp(b) < 0 }
func (a Amount) Le(b Amount) bool { return a.Cmp(b) <= 0 }
func (a Amount) Gt(b Amount) bool { return a.Cmp(b) > 0 }
func (a Amount) Ge(b Amount) bool { return a.Cmp(b) >= 0 }

func (a Amount) sameCurrency(b Amount) error {
	if a.currency != b.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, a.currency, b.currency)
	}
	return nil
}

func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameCurrency(b); err != nil {
		return Amount{}, err
	}
	out := Amount{currency: a.currency}
	if _, overflow := out.value.AddOverflow(&a.value, &b.value); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameCurrency(b); err != nil {
		return Amount{}, err
	}
	out := Amount{currency: a.currency}
	if _, underflow := out.value.SubOverflow(&a.value, &b.value); underflow {
		return Amount{}, ErrUnderflow
	}
	return out, nil
}

// SaturatingSub returns a-b, or zero when b exceeds a.
func (a Amount) SaturatingSub(b Amount) Amount {
	if a.value.Cmp(&b.value) <= 0 {
		return Zero(a.currency)
	}
	out := Amount{currency: a.currency}
	out.value.Sub(&a.value, &b.value)
	return out
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if b.Lt(a) {
		return b
	}
	return a
}

// MulDiv returns floor(a * num / den) in the currency of a.
func (a Amount) MulDiv(num, den *uint256.Int) (Amount, error) {
	if den == nil || den.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	out := Amount{currency: a.currency}
	if _, overflow := out.value.MulDivOverflow(&a.value, num, den); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

// MulDivAmounts returns floor(a * num / den) where num and den are amounts of
// another currency.
func (a Amount) MulDivAmounts(num, den Amount) (Amount, error) {
	if err := num.sameCurrency(den); err != nil {
		return Amount{}, err
	}
	return a.MulDiv(&num.value, &den.value)
}

// WithCurrency relabels the raw value. Only conversions should use it.
func (a Amount) WithCurrency(c ID) Amount {
	a.currency = c
	return a
}
