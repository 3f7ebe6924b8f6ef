package currency

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// RatioGranularity is the number of decimal digits carried by a Ratio.
const RatioGranularity = 5

// RateDecimals is the number of decimal digits carried by a Rate.
const RateDecimals = 18

var (
	ratioScale = uint256.NewInt(100000)
	rateScale  = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(RateDecimals))

	errInvalidDecimal = errors.New("currency: invalid decimal")
)

// Ratio is a fixed-point percentage with RatioGranularity digits of scale:
// 100000 is 100%, 150000 is 150%.
type Ratio uint64

// RatioOne is 100%.
const RatioOne Ratio = 100000

// ParseRatio reads a decimal multiplier such as "1.5" (150%).
func ParseRatio(s string) (Ratio, error) {
	scaled, err := scaleDecimal(s, big.NewInt(int64(RatioOne)))
	if err != nil {
		return 0, err
	}
	if !scaled.IsUint64() {
		return 0, ErrOverflow
	}
	return Ratio(scaled.Uint64()), nil
}

func (r Ratio) IsZero() bool { return r == 0 }

func (r Ratio) String() string {
	whole := uint64(r) / uint64(RatioOne)
	frac := uint64(r) % uint64(RatioOne)
	return fmt.Sprintf("%d.%05d", whole, frac)
}

// MulRatio returns floor(a * r).
func (a Amount) MulRatio(r Ratio) (Amount, error) {
	return a.MulDiv(uint256.NewInt(uint64(r)), ratioScale)
}

// DivRatio returns floor(a / r).
func (a Amount) DivRatio(r Ratio) (Amount, error) {
	if r == 0 {
		return Amount{}, ErrDivisionByZero
	}
	return a.MulDiv(ratioScale, uint256.NewInt(uint64(r)))
}

// Rate is an exchange rate with RateDecimals digits of scale. The oracle
// quotes units of a currency per unit of the wrapped asset.
type Rate struct {
	value uint256.Int
}

// RateFromBig wraps a stored scaled integer.
func RateFromBig(v *big.Int) (Rate, error) {
	if v == nil || v.Sign() < 0 {
		return Rate{}, ErrUnderflow
	}
	converted, overflow := uint256.FromBig(v)
	if overflow {
		return Rate{}, ErrOverflow
	}
	return Rate{value: *converted}, nil
}

// ParseRate reads a decimal rate such as "0.02".
func ParseRate(s string) (Rate, error) {
	scaled, err := scaleDecimal(s, rateScale.ToBig())
	if err != nil {
		return Rate{}, err
	}
	return RateFromBig(scaled)
}

func (r Rate) IsZero() bool { return r.value.IsZero() }

func (r Rate) Big() *big.Int { return r.value.ToBig() }

func (r Rate) Uint256() *uint256.Int { return r.value.Clone() }

func (r Rate) Equal(o Rate) bool { return r.value.Eq(&o.value) }

func (r Rate) String() string {
	return new(big.Rat).SetFrac(r.value.ToBig(), rateScale.ToBig()).FloatString(RateDecimals)
}

// MulRate returns floor(a * r) labelled with currency to.
func (a Amount) MulRate(r Rate, to ID) (Amount, error) {
	out, err := a.MulDiv(&r.value, rateScale)
	if err != nil {
		return Amount{}, err
	}
	return out.WithCurrency(to), nil
}

// DivRate returns floor(a / r) labelled with currency to.
func (a Amount) DivRate(r Rate, to ID) (Amount, error) {
	if r.value.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	out, err := a.MulDiv(rateScale, &r.value)
	if err != nil {
		return Amount{}, err
	}
	return out.WithCurrency(to), nil
}

func scaleDecimal(s string, scale *big.Int) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errInvalidDecimal
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errInvalidDecimal, s)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", errInvalidDecimal, s)
	}
	rat.Mul(rat, new(big.Rat).SetInt(scale))
	return new(big.Int).Quo(rat.Num(), rat.Denom()), nil
}
