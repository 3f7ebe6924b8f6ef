package oracle

import (
	"errors"
	"fmt"
	"math/big"

	"vaultchain/core/currency"
)

var (
	ErrMissingRate = errors.New("oracle: exchange rate not found")
	ErrInvalidRate = errors.New("oracle: rate must be positive")
	ErrNilState    = errors.New("oracle: state not configured")
)

type oracleState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

type rateRecord struct {
	Rate      *big.Int
	UpdatedAt uint64
}

// Quote is a stored exchange rate together with the height it was set at.
type Quote struct {
	Currency  currency.ID
	Rate      currency.Rate
	UpdatedAt uint64
}

// Feed stores one exchange rate per currency, quoted in units of that
// currency per unit of the reference asset. Conversions between two
// currencies go through the reference asset in a single rounding step.
type Feed struct {
	state  oracleState
	height func() uint64
}

func NewFeed(state oracleState) *Feed {
	return &Feed{state: state}
}

// SetHeightFunc configures the block height source used to stamp updates.
func (f *Feed) SetHeightFunc(fn func() uint64) {
	if f == nil {
		return
	}
	f.height = fn
}

func rateKey(id currency.ID) []byte {
	return []byte("oracle/rate/" + string(id.Normalize()))
}

// SetRate records rate for id.
func (f *Feed) SetRate(id currency.ID, rate currency.Rate) error {
	if f == nil || f.state == nil {
		return ErrNilState
	}
	if rate.IsZero() {
		return ErrInvalidRate
	}
	var at uint64
	if f.height != nil {
		at = f.height()
	}
	return f.state.KVPut(rateKey(id), rateRecord{Rate: rate.Big(), UpdatedAt: at})
}

// SetDecimal parses rate as a decimal string such as "0.02" and stores it.
func (f *Feed) SetDecimal(id currency.ID, rate string) error {
	parsed, err := currency.ParseRate(rate)
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	return f.SetRate(id, parsed)
}

// Quote returns the stored rate for id.
func (f *Feed) Quote(id currency.ID) (Quote, error) {
	if f == nil || f.state == nil {
		return Quote{}, ErrNilState
	}
	var rec rateRecord
	ok, err := f.state.KVGet(rateKey(id), &rec)
	if err != nil {
		return Quote{}, err
	}
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrMissingRate, id)
	}
	rate, err := currency.RateFromBig(rec.Rate)
	if err != nil {
		return Quote{}, err
	}
	if rate.IsZero() {
		return Quote{}, fmt.Errorf("%w: %s", ErrMissingRate, id)
	}
	return Quote{Currency: id, Rate: rate, UpdatedAt: rec.UpdatedAt}, nil
}

func (f *Feed) Rate(id currency.ID) (currency.Rate, error) {
	q, err := f.Quote(id)
	if err != nil {
		return currency.Rate{}, err
	}
	return q.Rate, nil
}

// Convert returns floor(amount * rate(to) / rate(from)).
func (f *Feed) Convert(amount currency.Amount, to currency.ID) (currency.Amount, error) {
	if amount.Currency() == to {
		return amount, nil
	}
	fromRate, err := f.Rate(amount.Currency())
	if err != nil {
		return currency.Amount{}, err
	}
	toRate, err := f.Rate(to)
	if err != nil {
		return currency.Amount{}, err
	}
	converted, err := amount.MulDiv(toRate.Uint256(), fromRate.Uint256())
	if err != nil {
		return currency.Amount{}, err
	}
	return converted.WithCurrency(to), nil
}
