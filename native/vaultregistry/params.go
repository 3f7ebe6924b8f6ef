package vaultregistry

import (
	"fmt"
	"math/big"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// PairParams holds the governance parameters of one currency pair. A zero
// threshold means "not set"; a zero ceiling means unlimited.
type PairParams struct {
	MinimumCollateral       currency.Amount
	SystemCollateralCeiling currency.Amount
	SecureThreshold         currency.Ratio
	AuctionThreshold        currency.Ratio
	PremiumRedeemThreshold  currency.Ratio
	LiquidationThreshold    currency.Ratio
}

func defaultPairParams(pair types.CurrencyPair) PairParams {
	return PairParams{
		MinimumCollateral:       currency.Zero(pair.Collateral),
		SystemCollateralCeiling: currency.Zero(pair.Collateral),
	}
}

// Validate enforces liquidation < premium redeem < secure, with the auction
// threshold strictly between liquidation and secure. Unset thresholds are
// skipped so parameters can be configured one at a time.
func (p PairParams) Validate() error {
	for _, r := range []currency.Ratio{p.SecureThreshold, p.AuctionThreshold, p.PremiumRedeemThreshold, p.LiquidationThreshold} {
		if r != 0 && r <= currency.RatioOne {
			return fmt.Errorf("%w: threshold %s must exceed 1.0", ErrInvalidThresholdOrder, r)
		}
	}
	less := func(lo, hi currency.Ratio) bool {
		return lo == 0 || hi == 0 || lo < hi
	}
	ok := less(p.LiquidationThreshold, p.PremiumRedeemThreshold) &&
		less(p.PremiumRedeemThreshold, p.SecureThreshold) &&
		less(p.LiquidationThreshold, p.SecureThreshold) &&
		less(p.LiquidationThreshold, p.AuctionThreshold) &&
		less(p.AuctionThreshold, p.SecureThreshold)
	if !ok {
		return fmt.Errorf("%w: liquidation=%s premium=%s auction=%s secure=%s", ErrInvalidThresholdOrder,
			p.LiquidationThreshold, p.PremiumRedeemThreshold, p.AuctionThreshold, p.SecureThreshold)
	}
	return nil
}

// GlobalParams are shared by every currency pair. PunishmentFee and
// RedeemPremiumFee are read by the issue and redeem flows.
type GlobalParams struct {
	PunishmentFee    currency.Ratio
	PunishmentDelay  uint64
	RedeemPremiumFee currency.Ratio
}

type pairParamsRecord struct {
	MinimumCollateral       *big.Int
	SystemCollateralCeiling *big.Int
	SecureThreshold         uint64
	AuctionThreshold        uint64
	PremiumRedeemThreshold  uint64
	LiquidationThreshold    uint64
}

type globalParamsRecord struct {
	PunishmentFee    uint64
	PunishmentDelay  uint64
	RedeemPremiumFee uint64
}

// ParamStore persists registry parameters in state.
type ParamStore struct {
	state engineState
}

func (s *ParamStore) Pair(pair types.CurrencyPair) (PairParams, error) {
	if s == nil || s.state == nil {
		return PairParams{}, errNilState
	}
	var rec pairParamsRecord
	ok, err := s.state.KVGet(pairParamsKey(pair), &rec)
	if err != nil {
		return PairParams{}, err
	}
	if !ok {
		return defaultPairParams(pair), nil
	}
	out := PairParams{
		SecureThreshold:        currency.Ratio(rec.SecureThreshold),
		AuctionThreshold:       currency.Ratio(rec.AuctionThreshold),
		PremiumRedeemThreshold: currency.Ratio(rec.PremiumRedeemThreshold),
		LiquidationThreshold:   currency.Ratio(rec.LiquidationThreshold),
	}
	if out.MinimumCollateral, err = currency.FromBig(rec.MinimumCollateral, pair.Collateral); err != nil {
		return PairParams{}, err
	}
	if out.SystemCollateralCeiling, err = currency.FromBig(rec.SystemCollateralCeiling, pair.Collateral); err != nil {
		return PairParams{}, err
	}
	return out, nil
}

// SetPair validates and stores params for pair.
func (s *ParamStore) SetPair(pair types.CurrencyPair, params PairParams) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPair, err)
	}
	if params.MinimumCollateral.Currency() != pair.Collateral || params.SystemCollateralCeiling.Currency() != pair.Collateral {
		return fmt.Errorf("%w: pair %s expects %s", ErrWrongCurrency, pair, pair.Collateral)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return s.state.KVPut(pairParamsKey(pair), &pairParamsRecord{
		MinimumCollateral:       params.MinimumCollateral.Big(),
		SystemCollateralCeiling: params.SystemCollateralCeiling.Big(),
		SecureThreshold:         uint64(params.SecureThreshold),
		AuctionThreshold:        uint64(params.AuctionThreshold),
		PremiumRedeemThreshold:  uint64(params.PremiumRedeemThreshold),
		LiquidationThreshold:    uint64(params.LiquidationThreshold),
	})
}

func (s *ParamStore) Global() (GlobalParams, error) {
	if s == nil || s.state == nil {
		return GlobalParams{}, errNilState
	}
	var rec globalParamsRecord
	if _, err := s.state.KVGet(globalParamsKey, &rec); err != nil {
		return GlobalParams{}, err
	}
	return GlobalParams{
		PunishmentFee:    currency.Ratio(rec.PunishmentFee),
		PunishmentDelay:  rec.PunishmentDelay,
		RedeemPremiumFee: currency.Ratio(rec.RedeemPremiumFee),
	}, nil
}

func (s *ParamStore) SetGlobal(params GlobalParams) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	return s.state.KVPut(globalParamsKey, &globalParamsRecord{
		PunishmentFee:    uint64(params.PunishmentFee),
		PunishmentDelay:  params.PunishmentDelay,
		RedeemPremiumFee: uint64(params.RedeemPremiumFee),
	})
}

// requireThresholds returns the pair params, failing when the thresholds a
// vault needs have not been configured.
func (s *ParamStore) requireThresholds(pair types.CurrencyPair) (PairParams, error) {
	params, err := s.Pair(pair)
	if err != nil {
		return PairParams{}, err
	}
	if params.SecureThreshold == 0 || params.LiquidationThreshold == 0 {
		return PairParams{}, fmt.Errorf("%w: %s", ErrThresholdNotSet, pair)
	}
	return params, nil
}
