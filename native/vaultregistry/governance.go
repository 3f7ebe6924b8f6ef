package vaultregistry

import (
	"fmt"
	"strconv"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/types"
)

func (e *Engine) updatePairParams(name string, pair types.CurrencyPair, value string, fn func(*PairParams) error) error {
	return e.atomic("set_"+name, func() error {
		params, err := e.params.Pair(pair)
		if err != nil {
			return err
		}
		if err := fn(&params); err != nil {
			return err
		}
		if err := e.params.SetPair(pair, params); err != nil {
			return err
		}
		e.emit(events.ParamUpdated{Name: name, Pair: pair, Value: value})
		e.logger.Info("vault registry parameter updated", "param", name, "pair", pair.String(), "value", value)
		return nil
	})
}

func (e *Engine) updateGlobalParams(name, value string, fn func(*GlobalParams)) error {
	return e.atomic("set_"+name, func() error {
		params, err := e.params.Global()
		if err != nil {
			return err
		}
		fn(&params)
		if err := e.params.SetGlobal(params); err != nil {
			return err
		}
		e.emit(events.ParamUpdated{Name: name, Value: value})
		e.logger.Info("vault registry parameter updated", "param", name, "value", value)
		return nil
	})
}

func checkCollateralCurrency(pair types.CurrencyPair, amount currency.Amount) error {
	if amount.Currency() != pair.Collateral {
		return fmt.Errorf("%w: %s for pair %s", ErrWrongCurrency, amount.Currency(), pair)
	}
	return nil
}

func (e *Engine) SetMinimumCollateral(pair types.CurrencyPair, amount currency.Amount) error {
	return e.updatePairParams("minimum_collateral", pair, amount.Value(), func(p *PairParams) error {
		if err := checkCollateralCurrency(pair, amount); err != nil {
			return err
		}
		p.MinimumCollateral = amount
		return nil
	})
}

// SetSystemCollateralCeiling caps the collateral all user vaults of a pair may
// lock. Zero removes the cap.
func (e *Engine) SetSystemCollateralCeiling(pair types.CurrencyPair, amount currency.Amount) error {
	return e.updatePairParams("system_collateral_ceiling", pair, amount.Value(), func(p *PairParams) error {
		if err := checkCollateralCurrency(pair, amount); err != nil {
			return err
		}
		p.SystemCollateralCeiling = amount
		return nil
	})
}

func (e *Engine) SetSecureCollateralThreshold(pair types.CurrencyPair, threshold currency.Ratio) error {
	return e.updatePairParams("secure_threshold", pair, threshold.String(), func(p *PairParams) error {
		p.SecureThreshold = threshold
		return nil
	})
}

func (e *Engine) SetAuctionCollateralThreshold(pair types.CurrencyPair, threshold currency.Ratio) error {
	return e.updatePairParams("auction_threshold", pair, threshold.String(), func(p *PairParams) error {
		p.AuctionThreshold = threshold
		return nil
	})
}

func (e *Engine) SetPremiumRedeemThreshold(pair types.CurrencyPair, threshold currency.Ratio) error {
	return e.updatePairParams("premium_redeem_threshold", pair, threshold.String(), func(p *PairParams) error {
		p.PremiumRedeemThreshold = threshold
		return nil
	})
}

func (e *Engine) SetLiquidationCollateralThreshold(pair types.CurrencyPair, threshold currency.Ratio) error {
	return e.updatePairParams("liquidation_threshold", pair, threshold.String(), func(p *PairParams) error {
		p.LiquidationThreshold = threshold
		return nil
	})
}

// SetPairParams replaces every parameter of a pair at once.
func (e *Engine) SetPairParams(pair types.CurrencyPair, params PairParams) error {
	return e.updatePairParams("pair_params", pair, pair.String(), func(p *PairParams) error {
		*p = params
		return nil
	})
}

func (e *Engine) SetPunishmentFee(fee currency.Ratio) error {
	return e.updateGlobalParams("punishment_fee", fee.String(), func(p *GlobalParams) {
		p.PunishmentFee = fee
	})
}

// SetPunishmentDelay sets the ban length in blocks.
func (e *Engine) SetPunishmentDelay(blocks uint64) error {
	return e.updateGlobalParams("punishment_delay", strconv.FormatUint(blocks, 10), func(p *GlobalParams) {
		p.PunishmentDelay = blocks
	})
}

func (e *Engine) SetRedeemPremiumFee(fee currency.Ratio) error {
	return e.updateGlobalParams("redeem_premium_fee", fee.String(), func(p *GlobalParams) {
		p.RedeemPremiumFee = fee
	})
}
