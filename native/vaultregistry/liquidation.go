package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/types"
)

// LiquidateVault takes over an undercollateralized vault and returns the
// collateral moved to the liquidation vault. It does not check the vault's
// ratio; see ReportUndercollateralizedVault.
func (e *Engine) LiquidateVault(id types.VaultID) (currency.Amount, error) {
	var moved currency.Amount
	err := e.atomic("liquidate_vault", func() error {
		var err error
		moved, err = e.liquidateVault(id)
		return err
	})
	return moved, err
}

// ReportUndercollateralizedVault liquidates id only when it is below the
// liquidation threshold.
func (e *Engine) ReportUndercollateralizedVault(id types.VaultID) (currency.Amount, error) {
	var moved currency.Amount
	err := e.guarded("report_undercollateralized_vault", func() error {
		below, err := e.isVaultBelowLiquidationThreshold(id)
		if err != nil {
			return err
		}
		if !below {
			return fmt.Errorf("%w: %s", ErrVaultNotBelowLiquidation, id)
		}
		moved, err = e.liquidateVault(id)
		return err
	})
	return moved, err
}

func (e *Engine) liquidateVault(id types.VaultID) (currency.Amount, error) {
	v, err := e.richVault(id)
	if err != nil {
		return currency.Amount{}, err
	}
	if err := v.ensureActive(); err != nil {
		return currency.Amount{}, err
	}
	params, err := e.params.requireThresholds(v.pair())
	if err != nil {
		return currency.Amount{}, err
	}
	liquidated, err := v.usedCollateral(params.LiquidationThreshold)
	if err != nil {
		return currency.Amount{}, err
	}

	if v, err = e.richVault(id); err != nil {
		return currency.Amount{}, err
	}
	backed, err := v.backedTokens()
	if err != nil {
		return currency.Amount{}, err
	}
	forToBeRedeemed, err := splitForToBeRedeemed(liquidated, v.data.ToBeRedeemedTokens, backed)
	if err != nil {
		return currency.Amount{}, err
	}
	forLiquidationVault, err := liquidated.Sub(forToBeRedeemed)
	if err != nil {
		return currency.Amount{}, err
	}

	segregated, err := v.slashForToBeRedeemed(forToBeRedeemed)
	if err != nil {
		return currency.Amount{}, err
	}
	if err := v.slashToLiquidationVault(forLiquidationVault); err != nil {
		return currency.Amount{}, err
	}

	// transferFunds may have rewritten the record.
	if v, err = e.richVault(id); err != nil {
		return currency.Amount{}, err
	}
	issued := v.data.IssuedTokens
	toBeIssued := v.data.ToBeIssuedTokens
	toBeRedeemed := v.data.ToBeRedeemedTokens
	if err := e.updateSystemVault(v.pair(), func(s *SystemVault) error {
		return s.absorb(issued, toBeIssued, toBeRedeemed)
	}); err != nil {
		return currency.Amount{}, err
	}
	if err := e.pool.SetStake(id, currency.Zero(id.CollateralCurrency())); err != nil {
		return currency.Amount{}, err
	}
	v.data.IssuedTokens = currency.Zero(id.WrappedCurrency())
	v.data.ToBeIssuedTokens = currency.Zero(id.WrappedCurrency())
	v.data.Status = StatusLiquidated
	if err := v.save(); err != nil {
		return currency.Amount{}, err
	}

	e.emit(events.VaultLiquidated{
		Vault:                id,
		IssuedTokens:         issued,
		ToBeIssuedTokens:     toBeIssued,
		ToBeRedeemedTokens:   toBeRedeemed,
		Collateral:           liquidated,
		LiquidatedCollateral: segregated,
		ToLiquidationVault:   forLiquidationVault,
	})
	e.metrics.ObserveLiquidation(id.Currencies.String(), forLiquidationVault.Big())
	if sys, err := e.loadSystemVault(id.Currencies); err == nil {
		e.metrics.SetSystemVaultIssued(id.Currencies.String(), sys.IssuedTokens.Big())
	}
	e.logger.Info("vault liquidated",
		"vault", id.String(),
		"issued", issued.Value(),
		"toBeRedeemed", toBeRedeemed.Value(),
		"liquidatedCollateral", segregated.Value(),
		"toLiquidationVault", forLiquidationVault.Value())
	return forLiquidationVault, nil
}

// splitForToBeRedeemed returns the share of the liquidated collateral kept
// aside for redeems already in flight, liquidated * toBeRedeemed / backed.
// The liquidation vault's share is the one floored, so rounding dust stays
// with the pending redeems.
func splitForToBeRedeemed(liquidated, toBeRedeemed, backed currency.Amount) (currency.Amount, error) {
	if toBeRedeemed.IsZero() {
		return currency.Zero(liquidated.Currency()), nil
	}
	settled, err := backed.Sub(toBeRedeemed)
	if err != nil {
		return currency.Amount{}, err
	}
	forLiquidationVault, err := CalculateCollateral(liquidated, settled, backed)
	if err != nil {
		return currency.Amount{}, err
	}
	return liquidated.Sub(forLiquidationVault)
}

// slashForToBeRedeemed moves up to amount of the owner's own stake into the
// vault's liquidated collateral. Nominators are not charged for pending
// redeems. It returns the amount actually segregated.
func (v *richVault) slashForToBeRedeemed(amount currency.Amount) (currency.Amount, error) {
	own, err := v.ownCollateral()
	if err != nil {
		return currency.Amount{}, err
	}
	segregated := own.Min(amount)
	if segregated.IsZero() {
		return segregated, nil
	}
	if err := v.increaseLiquidatedCollateral(segregated); err != nil {
		return currency.Amount{}, err
	}
	if err := v.e.pool.WithdrawCollateral(v.id(), v.id().Account, segregated); err != nil {
		return currency.Amount{}, err
	}
	if err := v.e.decreaseTotalBacking(v.pair(), segregated); err != nil {
		return currency.Amount{}, err
	}
	return segregated, nil
}

// slashToLiquidationVault charges the owner's stake first and nominators for
// the rest, then moves amount into the pair's liquidation vault.
func (v *richVault) slashToLiquidationVault(amount currency.Amount) error {
	if amount.IsZero() {
		return nil
	}
	own, err := v.ownCollateral()
	if err != nil {
		return err
	}
	fromOwner := own.Min(amount)
	fromNominators, err := amount.Sub(fromOwner)
	if err != nil {
		return err
	}
	if !fromOwner.IsZero() {
		if err := v.e.pool.WithdrawCollateral(v.id(), v.id().Account, fromOwner); err != nil {
			return err
		}
	}
	if !fromNominators.IsZero() {
		if err := v.e.pool.SlashCollateral(v.id(), fromNominators); err != nil {
			return err
		}
	}
	if err := v.e.decreaseTotalBacking(v.pair(), amount); err != nil {
		return err
	}
	return v.e.transferFunds(LiquidatedCollateral(v.id()), LiquidationVault(v.pair()), amount)
}
