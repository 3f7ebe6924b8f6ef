package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/types"
)

// RegisterVault creates the vault and locks collateral from the owner's free
// balance. The pair's thresholds must be configured and collateral must meet
// the pair's minimum.
func (e *Engine) RegisterVault(id types.VaultID, collateral currency.Amount) error {
	return e.guarded("register_vault", func() error {
		if id.Account.IsZero() {
			return fmt.Errorf("%w: empty owner account", ErrInvalidState)
		}
		if err := id.Currencies.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPair, err)
		}
		if collateral.Currency() != id.CollateralCurrency() {
			return fmt.Errorf("%w: %s for vault %s", ErrWrongCurrency, collateral.Currency(), id)
		}
		params, err := e.params.requireThresholds(id.Currencies)
		if err != nil {
			return err
		}
		if collateral.Lt(params.MinimumCollateral) {
			return fmt.Errorf("%w: %s below %s", ErrInsufficientCollateral, collateral, params.MinimumCollateral)
		}
		exists, err := e.vaultExists(id)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrVaultAlreadyRegistered, id)
		}
		v := &richVault{e: e, data: newVault(id)}
		if err := v.save(); err != nil {
			return err
		}
		if err := e.state.KVAppend(vaultIndexKey, id.Key()); err != nil {
			return err
		}
		if err := v.depositCollateral(collateral); err != nil {
			return err
		}
		e.emit(events.VaultRegistered{Vault: id, Collateral: collateral})
		e.logger.Info("vault registered", "vault", id.String(), "collateral", collateral.Value())
		return nil
	})
}

// DepositCollateral locks additional collateral from the owner's free balance.
func (e *Engine) DepositCollateral(id types.VaultID, amount currency.Amount) error {
	return e.guarded("deposit_collateral", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureActive(); err != nil {
			return err
		}
		if err := v.depositCollateral(amount); err != nil {
			return err
		}
		total, err := v.totalCollateral()
		if err != nil {
			return err
		}
		params, err := e.params.Pair(v.pair())
		if err != nil {
			return err
		}
		if total.Lt(params.MinimumCollateral) {
			return fmt.Errorf("%w: %s below %s", ErrInsufficientCollateral, total, params.MinimumCollateral)
		}
		e.emit(events.VaultCollateral{Vault: id, Amount: amount, Total: total})
		return nil
	})
}

// WithdrawCollateral returns part of the owner's own stake to its free
// balance, provided the vault stays above its secure threshold.
func (e *Engine) WithdrawCollateral(id types.VaultID, amount currency.Amount) error {
	return e.guarded("withdraw_collateral", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.collateral(amount); err != nil {
			return err
		}
		if err := v.ensureCanWithdraw(amount); err != nil {
			return err
		}
		if err := v.withdrawCollateral(amount); err != nil {
			return err
		}
		total, err := v.totalCollateral()
		if err != nil {
			return err
		}
		e.emit(events.VaultCollateral{Withdrawal: true, Vault: id, Amount: amount, Total: total})
		return nil
	})
}

// EnsureCanWithdrawCollateral reports whether amount may leave the vault's
// collateral without breaching the minimum or the secure threshold.
func (e *Engine) EnsureCanWithdrawCollateral(id types.VaultID, amount currency.Amount) error {
	if err := e.ready(); err != nil {
		return err
	}
	v, err := e.richVault(id)
	if err != nil {
		return err
	}
	if err := v.collateral(amount); err != nil {
		return err
	}
	return v.ensureCanWithdraw(amount)
}

func (v *richVault) ensureCanWithdraw(amount currency.Amount) error {
	total, err := v.totalCollateral()
	if err != nil {
		return err
	}
	remaining, err := total.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: collateral %s, withdrawing %s", ErrInsufficientVaultBalance, total, amount)
	}
	params, err := v.e.params.Pair(v.pair())
	if err != nil {
		return err
	}
	if !remaining.IsZero() && remaining.Lt(params.MinimumCollateral) {
		return fmt.Errorf("%w: %s would remain, minimum %s", ErrInsufficientCollateral, remaining, params.MinimumCollateral)
	}
	backed, err := v.backedTokens()
	if err != nil {
		return err
	}
	if backed.IsZero() {
		return nil
	}
	threshold, err := v.secureThreshold()
	if err != nil {
		return err
	}
	if threshold == 0 {
		return fmt.Errorf("%w: %s", ErrThresholdNotSet, v.pair())
	}
	below, err := IsBelowThreshold(v.e.oracle, remaining, backed, threshold)
	if err != nil {
		return err
	}
	if below {
		return fmt.Errorf("%w: %s left for %s", ErrExceedsThreshold, remaining, backed)
	}
	return nil
}

// AcceptNewIssues toggles whether the vault takes new issue requests.
func (e *Engine) AcceptNewIssues(id types.VaultID, accept bool) error {
	return e.guarded("accept_new_issues", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureActive(); err != nil {
			return err
		}
		v.data.AcceptNewIssues = accept
		if err := v.save(); err != nil {
			return err
		}
		e.emit(events.VaultAcceptNewIssues{Vault: id, Accept: accept})
		return nil
	})
}

// SetCustomSecureThreshold sets or, with nil, clears the vault's own secure
// threshold. A custom threshold must be above the pair's global one.
func (e *Engine) SetCustomSecureThreshold(id types.VaultID, threshold *currency.Ratio) error {
	return e.guarded("set_custom_secure_threshold", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureActive(); err != nil {
			return err
		}
		var emitted currency.Ratio
		if threshold != nil {
			params, err := e.params.Pair(v.pair())
			if err != nil {
				return err
			}
			if *threshold <= currency.RatioOne || *threshold <= params.SecureThreshold {
				return fmt.Errorf("%w: %s not above %s", ErrThresholdNotAboveGlobal, *threshold, params.SecureThreshold)
			}
			custom := *threshold
			v.data.SecureThreshold = &custom
			emitted = custom
		} else {
			v.data.SecureThreshold = nil
		}
		if err := v.save(); err != nil {
			return err
		}
		e.emit(events.VaultSecureThreshold{Vault: id, Threshold: emitted})
		return nil
	})
}

// BanVault bans the vault for the configured punishment delay. An existing
// longer ban is kept.
func (e *Engine) BanVault(id types.VaultID) error {
	return e.atomic("ban_vault", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		global, err := e.params.Global()
		if err != nil {
			return err
		}
		until := e.blockHeight + global.PunishmentDelay
		if until < e.blockHeight {
			return fmt.Errorf("%w: ban height", ErrArithmeticOverflow)
		}
		if err := v.banUntil(until); err != nil {
			return err
		}
		e.emit(events.VaultBanned{Vault: id, BannedUntil: *v.data.BannedUntil})
		e.logger.Info("vault banned", "vault", id.String(), "until", *v.data.BannedUntil)
		return nil
	})
}

func (e *Engine) EnsureNotBanned(id types.VaultID) error {
	if err := e.ready(); err != nil {
		return err
	}
	v, err := e.richVault(id)
	if err != nil {
		return err
	}
	return v.ensureNotBanned()
}
