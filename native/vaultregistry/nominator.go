package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// DepositNominatorCollateral moves amount from the nominator's free balance
// into the vault's collateral. The funds are reserved on the owner account
// and tracked as the nominator's stake in the vault pool.
func (e *Engine) DepositNominatorCollateral(id types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	return e.atomic("deposit_nominator_collateral", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureActive(); err != nil {
			return err
		}
		if err := v.collateral(amount); err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		free, err := e.ledger.FreeBalance(nominator, amount.Currency())
		if err != nil {
			return err
		}
		if free.Lt(amount) {
			return fmt.Errorf("%w: nominator holds %s, depositing %s", ErrInsufficientVaultBalance, free, amount)
		}
		if err := e.ledger.Transfer(nominator, id.Account, amount); err != nil {
			return err
		}
		if err := e.ledger.Lock(id.Account, amount); err != nil {
			return err
		}
		if err := e.pool.DepositCollateral(id, nominator, amount); err != nil {
			return err
		}
		if err := e.increaseTotalBacking(id.Currencies, amount); err != nil {
			return err
		}
		return e.syncRewardStake(id)
	})
}

// WithdrawNominatorCollateral returns part of a nominator's stake, subject to
// the same checks as an owner withdrawal.
func (e *Engine) WithdrawNominatorCollateral(id types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	return e.atomic("withdraw_nominator_collateral", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.collateral(amount); err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		stake, err := e.pool.NominatorCollateral(id, nominator)
		if err != nil {
			return err
		}
		if stake.Lt(amount) {
			return fmt.Errorf("%w: nominator stake %s, withdrawing %s", ErrInsufficientVaultBalance, stake, amount)
		}
		if err := v.ensureCanWithdraw(amount); err != nil {
			return err
		}
		if err := e.pool.WithdrawCollateral(id, nominator, amount); err != nil {
			return err
		}
		if err := e.decreaseTotalBacking(id.Currencies, amount); err != nil {
			return err
		}
		if err := e.ledger.Unlock(id.Account, amount); err != nil {
			return err
		}
		if err := e.ledger.Transfer(id.Account, nominator, amount); err != nil {
			return err
		}
		return e.syncRewardStake(id)
	})
}

// NominatedCollateral is the part of the vault's collateral that does not
// belong to its owner.
func (e *Engine) NominatedCollateral(id types.VaultID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	v, err := e.richVault(id)
	if err != nil {
		return currency.Amount{}, err
	}
	total, err := v.totalCollateral()
	if err != nil {
		return currency.Amount{}, err
	}
	own, err := v.ownCollateral()
	if err != nil {
		return currency.Amount{}, err
	}
	return total.Sub(own)
}

// RefundNominators returns every nominator's stake to its free balance and
// reports the total refunded. The vault must stay above its secure threshold
// without the nominated collateral.
func (e *Engine) RefundNominators(id types.VaultID) (currency.Amount, error) {
	refunded := currency.Zero(id.CollateralCurrency())
	err := e.atomic("refund_nominators", func() error {
		nominated, err := e.NominatedCollateral(id)
		if err != nil {
			return err
		}
		if nominated.IsZero() {
			return nil
		}
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureCanWithdraw(nominated); err != nil {
			return err
		}
		kicked, err := e.pool.KickNominators(id, id.Account)
		if err != nil {
			return err
		}
		for _, stake := range kicked {
			if err := e.decreaseTotalBacking(id.Currencies, stake.Amount); err != nil {
				return err
			}
			if err := e.ledger.Unlock(id.Account, stake.Amount); err != nil {
				return err
			}
			if err := e.ledger.Transfer(id.Account, stake.Nominator, stake.Amount); err != nil {
				return err
			}
			if refunded, err = refunded.Add(stake.Amount); err != nil {
				return err
			}
		}
		return e.syncRewardStake(id)
	})
	if err != nil {
		return currency.Amount{}, err
	}
	return refunded, nil
}
