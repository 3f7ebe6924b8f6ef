package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// richVault couples a vault record with the engine so mutations can reach
// the system vault, the pool manager and the parameter store. Every mutation
// persists the whole record before returning.
type richVault struct {
	e    *Engine
	data *Vault
}

func (e *Engine) richVault(id types.VaultID) (*richVault, error) {
	v, err := e.loadVault(id)
	if err != nil {
		return nil, err
	}
	return &richVault{e: e, data: v}, nil
}

func (v *richVault) id() types.VaultID { return v.data.ID }

func (v *richVault) pair() types.CurrencyPair { return v.data.ID.Currencies }

func (v *richVault) save() error { return v.e.storeVault(v.data) }

func (v *richVault) isLiquidated() bool { return v.data.IsLiquidated() }

func (v *richVault) wrapped(amount currency.Amount) error {
	if amount.Currency() != v.id().WrappedCurrency() {
		return fmt.Errorf("%w: %s for vault %s", ErrWrongCurrency, amount.Currency(), v.id())
	}
	return nil
}

func (v *richVault) collateral(amount currency.Amount) error {
	if amount.Currency() != v.id().CollateralCurrency() {
		return fmt.Errorf("%w: %s for vault %s", ErrWrongCurrency, amount.Currency(), v.id())
	}
	return nil
}

// backedTokens is issued plus to-be-issued.
func (v *richVault) backedTokens() (currency.Amount, error) {
	return v.data.IssuedTokens.Add(v.data.ToBeIssuedTokens)
}

func (v *richVault) totalCollateral() (currency.Amount, error) {
	return v.e.pool.TotalCollateral(v.id())
}

// ownCollateral is the part of the pool staked by the vault owner.
func (v *richVault) ownCollateral() (currency.Amount, error) {
	return v.e.pool.NominatorCollateral(v.id(), v.id().Account)
}

// secureThreshold is max(custom, global).
func (v *richVault) secureThreshold() (currency.Ratio, error) {
	params, err := v.e.params.Pair(v.pair())
	if err != nil {
		return 0, err
	}
	threshold := params.SecureThreshold
	if v.data.SecureThreshold != nil && *v.data.SecureThreshold > threshold {
		threshold = *v.data.SecureThreshold
	}
	return threshold, nil
}

func (v *richVault) usedCollateral(threshold currency.Ratio) (currency.Amount, error) {
	backed, err := v.backedTokens()
	if err != nil {
		return currency.Amount{}, err
	}
	total, err := v.totalCollateral()
	if err != nil {
		return currency.Amount{}, err
	}
	return UsedCollateral(v.e.oracle, backed, threshold, total)
}

// freeCollateral is the collateral not needed at the secure threshold.
func (v *richVault) freeCollateral() (currency.Amount, error) {
	threshold, err := v.secureThreshold()
	if err != nil {
		return currency.Amount{}, err
	}
	used, err := v.usedCollateral(threshold)
	if err != nil {
		return currency.Amount{}, err
	}
	total, err := v.totalCollateral()
	if err != nil {
		return currency.Amount{}, err
	}
	return total.Sub(used)
}

func (v *richVault) issuableTokens() (currency.Amount, error) {
	if v.data.IsBanned(v.e.blockHeight) {
		return currency.Zero(v.id().WrappedCurrency()), nil
	}
	free, err := v.freeCollateral()
	if err != nil {
		return currency.Amount{}, err
	}
	threshold, err := v.secureThreshold()
	if err != nil {
		return currency.Amount{}, err
	}
	return MaxTokensForCollateral(v.e.oracle, free, v.id().WrappedCurrency(), threshold)
}

func (v *richVault) redeemableTokens() (currency.Amount, error) {
	if v.data.IsBanned(v.e.blockHeight) {
		return currency.Zero(v.id().WrappedCurrency()), nil
	}
	return v.data.IssuedTokens.Sub(v.data.ToBeRedeemedTokens)
}

func (v *richVault) ensureNotBanned() error {
	if v.data.IsBanned(v.e.blockHeight) {
		return fmt.Errorf("%w: %s until %d", ErrVaultBanned, v.id(), *v.data.BannedUntil)
	}
	return nil
}

// banUntil never shortens an existing ban.
func (v *richVault) banUntil(height uint64) error {
	if v.data.BannedUntil != nil && *v.data.BannedUntil >= height {
		return nil
	}
	v.data.BannedUntil = &height
	return v.save()
}

func (v *richVault) ensureActive() error {
	if v.isLiquidated() {
		return fmt.Errorf("%w: %s", ErrVaultLiquidated, v.id())
	}
	return nil
}

func (v *richVault) increaseToBeIssued(tokens currency.Amount) error {
	if err := v.wrapped(tokens); err != nil {
		return err
	}
	if err := v.ensureActive(); err != nil {
		return err
	}
	next, err := v.data.ToBeIssuedTokens.Add(tokens)
	if err != nil {
		return err
	}
	v.data.ToBeIssuedTokens = next
	return v.save()
}

// decreaseToBeIssued delegates to the system vault once liquidated, since
// liquidation moved the pending issues there.
func (v *richVault) decreaseToBeIssued(tokens currency.Amount) error {
	if err := v.wrapped(tokens); err != nil {
		return err
	}
	if v.isLiquidated() {
		return v.e.updateSystemVault(v.pair(), func(s *SystemVault) error {
			next, err := s.ToBeIssuedTokens.Sub(tokens)
			if err != nil {
				return tokensCommitted(err)
			}
			s.ToBeIssuedTokens = next
			return nil
		})
	}
	next, err := v.data.ToBeIssuedTokens.Sub(tokens)
	if err != nil {
		return tokensCommitted(err)
	}
	v.data.ToBeIssuedTokens = next
	return v.save()
}

func (v *richVault) increaseIssued(tokens currency.Amount) error {
	if err := v.wrapped(tokens); err != nil {
		return err
	}
	if v.isLiquidated() {
		return v.e.updateSystemVault(v.pair(), func(s *SystemVault) error {
			next, err := s.IssuedTokens.Add(tokens)
			if err != nil {
				return err
			}
			s.IssuedTokens = next
			return nil
		})
	}
	next, err := v.data.IssuedTokens.Add(tokens)
	if err != nil {
		return err
	}
	v.data.IssuedTokens = next
	return v.save()
}

func (v *richVault) decreaseIssued(tokens currency.Amount) error {
	if err := v.wrapped(tokens); err != nil {
		return err
	}
	if v.isLiquidated() {
		return v.e.updateSystemVault(v.pair(), func(s *SystemVault) error {
			next, err := s.IssuedTokens.Sub(tokens)
			if err != nil {
				return tokensCommitted(err)
			}
			s.IssuedTokens = next
			return nil
		})
	}
	next, err := v.data.IssuedTokens.Sub(tokens)
	if err != nil {
		return tokensCommitted(err)
	}
	v.data.IssuedTokens = next
	return v.save()
}

func (v *richVault) increaseToBeRedeemed(tokens currency.Amount) error {
	if err := v.wrapped(tokens); err != nil {
		return err
	}
	if err := v.ensureActive(); err != nil {
		return err
	}
	next, err := v.data.ToBeRedeemedTokens.Add(tokens)
	if err != nil {
		return err
	}
	v.data.ToBeRedeemedTokens = next
	return v.save()
}

// decreaseToBeRedeemed lowers the vault counter and, once liquidated, the
// system vault's copy of it as well.
func (v *richVault) decreaseToBeRedeemed(tokens currency.Amount) error {
	if err := v.wrapped(tokens); err != nil {
		return err
	}
	if v.isLiquidated() {
		if err := v.e.updateSystemVault(v.pair(), func(s *SystemVault) error {
			next, err := s.ToBeRedeemedTokens.Sub(tokens)
			if err != nil {
				return tokensCommitted(err)
			}
			s.ToBeRedeemedTokens = next
			return nil
		}); err != nil {
			return err
		}
	}
	next, err := v.data.ToBeRedeemedTokens.Sub(tokens)
	if err != nil {
		return tokensCommitted(err)
	}
	v.data.ToBeRedeemedTokens = next
	return v.save()
}

func (v *richVault) executeIssue(tokens currency.Amount) error {
	if err := v.decreaseToBeIssued(tokens); err != nil {
		return err
	}
	return v.increaseIssued(tokens)
}

// executeRedeem burns tokens: they leave both to-be-redeemed and issued.
func (v *richVault) executeRedeem(tokens currency.Amount) error {
	if err := v.decreaseToBeRedeemed(tokens); err != nil {
		return err
	}
	return v.decreaseIssued(tokens)
}

func (v *richVault) increaseLiquidatedCollateral(amount currency.Amount) error {
	if err := v.collateral(amount); err != nil {
		return err
	}
	next, err := v.data.LiquidatedCollateral.Add(amount)
	if err != nil {
		return err
	}
	v.data.LiquidatedCollateral = next
	return v.save()
}

func (v *richVault) decreaseLiquidatedCollateral(amount currency.Amount) error {
	if err := v.collateral(amount); err != nil {
		return err
	}
	next, err := v.data.LiquidatedCollateral.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientVaultBalance, err)
	}
	v.data.LiquidatedCollateral = next
	return v.save()
}

// depositCollateral locks amount from the owner's free balance into the
// vault's collateral.
func (v *richVault) depositCollateral(amount currency.Amount) error {
	if err := v.collateral(amount); err != nil {
		return err
	}
	return v.e.transferFunds(FreeBalance(v.id().Account), Collateral(v.id()), amount)
}

// withdrawCollateral returns amount of the owner's own stake to its free
// balance. Callers check thresholds first.
func (v *richVault) withdrawCollateral(amount currency.Amount) error {
	if err := v.collateral(amount); err != nil {
		return err
	}
	own, err := v.ownCollateral()
	if err != nil {
		return err
	}
	if own.Lt(amount) {
		return fmt.Errorf("%w: owner stake %s, withdrawing %s", ErrInsufficientVaultBalance, own, amount)
	}
	if err := v.e.pool.WithdrawCollateral(v.id(), v.id().Account, amount); err != nil {
		return err
	}
	if err := v.e.decreaseTotalBacking(v.pair(), amount); err != nil {
		return err
	}
	if err := v.e.ledger.Unlock(v.id().Account, amount); err != nil {
		return err
	}
	return v.e.syncRewardStake(v.id())
}

// syncRewardStake mirrors the vault's pool total into the reward pool. A
// liquidated vault earns nothing.
func (e *Engine) syncRewardStake(id types.VaultID) error {
	v, err := e.loadVault(id)
	if err != nil {
		return err
	}
	if v.IsLiquidated() {
		return e.pool.SetStake(id, currency.Zero(id.CollateralCurrency()))
	}
	total, err := e.pool.TotalCollateral(id)
	if err != nil {
		return err
	}
	return e.pool.SetStake(id, total)
}
