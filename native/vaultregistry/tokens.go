package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/types"
)

// TryIncreaseToBeIssuedTokens reserves issuing capacity for an issue request.
func (e *Engine) TryIncreaseToBeIssuedTokens(id types.VaultID, tokens currency.Amount) error {
	return e.atomic("increase_to_be_issued", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureActive(); err != nil {
			return err
		}
		if err := v.ensureNotBanned(); err != nil {
			return err
		}
		if !v.data.AcceptNewIssues {
			return fmt.Errorf("%w: %s", ErrVaultNotAcceptingIssues, id)
		}
		issuable, err := v.issuableTokens()
		if err != nil {
			return err
		}
		if err := v.wrapped(tokens); err != nil {
			return err
		}
		if issuable.Lt(tokens) {
			return fmt.Errorf("%w: %s issuable, %s requested", ErrExceedingVaultLimit, issuable, tokens)
		}
		if err := v.increaseToBeIssued(tokens); err != nil {
			return err
		}
		e.emit(events.VaultTokens{Type: events.TypeVaultToBeIssuedIncreased, Vault: id, Amount: tokens})
		return nil
	})
}

// DecreaseToBeIssuedTokens releases a reservation when an issue is cancelled.
func (e *Engine) DecreaseToBeIssuedTokens(id types.VaultID, tokens currency.Amount) error {
	return e.atomic("decrease_to_be_issued", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.decreaseToBeIssued(tokens); err != nil {
			return err
		}
		e.emit(events.VaultTokens{Type: events.TypeVaultToBeIssuedDecreased, Vault: id, Amount: tokens})
		return nil
	})
}

// IssueTokens turns reserved tokens into issued tokens.
func (e *Engine) IssueTokens(id types.VaultID, tokens currency.Amount) error {
	return e.atomic("issue_tokens", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.executeIssue(tokens); err != nil {
			return err
		}
		e.emit(events.VaultTokens{Type: events.TypeVaultTokensIssued, Vault: id, Amount: tokens})
		return nil
	})
}

// TryIncreaseToBeRedeemedTokens reserves redeemable tokens for a redeem
// request.
func (e *Engine) TryIncreaseToBeRedeemedTokens(id types.VaultID, tokens currency.Amount) error {
	return e.atomic("increase_to_be_redeemed", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.ensureActive(); err != nil {
			return err
		}
		if err := v.ensureNotBanned(); err != nil {
			return err
		}
		if err := v.wrapped(tokens); err != nil {
			return err
		}
		redeemable, err := v.redeemableTokens()
		if err != nil {
			return err
		}
		if redeemable.Lt(tokens) {
			return fmt.Errorf("%w: %s redeemable, %s requested", ErrInsufficientTokensCommitted, redeemable, tokens)
		}
		if err := v.increaseToBeRedeemed(tokens); err != nil {
			return err
		}
		e.emit(events.VaultTokens{Type: events.TypeVaultToBeRedeemedIncreased, Vault: id, Amount: tokens})
		return nil
	})
}

// DecreaseToBeRedeemedTokens releases a redeem reservation.
func (e *Engine) DecreaseToBeRedeemedTokens(id types.VaultID, tokens currency.Amount) error {
	return e.atomic("decrease_to_be_redeemed", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.decreaseToBeRedeemed(tokens); err != nil {
			return err
		}
		e.emit(events.VaultTokens{Type: events.TypeVaultToBeRedeemedDecreased, Vault: id, Amount: tokens})
		return nil
	})
}

// DecreaseTokens burns tokens of a failed redeem; they are considered lost.
func (e *Engine) DecreaseTokens(id types.VaultID, user types.AccountID, tokens currency.Amount) error {
	return e.atomic("decrease_tokens", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		if err := v.executeRedeem(tokens); err != nil {
			return err
		}
		e.emit(events.VaultTokens{Type: events.TypeVaultTokensDecreased, Vault: id, Amount: tokens})
		e.logger.Info("vault tokens decreased", "vault", id.String(), "user", user.String(), "tokens", tokens.Value())
		return nil
	})
}

// RedeemTokens executes a redeem. On an active vault a non-zero premium is
// paid to the redeemer from the vault's collateral. On a liquidated vault the
// matching share of its liquidated collateral is released to the owner.
func (e *Engine) RedeemTokens(id types.VaultID, tokens, premium currency.Amount, redeemer types.AccountID) error {
	return e.atomic("redeem_tokens", func() error {
		v, err := e.richVault(id)
		if err != nil {
			return err
		}
		evt := events.VaultTokensRedeemed{
			Vault:    id,
			Redeemer: redeemer,
			Tokens:   tokens,
			Premium:  currency.Zero(id.CollateralCurrency()),
			Released: currency.Zero(id.CollateralCurrency()),
		}
		if v.isLiquidated() {
			if !premium.IsZero() {
				return fmt.Errorf("%w: no premium on %s", ErrVaultLiquidated, id)
			}
			released := currency.Zero(id.CollateralCurrency())
			if !tokens.IsZero() {
				released, err = CalculateCollateral(v.data.LiquidatedCollateral, tokens, v.data.ToBeRedeemedTokens)
				if err != nil {
					return err
				}
			}
			if err := v.executeRedeem(tokens); err != nil {
				return err
			}
			if v, err = e.richVault(id); err != nil {
				return err
			}
			if err := v.decreaseLiquidatedCollateral(released); err != nil {
				return err
			}
			if err := e.transferFunds(LiquidatedCollateral(id), FreeBalance(id.Account), released); err != nil {
				return err
			}
			evt.Liquidated = true
			evt.Released = released
			e.emit(evt)
			return nil
		}
		if err := v.executeRedeem(tokens); err != nil {
			return err
		}
		if !premium.IsZero() {
			if err := e.transferFunds(Collateral(id), FreeBalance(redeemer), premium); err != nil {
				return err
			}
			evt.Premium = premium
		}
		e.emit(evt)
		return nil
	})
}

// RedeemTokensLiquidation burns tokens against the pair's liquidation vault
// and pays the redeemer the proportional share of its collateral.
func (e *Engine) RedeemTokensLiquidation(pair types.CurrencyPair, redeemer types.AccountID, tokens currency.Amount) error {
	return e.atomic("redeem_tokens_liquidation", func() error {
		if err := pair.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPair, err)
		}
		if tokens.Currency() != pair.Wrapped {
			return fmt.Errorf("%w: %s for pair %s", ErrWrongCurrency, tokens.Currency(), pair)
		}
		sys, err := e.loadSystemVault(pair)
		if err != nil {
			return err
		}
		redeemable, err := sys.redeemable()
		if err != nil {
			return err
		}
		if redeemable.Lt(tokens) {
			return fmt.Errorf("%w: liquidation vault %s has %s redeemable", ErrInsufficientTokensCommitted, pair, redeemable)
		}
		payout := currency.Zero(pair.Collateral)
		if !tokens.IsZero() {
			backed, err := sys.toBeBacked()
			if err != nil {
				return err
			}
			if payout, err = CalculateCollateral(sys.Collateral, tokens, backed); err != nil {
				return err
			}
		}
		if err := e.transferFunds(LiquidationVault(pair), FreeBalance(redeemer), payout); err != nil {
			return err
		}
		// transferFunds rewrote the system vault's collateral.
		if err := e.updateSystemVault(pair, func(s *SystemVault) error {
			return s.burnIssued(tokens)
		}); err != nil {
			return err
		}
		e.emit(events.LiquidationRedeemed{Pair: pair, Redeemer: redeemer, Burned: tokens, Collateral: payout})
		return nil
	})
}

// ReplaceTokens moves tokens from old to new. When old was liquidated, the
// matching share of its liquidated collateral goes back into its stake.
// collateral is additional collateral locked for the new vault.
func (e *Engine) ReplaceTokens(oldID, newID types.VaultID, tokens, collateral currency.Amount) error {
	return e.atomic("replace_tokens", func() error {
		if oldID == newID {
			return fmt.Errorf("%w: cannot replace %s with itself", ErrInvalidState, oldID)
		}
		oldVault, err := e.richVault(oldID)
		if err != nil {
			return err
		}
		newVault, err := e.richVault(newID)
		if err != nil {
			return err
		}
		if err := newVault.ensureActive(); err != nil {
			return err
		}
		if oldVault.isLiquidated() && !tokens.IsZero() {
			released, err := CalculateCollateral(oldVault.data.LiquidatedCollateral, tokens, oldVault.data.ToBeRedeemedTokens)
			if err != nil {
				return err
			}
			if err := oldVault.decreaseLiquidatedCollateral(released); err != nil {
				return err
			}
			if !released.IsZero() {
				if err := e.pool.DepositCollateral(oldID, oldID.Account, released); err != nil {
					return err
				}
				if err := e.increaseTotalBacking(oldID.Currencies, released); err != nil {
					return err
				}
				if err := e.syncRewardStake(oldID); err != nil {
					return err
				}
			}
		}
		if err := oldVault.executeRedeem(tokens); err != nil {
			return err
		}
		if err := newVault.executeIssue(tokens); err != nil {
			return err
		}
		if !collateral.IsZero() {
			if err := newVault.depositCollateral(collateral); err != nil {
				return err
			}
		}
		e.emit(events.TokensReplaced{OldVault: oldID, NewVault: newID, Tokens: tokens, Collateral: collateral})
		return nil
	})
}
