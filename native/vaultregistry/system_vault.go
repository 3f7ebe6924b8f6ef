package vaultregistry

import (
	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// updateSystemVault loads the pair's system vault, applies fn and persists the
// result. The record is created on first use.
func (e *Engine) updateSystemVault(pair types.CurrencyPair, fn func(*SystemVault) error) error {
	s, err := e.loadSystemVault(pair)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return e.storeSystemVault(s)
}

// toBeBacked is issued plus to-be-issued minus to-be-redeemed. Tokens pending
// redemption are backed by the liquidated collateral kept on their vault, not
// by the system vault's collateral.
func (s *SystemVault) toBeBacked() (currency.Amount, error) {
	backed, err := s.IssuedTokens.Add(s.ToBeIssuedTokens)
	if err != nil {
		return currency.Amount{}, err
	}
	return backed.Sub(s.ToBeRedeemedTokens)
}

func (s *SystemVault) redeemable() (currency.Amount, error) {
	return s.IssuedTokens.Sub(s.ToBeRedeemedTokens)
}

// absorb adds the token counters of a liquidated vault.
func (s *SystemVault) absorb(issued, toBeIssued, toBeRedeemed currency.Amount) error {
	var err error
	if s.IssuedTokens, err = s.IssuedTokens.Add(issued); err != nil {
		return err
	}
	if s.ToBeIssuedTokens, err = s.ToBeIssuedTokens.Add(toBeIssued); err != nil {
		return err
	}
	if s.ToBeRedeemedTokens, err = s.ToBeRedeemedTokens.Add(toBeRedeemed); err != nil {
		return err
	}
	return nil
}

func (s *SystemVault) increaseCollateral(amount currency.Amount) error {
	next, err := s.Collateral.Add(amount)
	if err != nil {
		return err
	}
	s.Collateral = next
	return nil
}

func (s *SystemVault) decreaseCollateral(amount currency.Amount) error {
	next, err := s.Collateral.Sub(amount)
	if err != nil {
		return err
	}
	s.Collateral = next
	return nil
}

// burnIssued removes tokens redeemed directly against the system vault.
func (s *SystemVault) burnIssued(tokens currency.Amount) error {
	next, err := s.IssuedTokens.Sub(tokens)
	if err != nil {
		return tokensCommitted(err)
	}
	s.IssuedTokens = next
	return nil
}
