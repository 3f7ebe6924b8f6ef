package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// GetVault returns a copy of the vault record.
func (e *Engine) GetVault(id types.VaultID) (*Vault, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadVault(id)
}

// GetSystemVault returns the pair's liquidation vault. Pairs without any
// liquidation yield an empty record.
func (e *Engine) GetSystemVault(pair types.CurrencyPair) (*SystemVault, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadSystemVault(pair)
}

// Vaults lists every registered vault in registration order.
func (e *Engine) Vaults() ([]types.VaultID, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	var keys [][]byte
	if err := e.state.KVGetList(vaultIndexKey, &keys); err != nil {
		return nil, err
	}
	ids := make([]types.VaultID, 0, len(keys))
	for _, key := range keys {
		id, err := types.VaultIDFromKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: vault index: %v", ErrInvalidState, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (e *Engine) IssuableTokens(id types.VaultID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	v, err := e.richVault(id)
	if err != nil {
		return currency.Amount{}, err
	}
	if v.isLiquidated() {
		return currency.Zero(id.WrappedCurrency()), nil
	}
	return v.issuableTokens()
}

func (e *Engine) RedeemableTokens(id types.VaultID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	v, err := e.richVault(id)
	if err != nil {
		return currency.Amount{}, err
	}
	return v.redeemableTokens()
}

// TotalCollateral is the vault's pool total, owner stake plus nominations.
func (e *Engine) TotalCollateral(id types.VaultID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	v, err := e.richVault(id)
	if err != nil {
		return currency.Amount{}, err
	}
	return v.totalCollateral()
}

func (e *Engine) FreeCollateral(id types.VaultID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	v, err := e.richVault(id)
	if err != nil {
		return currency.Amount{}, err
	}
	return v.freeCollateral()
}

// TotalUserVaultCollateral is the collateral locked in all user vaults of a
// pair, excluding liquidation vaults and segregated collateral.
func (e *Engine) TotalUserVaultCollateral(pair types.CurrencyPair) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	return e.totalUserVaultCollateral(pair)
}

// IsVaultBelowSecureThreshold checks issued tokens against the vault's
// effective secure threshold.
func (e *Engine) IsVaultBelowSecureThreshold(id types.VaultID) (bool, error) {
	return e.isVaultBelow(id, func(v *richVault, _ PairParams) (currency.Ratio, error) {
		return v.secureThreshold()
	}, false)
}

func (e *Engine) IsVaultBelowPremiumThreshold(id types.VaultID) (bool, error) {
	return e.isVaultBelow(id, func(_ *richVault, p PairParams) (currency.Ratio, error) {
		return p.PremiumRedeemThreshold, nil
	}, false)
}

func (e *Engine) IsVaultBelowAuctionThreshold(id types.VaultID) (bool, error) {
	return e.isVaultBelow(id, func(_ *richVault, p PairParams) (currency.Ratio, error) {
		return p.AuctionThreshold, nil
	}, false)
}

// IsVaultBelowLiquidationThreshold also counts to-be-issued tokens, matching
// the collateral a liquidation would seize.
func (e *Engine) IsVaultBelowLiquidationThreshold(id types.VaultID) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.isVaultBelowLiquidationThreshold(id)
}

func (e *Engine) isVaultBelowLiquidationThreshold(id types.VaultID) (bool, error) {
	return e.isVaultBelow(id, func(_ *richVault, p PairParams) (currency.Ratio, error) {
		return p.LiquidationThreshold, nil
	}, true)
}

// isVaultBelow applies the shared threshold check. Liquidated vaults are
// never below any threshold.
func (e *Engine) isVaultBelow(id types.VaultID, threshold func(*richVault, PairParams) (currency.Ratio, error), withPending bool) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	v, err := e.richVault(id)
	if err != nil {
		return false, err
	}
	if v.isLiquidated() {
		return false, nil
	}
	params, err := e.params.Pair(v.pair())
	if err != nil {
		return false, err
	}
	ratio, err := threshold(v, params)
	if err != nil {
		return false, err
	}
	if ratio == 0 {
		return false, fmt.Errorf("%w: %s", ErrThresholdNotSet, v.pair())
	}
	tokens := v.data.IssuedTokens
	if withPending {
		if tokens, err = v.backedTokens(); err != nil {
			return false, err
		}
	}
	total, err := v.totalCollateral()
	if err != nil {
		return false, err
	}
	return IsBelowThreshold(e.oracle, total, tokens, ratio)
}
