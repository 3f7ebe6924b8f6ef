package vaultregistry

import (
	"math/big"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// Status captures the lifecycle of a vault. Liquidated is terminal.
type Status uint8

const (
	StatusActive Status = iota + 1
	StatusLiquidated
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusLiquidated
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusLiquidated:
		return "liquidated"
	default:
		return "unknown"
	}
}

// Vault is the decoded per-vault record.
type Vault struct {
	ID     types.VaultID
	Status Status
	// AcceptNewIssues only has meaning while the vault is active.
	AcceptNewIssues bool
	// BannedUntil is nil when the vault has never been banned.
	BannedUntil *uint64
	// SecureThreshold is the vault's own override; nil defers to the global
	// threshold of the currency pair.
	SecureThreshold      *currency.Ratio
	IssuedTokens         currency.Amount
	ToBeIssuedTokens     currency.Amount
	ToBeRedeemedTokens   currency.Amount
	LiquidatedCollateral currency.Amount
}

func newVault(id types.VaultID) *Vault {
	return &Vault{
		ID:                   id,
		Status:               StatusActive,
		AcceptNewIssues:      true,
		IssuedTokens:         currency.Zero(id.WrappedCurrency()),
		ToBeIssuedTokens:     currency.Zero(id.WrappedCurrency()),
		ToBeRedeemedTokens:   currency.Zero(id.WrappedCurrency()),
		LiquidatedCollateral: currency.Zero(id.CollateralCurrency()),
	}
}

func (v *Vault) IsLiquidated() bool {
	return v != nil && v.Status == StatusLiquidated
}

// IsBanned reports whether the vault is banned at height.
func (v *Vault) IsBanned(height uint64) bool {
	return v != nil && v.BannedUntil != nil && height <= *v.BannedUntil
}

// Clone returns a deep copy of the vault.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := *v
	if v.BannedUntil != nil {
		until := *v.BannedUntil
		clone.BannedUntil = &until
	}
	if v.SecureThreshold != nil {
		threshold := *v.SecureThreshold
		clone.SecureThreshold = &threshold
	}
	return &clone
}

// SystemVault aggregates the tokens and collateral taken over from liquidated
// vaults of one currency pair.
type SystemVault struct {
	Pair               types.CurrencyPair
	IssuedTokens       currency.Amount
	ToBeIssuedTokens   currency.Amount
	ToBeRedeemedTokens currency.Amount
	Collateral         currency.Amount
}

func newSystemVault(pair types.CurrencyPair) *SystemVault {
	return &SystemVault{
		Pair:               pair,
		IssuedTokens:       currency.Zero(pair.Wrapped),
		ToBeIssuedTokens:   currency.Zero(pair.Wrapped),
		ToBeRedeemedTokens: currency.Zero(pair.Wrapped),
		Collateral:         currency.Zero(pair.Collateral),
	}
}

// vaultRecord is the persisted form of Vault.
type vaultRecord struct {
	Account              types.AccountID
	Collateral           string
	Wrapped              string
	Status               uint8
	AcceptNewIssues      bool
	Banned               bool
	BannedUntil          uint64
	SecureThreshold      uint64
	IssuedTokens         *big.Int
	ToBeIssuedTokens     *big.Int
	ToBeRedeemedTokens   *big.Int
	LiquidatedCollateral *big.Int
}

func (v *Vault) record() *vaultRecord {
	rec := &vaultRecord{
		Account:              v.ID.Account,
		Collateral:           string(v.ID.Currencies.Collateral),
		Wrapped:              string(v.ID.Currencies.Wrapped),
		Status:               uint8(v.Status),
		AcceptNewIssues:      v.AcceptNewIssues,
		IssuedTokens:         v.IssuedTokens.Big(),
		ToBeIssuedTokens:     v.ToBeIssuedTokens.Big(),
		ToBeRedeemedTokens:   v.ToBeRedeemedTokens.Big(),
		LiquidatedCollateral: v.LiquidatedCollateral.Big(),
	}
	if v.BannedUntil != nil {
		rec.Banned = true
		rec.BannedUntil = *v.BannedUntil
	}
	if v.SecureThreshold != nil {
		rec.SecureThreshold = uint64(*v.SecureThreshold)
	}
	return rec
}

func (rec *vaultRecord) vault() (*Vault, error) {
	id := types.NewVaultID(rec.Account, currency.ID(rec.Collateral), currency.ID(rec.Wrapped))
	v := &Vault{
		ID:              id,
		Status:          Status(rec.Status),
		AcceptNewIssues: rec.AcceptNewIssues,
	}
	if !v.Status.Valid() {
		return nil, ErrInvalidState
	}
	if rec.Banned {
		until := rec.BannedUntil
		v.BannedUntil = &until
	}
	if rec.SecureThreshold != 0 {
		threshold := currency.Ratio(rec.SecureThreshold)
		v.SecureThreshold = &threshold
	}
	var err error
	if v.IssuedTokens, err = currency.FromBig(rec.IssuedTokens, id.WrappedCurrency()); err != nil {
		return nil, err
	}
	if v.ToBeIssuedTokens, err = currency.FromBig(rec.ToBeIssuedTokens, id.WrappedCurrency()); err != nil {
		return nil, err
	}
	if v.ToBeRedeemedTokens, err = currency.FromBig(rec.ToBeRedeemedTokens, id.WrappedCurrency()); err != nil {
		return nil, err
	}
	if v.LiquidatedCollateral, err = currency.FromBig(rec.LiquidatedCollateral, id.CollateralCurrency()); err != nil {
		return nil, err
	}
	return v, nil
}

type systemVaultRecord struct {
	IssuedTokens       *big.Int
	ToBeIssuedTokens   *big.Int
	ToBeRedeemedTokens *big.Int
	Collateral         *big.Int
}

func (s *SystemVault) record() *systemVaultRecord {
	return &systemVaultRecord{
		IssuedTokens:       s.IssuedTokens.Big(),
		ToBeIssuedTokens:   s.ToBeIssuedTokens.Big(),
		ToBeRedeemedTokens: s.ToBeRedeemedTokens.Big(),
		Collateral:         s.Collateral.Big(),
	}
}

func (rec *systemVaultRecord) systemVault(pair types.CurrencyPair) (*SystemVault, error) {
	s := &SystemVault{Pair: pair}
	var err error
	if s.IssuedTokens, err = currency.FromBig(rec.IssuedTokens, pair.Wrapped); err != nil {
		return nil, err
	}
	if s.ToBeIssuedTokens, err = currency.FromBig(rec.ToBeIssuedTokens, pair.Wrapped); err != nil {
		return nil, err
	}
	if s.ToBeRedeemedTokens, err = currency.FromBig(rec.ToBeRedeemedTokens, pair.Wrapped); err != nil {
		return nil, err
	}
	if s.Collateral, err = currency.FromBig(rec.Collateral, pair.Collateral); err != nil {
		return nil, err
	}
	return s, nil
}
