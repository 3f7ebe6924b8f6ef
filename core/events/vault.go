package events

import (
	"strconv"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

const (
	TypeVaultRegistered            = "vault.registered"
	TypeVaultCollateralDeposited   = "vault.collateral_deposited"
	TypeVaultCollateralWithdrawn   = "vault.collateral_withdrawn"
	TypeVaultToBeIssuedIncreased   = "vault.to_be_issued.increased"
	TypeVaultToBeIssuedDecreased   = "vault.to_be_issued.decreased"
	TypeVaultTokensIssued          = "vault.tokens.issued"
	TypeVaultToBeRedeemedIncreased = "vault.to_be_redeemed.increased"
	TypeVaultToBeRedeemedDecreased = "vault.to_be_redeemed.decreased"
	TypeVaultTokensDecreased       = "vault.tokens.decreased"
	TypeVaultTokensRedeemed        = "vault.tokens.redeemed"
	TypeVaultTokensRedeemedPremium = "vault.tokens.redeemed_premium"
	TypeVaultRedeemLiquidated      = "vault.tokens.redeemed_liquidated_vault"
	TypeVaultRedeemLiquidation     = "vault.tokens.redeemed_liquidation"
	TypeVaultTokensReplaced        = "vault.tokens.replaced"
	TypeVaultLiquidated            = "vault.liquidated"
	TypeVaultBanned                = "vault.banned"
	TypeVaultAcceptNewIssues       = "vault.accept_new_issues"
	TypeVaultSecureThreshold       = "vault.secure_threshold"
	TypeVaultParamUpdated          = "vault.param_updated"
)

// VaultRegistered is emitted once per vault, after its first collateral lock.
type VaultRegistered struct {
	Vault      types.VaultID
	Collateral currency.Amount
}

func (VaultRegistered) EventType() string { return TypeVaultRegistered }

func (e VaultRegistered) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["collateral"] = e.Collateral.Value()
	return &types.Event{Type: TypeVaultRegistered, Attributes: attrs}
}

// VaultCollateral reports a collateral deposit or withdrawal together with the
// vault's resulting total.
type VaultCollateral struct {
	Withdrawal bool
	Vault      types.VaultID
	Amount     currency.Amount
	Total      currency.Amount
}

func (e VaultCollateral) EventType() string {
	if e.Withdrawal {
		return TypeVaultCollateralWithdrawn
	}
	return TypeVaultCollateralDeposited
}

func (e VaultCollateral) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["amount"] = e.Amount.Value()
	attrs["total"] = e.Total.Value()
	return &types.Event{Type: e.EventType(), Attributes: attrs}
}

// VaultTokens covers the plain token-counter transitions. Type is one of the
// TypeVault*Increased/Decreased/Issued constants.
type VaultTokens struct {
	Type   string
	Vault  types.VaultID
	Amount currency.Amount
}

func (e VaultTokens) EventType() string { return e.Type }

func (e VaultTokens) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["amount"] = e.Amount.Value()
	return &types.Event{Type: e.Type, Attributes: attrs}
}

// VaultTokensRedeemed is emitted when a redeem executes against a vault.
// Premium is zero for plain redeems; Released is only set for liquidated
// vaults.
type VaultTokensRedeemed struct {
	Vault      types.VaultID
	Redeemer   types.AccountID
	Tokens     currency.Amount
	Premium    currency.Amount
	Released   currency.Amount
	Liquidated bool
}

func (e VaultTokensRedeemed) EventType() string {
	switch {
	case e.Liquidated:
		return TypeVaultRedeemLiquidated
	case !e.Premium.IsZero():
		return TypeVaultTokensRedeemedPremium
	default:
		return TypeVaultTokensRedeemed
	}
}

func (e VaultTokensRedeemed) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["redeemer"] = e.Redeemer.String()
	attrs["tokens"] = e.Tokens.Value()
	attrs["premium"] = e.Premium.Value()
	attrs["released"] = e.Released.Value()
	return &types.Event{Type: e.EventType(), Attributes: attrs}
}

// LiquidationRedeemed is emitted when a user burns tokens against the
// liquidation vault of a pair.
type LiquidationRedeemed struct {
	Pair       types.CurrencyPair
	Redeemer   types.AccountID
	Burned     currency.Amount
	Collateral currency.Amount
}

func (LiquidationRedeemed) EventType() string { return TypeVaultRedeemLiquidation }

func (e LiquidationRedeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultRedeemLiquidation,
		Attributes: map[string]string{
			"collateralCurrency": string(e.Pair.Collateral),
			"wrappedCurrency":    string(e.Pair.Wrapped),
			"redeemer":           e.Redeemer.String(),
			"burned":             e.Burned.Value(),
			"collateral":         e.Collateral.Value(),
		},
	}
}

// TokensReplaced moves issued tokens from one vault to another.
type TokensReplaced struct {
	OldVault   types.VaultID
	NewVault   types.VaultID
	Tokens     currency.Amount
	Collateral currency.Amount
}

func (TokensReplaced) EventType() string { return TypeVaultTokensReplaced }

func (e TokensReplaced) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultTokensReplaced,
		Attributes: map[string]string{
			"oldVault":   e.OldVault.String(),
			"newVault":   e.NewVault.String(),
			"tokens":     e.Tokens.Value(),
			"collateral": e.Collateral.Value(),
		},
	}
}

// VaultLiquidated captures the full outcome of a liquidation.
type VaultLiquidated struct {
	Vault                types.VaultID
	IssuedTokens         currency.Amount
	ToBeIssuedTokens     currency.Amount
	ToBeRedeemedTokens   currency.Amount
	Collateral           currency.Amount
	LiquidatedCollateral currency.Amount
	ToLiquidationVault   currency.Amount
}

func (VaultLiquidated) EventType() string { return TypeVaultLiquidated }

func (e VaultLiquidated) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["issuedTokens"] = e.IssuedTokens.Value()
	attrs["toBeIssuedTokens"] = e.ToBeIssuedTokens.Value()
	attrs["toBeRedeemedTokens"] = e.ToBeRedeemedTokens.Value()
	attrs["collateral"] = e.Collateral.Value()
	attrs["liquidatedCollateral"] = e.LiquidatedCollateral.Value()
	attrs["toLiquidationVault"] = e.ToLiquidationVault.Value()
	return &types.Event{Type: TypeVaultLiquidated, Attributes: attrs}
}

type VaultBanned struct {
	Vault       types.VaultID
	BannedUntil uint64
}

func (VaultBanned) EventType() string { return TypeVaultBanned }

func (e VaultBanned) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["bannedUntil"] = strconv.FormatUint(e.BannedUntil, 10)
	return &types.Event{Type: TypeVaultBanned, Attributes: attrs}
}

type VaultAcceptNewIssues struct {
	Vault  types.VaultID
	Accept bool
}

func (VaultAcceptNewIssues) EventType() string { return TypeVaultAcceptNewIssues }

func (e VaultAcceptNewIssues) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["accept"] = strconv.FormatBool(e.Accept)
	return &types.Event{Type: TypeVaultAcceptNewIssues, Attributes: attrs}
}

// VaultSecureThreshold reports a custom threshold change. A zero threshold
// means the override was cleared.
type VaultSecureThreshold struct {
	Vault     types.VaultID
	Threshold currency.Ratio
}

func (VaultSecureThreshold) EventType() string { return TypeVaultSecureThreshold }

func (e VaultSecureThreshold) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	if e.Threshold.IsZero() {
		attrs["threshold"] = ""
	} else {
		attrs["threshold"] = e.Threshold.String()
	}
	return &types.Event{Type: TypeVaultSecureThreshold, Attributes: attrs}
}

// ParamUpdated reports a governance parameter write. Pair is empty for
// global parameters.
type ParamUpdated struct {
	Name  string
	Pair  types.CurrencyPair
	Value string
}

func (ParamUpdated) EventType() string { return TypeVaultParamUpdated }

func (e ParamUpdated) Event() *types.Event {
	attrs := map[string]string{
		"name":  e.Name,
		"value": e.Value,
	}
	if e.Pair.Collateral != "" {
		attrs["collateralCurrency"] = string(e.Pair.Collateral)
		attrs["wrappedCurrency"] = string(e.Pair.Wrapped)
	}
	return &types.Event{Type: TypeVaultParamUpdated, Attributes: attrs}
}

func vaultAttributes(id types.VaultID) map[string]string {
	return map[string]string{
		"account":            id.Account.String(),
		"collateralCurrency": string(id.Currencies.Collateral),
		"wrappedCurrency":    string(id.Currencies.Wrapped),
	}
}
