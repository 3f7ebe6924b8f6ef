package events

import (
	"vaultchain/core/currency"
	"vaultchain/core/types"
)

const (
	TypeNominationOptIn      = "nomination.opt_in"
	TypeNominationOptOut     = "nomination.opt_out"
	TypeNominationDeposit    = "nomination.deposit"
	TypeNominationWithdrawal = "nomination.withdrawal"
)

type NominationOptIn struct {
	Vault types.VaultID
}

func (NominationOptIn) EventType() string { return TypeNominationOptIn }

func (e NominationOptIn) Event() *types.Event {
	return &types.Event{Type: TypeNominationOptIn, Attributes: vaultAttributes(e.Vault)}
}

// NominationOptOut lists how much collateral was returned to nominators.
type NominationOptOut struct {
	Vault    types.VaultID
	Refunded currency.Amount
}

func (NominationOptOut) EventType() string { return TypeNominationOptOut }

func (e NominationOptOut) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["refunded"] = e.Refunded.Value()
	return &types.Event{Type: TypeNominationOptOut, Attributes: attrs}
}

type NominationCollateral struct {
	Withdrawal bool
	Vault      types.VaultID
	Nominator  types.AccountID
	Amount     currency.Amount
}

func (e NominationCollateral) EventType() string {
	if e.Withdrawal {
		return TypeNominationWithdrawal
	}
	return TypeNominationDeposit
}

func (e NominationCollateral) Event() *types.Event {
	attrs := vaultAttributes(e.Vault)
	attrs["nominator"] = e.Nominator.String()
	attrs["amount"] = e.Amount.Value()
	return &types.Event{Type: e.EventType(), Attributes: attrs}
}
