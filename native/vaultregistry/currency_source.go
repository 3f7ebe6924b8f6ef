package vaultregistry

import (
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

// SourceKind enumerates the roles collateral can be held in.
type SourceKind uint8

const (
	SourceCollateral SourceKind = iota + 1
	SourceUserGriefing
	SourceFreeBalance
	SourceLiquidatedCollateral
	SourceLiquidationVault
)

func (k SourceKind) String() string {
	switch k {
	case SourceCollateral:
		return "collateral"
	case SourceUserGriefing:
		return "user_griefing"
	case SourceFreeBalance:
		return "free_balance"
	case SourceLiquidatedCollateral:
		return "liquidated_collateral"
	case SourceLiquidationVault:
		return "liquidation_vault"
	default:
		return "unknown"
	}
}

// CurrencySource names where funds sit. Build values with the constructors
// below; the zero value is invalid.
type CurrencySource struct {
	kind    SourceKind
	vault   types.VaultID
	account types.AccountID
	pair    types.CurrencyPair
}

// Collateral is the backing collateral of a vault.
func Collateral(id types.VaultID) CurrencySource {
	return CurrencySource{kind: SourceCollateral, vault: id}
}

// UserGriefing is griefing collateral reserved on a user account.
func UserGriefing(acct types.AccountID) CurrencySource {
	return CurrencySource{kind: SourceUserGriefing, account: acct}
}

// FreeBalance is the unreserved balance of an account.
func FreeBalance(acct types.AccountID) CurrencySource {
	return CurrencySource{kind: SourceFreeBalance, account: acct}
}

// LiquidatedCollateral is collateral segregated at liquidation for pending
// redeems.
func LiquidatedCollateral(id types.VaultID) CurrencySource {
	return CurrencySource{kind: SourceLiquidatedCollateral, vault: id}
}

// LiquidationVault is the collateral of a pair's system vault.
func LiquidationVault(pair types.CurrencyPair) CurrencySource {
	return CurrencySource{kind: SourceLiquidationVault, pair: pair}
}

func (s CurrencySource) Kind() SourceKind { return s.kind }

func (s CurrencySource) String() string {
	switch s.kind {
	case SourceCollateral, SourceLiquidatedCollateral:
		return s.kind.String() + "(" + s.vault.String() + ")"
	case SourceUserGriefing, SourceFreeBalance:
		return s.kind.String() + "(" + s.account.String() + ")"
	case SourceLiquidationVault:
		return s.kind.String() + "(" + s.pair.String() + ")"
	default:
		return "unknown"
	}
}

// locked reports whether funds in this role sit in the reserved balance.
func (s CurrencySource) locked() bool {
	switch s.kind {
	case SourceCollateral, SourceUserGriefing, SourceLiquidatedCollateral, SourceLiquidationVault:
		return true
	default:
		return false
	}
}

// AccountID resolves the account that owns funds in this role.
func (e *Engine) AccountID(s CurrencySource) (types.AccountID, error) {
	switch s.kind {
	case SourceCollateral, SourceLiquidatedCollateral:
		return s.vault.Account, nil
	case SourceUserGriefing, SourceFreeBalance:
		return s.account, nil
	case SourceLiquidationVault:
		return e.liquidationAccount, nil
	default:
		return types.AccountID{}, fmt.Errorf("%w: unknown currency source", ErrInvalidState)
	}
}

// checkCurrency enforces that vault-bound roles only ever hold the vault's
// collateral currency.
func (s CurrencySource) checkCurrency(id currency.ID) error {
	var want currency.ID
	switch s.kind {
	case SourceCollateral, SourceLiquidatedCollateral:
		want = s.vault.CollateralCurrency()
	case SourceLiquidationVault:
		want = s.pair.Collateral
	case SourceUserGriefing, SourceFreeBalance:
		return nil
	default:
		return fmt.Errorf("%w: unknown currency source", ErrInvalidState)
	}
	if id != want {
		return fmt.Errorf("%w: %s holds %s, got %s", ErrWrongCurrency, s, want, id)
	}
	return nil
}

// CurrentBalance returns the funds currently held in role s.
func (e *Engine) CurrentBalance(s CurrencySource, id currency.ID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	if err := s.checkCurrency(id); err != nil {
		return currency.Amount{}, err
	}
	switch s.kind {
	case SourceCollateral:
		return e.pool.TotalCollateral(s.vault)
	case SourceLiquidatedCollateral:
		v, err := e.loadVault(s.vault)
		if err != nil {
			return currency.Amount{}, err
		}
		return v.LiquidatedCollateral, nil
	case SourceLiquidationVault:
		sys, err := e.loadSystemVault(s.pair)
		if err != nil {
			return currency.Amount{}, err
		}
		return sys.Collateral, nil
	case SourceUserGriefing:
		return e.ledger.ReservedBalance(s.account, id)
	case SourceFreeBalance:
		return e.ledger.FreeBalance(s.account, id)
	default:
		return currency.Amount{}, fmt.Errorf("%w: unknown currency source", ErrInvalidState)
	}
}

// TransferFunds moves amount between two roles atomically.
func (e *Engine) TransferFunds(from, to CurrencySource, amount currency.Amount) error {
	return e.atomic("transfer_funds", func() error {
		return e.transferFunds(from, to, amount)
	})
}

// transferFunds is the only path by which collateral changes role. The real
// balance moves through the ledger; the pool and system vault bookkeeping
// follow. LiquidatedCollateral bookkeeping is left to the caller.
func (e *Engine) transferFunds(from, to CurrencySource, amount currency.Amount) error {
	if err := from.checkCurrency(amount.Currency()); err != nil {
		return err
	}
	if err := to.checkCurrency(amount.Currency()); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	fromAcct, err := e.AccountID(from)
	if err != nil {
		return err
	}
	toAcct, err := e.AccountID(to)
	if err != nil {
		return err
	}
	if err := e.ensureSourceCovers(from, fromAcct, amount); err != nil {
		return err
	}

	if from.locked() {
		if err := e.ledger.Unlock(fromAcct, amount); err != nil {
			return err
		}
	}
	if err := e.ledger.Transfer(fromAcct, toAcct, amount); err != nil {
		return err
	}
	if to.locked() {
		if err := e.ledger.Lock(toAcct, amount); err != nil {
			return err
		}
	}

	switch from.kind {
	case SourceCollateral:
		if err := e.pool.SlashCollateral(from.vault, amount); err != nil {
			return err
		}
		if err := e.decreaseTotalBacking(from.vault.Currencies, amount); err != nil {
			return err
		}
		if err := e.syncRewardStake(from.vault); err != nil {
			return err
		}
	case SourceLiquidationVault:
		if err := e.updateSystemVault(from.pair, func(s *SystemVault) error {
			return s.decreaseCollateral(amount)
		}); err != nil {
			return err
		}
	case SourceUserGriefing, SourceFreeBalance, SourceLiquidatedCollateral:
	}

	switch to.kind {
	case SourceCollateral:
		if err := e.pool.DepositCollateral(to.vault, to.vault.Account, amount); err != nil {
			return err
		}
		if err := e.increaseTotalBacking(to.vault.Currencies, amount); err != nil {
			return err
		}
		if err := e.syncRewardStake(to.vault); err != nil {
			return err
		}
	case SourceLiquidationVault:
		if err := e.updateSystemVault(to.pair, func(s *SystemVault) error {
			return s.increaseCollateral(amount)
		}); err != nil {
			return err
		}
	case SourceUserGriefing, SourceFreeBalance, SourceLiquidatedCollateral:
	}
	return nil
}

// ensureSourceCovers reports a registry error before any collaborator is
// touched when the source cannot pay.
func (e *Engine) ensureSourceCovers(from CurrencySource, acct types.AccountID, amount currency.Amount) error {
	var (
		have currency.Amount
		err  error
	)
	switch from.kind {
	case SourceCollateral, SourceLiquidationVault, SourceFreeBalance:
		have, err = e.CurrentBalance(from, amount.Currency())
	case SourceUserGriefing, SourceLiquidatedCollateral:
		have, err = e.ledger.ReservedBalance(acct, amount.Currency())
	default:
		return fmt.Errorf("%w: unknown currency source", ErrInvalidState)
	}
	if err != nil {
		return err
	}
	if have.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, moving %s", ErrInsufficientVaultBalance, from, have, amount)
	}
	return nil
}
