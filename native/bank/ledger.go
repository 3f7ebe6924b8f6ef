package bank

import (
	"errors"
	"fmt"
	"math/big"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

var (
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrNilState            = errors.New("bank: state not configured")
)

type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

type balanceRecord struct {
	Free     *big.Int
	Reserved *big.Int
}

// Balance is the decoded free and reserved balance of one account in one
// currency.
type Balance struct {
	Free     currency.Amount
	Reserved currency.Amount
}

// Ledger keeps free and reserved balances per account and currency. Reserved
// funds cannot be transferred until they are unlocked.
type Ledger struct {
	state ledgerState
}

func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

func balanceKey(acct types.AccountID, id currency.ID) []byte {
	return []byte(fmt.Sprintf("bank/balance/%x/%s", acct[:], id))
}

func (l *Ledger) load(acct types.AccountID, id currency.ID) (Balance, error) {
	if l == nil || l.state == nil {
		return Balance{}, ErrNilState
	}
	var rec balanceRecord
	if _, err := l.state.KVGet(balanceKey(acct, id), &rec); err != nil {
		return Balance{}, err
	}
	free, err := currency.FromBig(rec.Free, id)
	if err != nil {
		return Balance{}, err
	}
	reserved, err := currency.FromBig(rec.Reserved, id)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Free: free, Reserved: reserved}, nil
}

func (l *Ledger) store(acct types.AccountID, id currency.ID, bal Balance) error {
	return l.state.KVPut(balanceKey(acct, id), balanceRecord{Free: bal.Free.Big(), Reserved: bal.Reserved.Big()})
}

// Balance returns both balances of acct in id.
func (l *Ledger) Balance(acct types.AccountID, id currency.ID) (Balance, error) {
	return l.load(acct, id)
}

func (l *Ledger) FreeBalance(acct types.AccountID, id currency.ID) (currency.Amount, error) {
	bal, err := l.load(acct, id)
	if err != nil {
		return currency.Amount{}, err
	}
	return bal.Free, nil
}

func (l *Ledger) ReservedBalance(acct types.AccountID, id currency.ID) (currency.Amount, error) {
	bal, err := l.load(acct, id)
	if err != nil {
		return currency.Amount{}, err
	}
	return bal.Reserved, nil
}

func (l *Ledger) update(acct types.AccountID, id currency.ID, fn func(*Balance) error) error {
	bal, err := l.load(acct, id)
	if err != nil {
		return err
	}
	if err := fn(&bal); err != nil {
		return err
	}
	return l.store(acct, id, bal)
}

func insufficient(have, want currency.Amount) error {
	return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, have, want)
}

// Mint credits free balance out of thin air. It backs genesis allocations and
// tests.
func (l *Ledger) Mint(acct types.AccountID, amount currency.Amount) error {
	return l.update(acct, amount.Currency(), func(bal *Balance) error {
		next, err := bal.Free.Add(amount)
		if err != nil {
			return err
		}
		bal.Free = next
		return nil
	})
}

// Burn destroys free balance.
func (l *Ledger) Burn(acct types.AccountID, amount currency.Amount) error {
	return l.update(acct, amount.Currency(), func(bal *Balance) error {
		if bal.Free.Lt(amount) {
			return insufficient(bal.Free, amount)
		}
		next, err := bal.Free.Sub(amount)
		if err != nil {
			return err
		}
		bal.Free = next
		return nil
	})
}

// Transfer moves free balance between accounts.
func (l *Ledger) Transfer(from, to types.AccountID, amount currency.Amount) error {
	if amount.IsZero() || from == to {
		return nil
	}
	if err := l.Burn(from, amount); err != nil {
		return err
	}
	return l.Mint(to, amount)
}

// Lock moves free balance of acct into its reserved balance.
func (l *Ledger) Lock(acct types.AccountID, amount currency.Amount) error {
	return l.update(acct, amount.Currency(), func(bal *Balance) error {
		if bal.Free.Lt(amount) {
			return insufficient(bal.Free, amount)
		}
		free, err := bal.Free.Sub(amount)
		if err != nil {
			return err
		}
		reserved, err := bal.Reserved.Add(amount)
		if err != nil {
			return err
		}
		bal.Free, bal.Reserved = free, reserved
		return nil
	})
}

// Unlock releases reserved balance of acct back to free.
func (l *Ledger) Unlock(acct types.AccountID, amount currency.Amount) error {
	return l.update(acct, amount.Currency(), func(bal *Balance) error {
		if bal.Reserved.Lt(amount) {
			return insufficient(bal.Reserved, amount)
		}
		reserved, err := bal.Reserved.Sub(amount)
		if err != nil {
			return err
		}
		free, err := bal.Free.Add(amount)
		if err != nil {
			return err
		}
		bal.Free, bal.Reserved = free, reserved
		return nil
	})
}
