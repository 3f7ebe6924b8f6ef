package types

import (
	"fmt"
	"strings"

	"vaultchain/core/currency"
	"vaultchain/crypto"
)

// AccountID is the raw 20-byte account identifier.
type AccountID [crypto.AddressLength]byte

// ParseAccountID decodes a bech32 account string.
func ParseAccountID(s string) (AccountID, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(addr.Bytes()), nil
}

// ModuleAccount returns the protocol-controlled account of a module.
func ModuleAccount(name string) AccountID {
	return AccountID(crypto.ModuleAddress(name).Bytes())
}

func (a AccountID) String() string {
	addr, err := crypto.NewAddress(crypto.AccountPrefix, a[:])
	if err != nil {
		return fmt.Sprintf("%x", a[:])
	}
	return addr.String()
}

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// CurrencyPair couples the collateral currency with the wrapped currency it
// backs.
type CurrencyPair struct {
	Collateral currency.ID
	Wrapped    currency.ID
}

func (p CurrencyPair) String() string {
	return string(p.Collateral) + "/" + string(p.Wrapped)
}

// Normalize upper-cases both currencies.
func (p CurrencyPair) Normalize() CurrencyPair {
	return CurrencyPair{Collateral: p.Collateral.Normalize(), Wrapped: p.Wrapped.Normalize()}
}

func (p CurrencyPair) Validate() error {
	if !p.Collateral.Valid() || !p.Wrapped.Valid() {
		return fmt.Errorf("currency pair %q: both currencies required", p.String())
	}
	if p.Collateral == p.Wrapped {
		return fmt.Errorf("currency pair %q: collateral and wrapped must differ", p.String())
	}
	return nil
}

// VaultID identifies a vault: one account may own one vault per currency
// pair.
type VaultID struct {
	Account    AccountID
	Currencies CurrencyPair
}

func NewVaultID(account AccountID, collateral, wrapped currency.ID) VaultID {
	return VaultID{Account: account, Currencies: CurrencyPair{Collateral: collateral, Wrapped: wrapped}}
}

func (id VaultID) CollateralCurrency() currency.ID { return id.Currencies.Collateral }

func (id VaultID) WrappedCurrency() currency.ID { return id.Currencies.Wrapped }

func (id VaultID) String() string {
	return id.Account.String() + "/" + id.Currencies.String()
}

// Key returns a stable byte encoding suitable for storage keys.
func (id VaultID) Key() []byte {
	buf := make([]byte, 0, len(id.Account)+len(id.Currencies.Collateral)+len(id.Currencies.Wrapped)+2)
	buf = append(buf, id.Account[:]...)
	buf = append(buf, '/')
	buf = append(buf, string(id.Currencies.Collateral)...)
	buf = append(buf, '/')
	buf = append(buf, string(id.Currencies.Wrapped)...)
	return buf
}

// VaultIDFromKey reverses Key.
func VaultIDFromKey(key []byte) (VaultID, error) {
	if len(key) < len(AccountID{})+3 || key[len(AccountID{})] != '/' {
		return VaultID{}, fmt.Errorf("vault key: malformed")
	}
	var id VaultID
	copy(id.Account[:], key[:len(AccountID{})])
	parts := strings.SplitN(string(key[len(AccountID{})+1:]), "/", 2)
	if len(parts) != 2 {
		return VaultID{}, fmt.Errorf("vault key: malformed currencies")
	}
	id.Currencies = CurrencyPair{Collateral: currency.ID(parts[0]), Wrapped: currency.ID(parts[1])}
	return id, nil
}

// Stake is one nominator's contribution to a vault's collateral pool. The
// vault owner is a nominator of its own vault.
type Stake struct {
	Nominator AccountID
	Amount    currency.Amount
}
