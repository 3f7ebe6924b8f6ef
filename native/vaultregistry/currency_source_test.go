package vaultregistry

import (
	"errors"
	"testing"

	"vaultchain/core/types"
)

func TestCurrencySourceAccounts(t *testing.T) {
	f := newFixture(t)
	user := newTestAccount(0x04)
	cases := []struct {
		src  CurrencySource
		want types.AccountID
	}{
		{Collateral(f.vaultID), f.owner},
		{LiquidatedCollateral(f.vaultID), f.owner},
		{UserGriefing(user), user},
		{FreeBalance(user), user},
		{LiquidationVault(testPair), f.engine.LiquidationAccount()},
	}
	for _, tc := range cases {
		got, err := f.engine.AccountID(tc.src)
		if err != nil {
			t.Fatalf("%s: %v", tc.src, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %s", tc.src, got)
		}
	}
	if _, err := f.engine.AccountID(CurrencySource{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state for zero source, got %v", err)
	}
	if f.engine.LiquidationAccount() == f.owner || f.engine.LiquidationAccount().IsZero() {
		t.Fatalf("liquidation account must be a distinct module account")
	}
}

func TestTransferGriefingCollateral(t *testing.T) {
	f := newFixture(t)
	user := newTestAccount(0x04)
	f.mint(user, dot(20))
	if err := f.engine.TransferFunds(FreeBalance(user), UserGriefing(user), dot(15)); err != nil {
		t.Fatalf("lock griefing: %v", err)
	}
	f.requireBalance(user, 5, 15)

	griefing, err := f.engine.CurrentBalance(UserGriefing(user), "DOT")
	if err != nil {
		t.Fatalf("griefing balance: %v", err)
	}
	requireAmount(t, "griefing", griefing, dot(15))

	// slash griefing collateral to the vault owner's free balance
	if err := f.engine.TransferFunds(UserGriefing(user), FreeBalance(f.owner), dot(10)); err != nil {
		t.Fatalf("slash griefing: %v", err)
	}
	f.requireBalance(user, 5, 5)
	f.requireBalance(f.owner, 1010, 0)

	if err := f.engine.TransferFunds(UserGriefing(user), FreeBalance(f.owner), dot(6)); !errors.Is(err, ErrInsufficientVaultBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	f.requireBalance(user, 5, 5)
}

func TestTransferIntoVaultCollateral(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(100))
	user := newTestAccount(0x04)
	f.mint(user, dot(20))

	if err := f.engine.TransferFunds(FreeBalance(user), Collateral(f.vaultID), dot(20)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	f.requireBalance(user, 0, 0)
	f.requireBalance(f.owner, 900, 120)
	balance, err := f.engine.CurrentBalance(Collateral(f.vaultID), "DOT")
	if err != nil {
		t.Fatalf("collateral balance: %v", err)
	}
	requireAmount(t, "collateral", balance, dot(120))
	backing, err := f.engine.TotalUserVaultCollateral(testPair)
	if err != nil {
		t.Fatalf("backing: %v", err)
	}
	requireAmount(t, "backing", backing, dot(120))
}

func TestTransferFundsRejectsWrongCurrency(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(100))
	if err := f.engine.TransferFunds(Collateral(f.vaultID), FreeBalance(f.owner), kbtc(1)); !errors.Is(err, ErrWrongCurrency) {
		t.Fatalf("expected wrong currency, got %v", err)
	}
	if _, err := f.engine.CurrentBalance(LiquidationVault(testPair), "KBTC"); !errors.Is(err, ErrWrongCurrency) {
		t.Fatalf("expected wrong currency, got %v", err)
	}
}
