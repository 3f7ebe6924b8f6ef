package types

import (
	"testing"

	"vaultchain/core/currency"
)

func TestVaultIDKeyRoundTrip(t *testing.T) {
	var acct AccountID
	for i := range acct {
		acct[i] = byte(i + 1)
	}
	id := NewVaultID(acct, "DOT", "KBTC")
	back, err := VaultIDFromKey(id.Key())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != id {
		t.Fatalf("round trip mismatch: %v vs %v", back, id)
	}
	if _, err := VaultIDFromKey([]byte("short")); err == nil {
		t.Fatalf("expected malformed key error")
	}
}

func TestAccountIDStringParses(t *testing.T) {
	var acct AccountID
	acct[19] = 7
	parsed, err := ParseAccountID(acct.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != acct {
		t.Fatalf("unexpected account %v", parsed)
	}
}

func TestCurrencyPairValidate(t *testing.T) {
	good := CurrencyPair{Collateral: "dot", Wrapped: "kbtc"}.Normalize()
	if good.Collateral != currency.ID("DOT") || good.Validate() != nil {
		t.Fatalf("unexpected normalised pair %v", good)
	}
	if (CurrencyPair{Collateral: "DOT", Wrapped: "DOT"}).Validate() == nil {
		t.Fatalf("expected identical currencies to be rejected")
	}
	if (CurrencyPair{Collateral: "DOT"}).Validate() == nil {
		t.Fatalf("expected missing wrapped currency to be rejected")
	}
}
