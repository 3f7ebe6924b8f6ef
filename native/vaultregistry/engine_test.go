package vaultregistry

import (
	"errors"
	"testing"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/state"
	"vaultchain/core/types"
	"vaultchain/native/bank"
	nativecommon "vaultchain/native/common"
	"vaultchain/native/oracle"
	"vaultchain/native/staking"
	"vaultchain/storage"
)

var testPair = types.CurrencyPair{Collateral: "DOT", Wrapped: "KBTC"}

func dot(v uint64) currency.Amount  { return currency.New(v, "DOT") }
func kbtc(v uint64) currency.Amount { return currency.New(v, "KBTC") }

func ratio(t *testing.T, s string) currency.Ratio {
	t.Helper()
	r, err := currency.ParseRatio(s)
	if err != nil {
		t.Fatalf("parse ratio %q: %v", s, err)
	}
	return r
}

func newTestAccount(fill byte) types.AccountID {
	var acct types.AccountID
	for i := range acct {
		acct[i] = fill
	}
	return acct
}

type fixture struct {
	t       *testing.T
	state   *state.Manager
	ledger  *bank.Ledger
	feed    *oracle.Feed
	pool    *staking.Manager
	engine  *Engine
	events  *events.Recorder
	owner   types.AccountID
	vaultID types.VaultID
}

// newFixture wires an engine over in-memory state with 1:1 rates and
// thresholds secure=2.0, auction=1.5, premium=1.35, liquidation=1.1.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	feed := oracle.NewFeed(st)
	f := &fixture{
		t:      t,
		state:  st,
		ledger: bank.NewLedger(st),
		feed:   feed,
		pool:   staking.NewManager(st),
		events: events.NewRecorder(0),
		owner:  newTestAccount(0x01),
	}
	f.setRate("DOT", "1")
	f.setRate("KBTC", "1")
	f.engine = NewEngine(st, feed, f.ledger, f.pool)
	f.engine.SetEmitter(f.events)
	f.vaultID = types.NewVaultID(f.owner, "DOT", "KBTC")
	if err := f.engine.SetPairParams(testPair, PairParams{
		MinimumCollateral:       dot(50),
		SystemCollateralCeiling: dot(0),
		SecureThreshold:         ratio(t, "2"),
		AuctionThreshold:        ratio(t, "1.5"),
		PremiumRedeemThreshold:  ratio(t, "1.35"),
		LiquidationThreshold:    ratio(t, "1.1"),
	}); err != nil {
		t.Fatalf("set pair params: %v", err)
	}
	f.mint(f.owner, dot(1000))
	return f
}

func (f *fixture) setRate(id currency.ID, rate string) {
	f.t.Helper()
	if err := f.feed.SetDecimal(id, rate); err != nil {
		f.t.Fatalf("set rate %s: %v", id, err)
	}
}

func (f *fixture) mint(acct types.AccountID, amount currency.Amount) {
	f.t.Helper()
	if err := f.ledger.Mint(acct, amount); err != nil {
		f.t.Fatalf("mint: %v", err)
	}
}

func (f *fixture) register(id types.VaultID, collateral currency.Amount) {
	f.t.Helper()
	if err := f.engine.RegisterVault(id, collateral); err != nil {
		f.t.Fatalf("register %s: %v", id, err)
	}
}

// issue runs a full issue of tokens against id.
func (f *fixture) issue(id types.VaultID, tokens currency.Amount) {
	f.t.Helper()
	if err := f.engine.TryIncreaseToBeIssuedTokens(id, tokens); err != nil {
		f.t.Fatalf("request issue: %v", err)
	}
	if err := f.engine.IssueTokens(id, tokens); err != nil {
		f.t.Fatalf("execute issue: %v", err)
	}
}

func (f *fixture) vault(id types.VaultID) *Vault {
	f.t.Helper()
	v, err := f.engine.GetVault(id)
	if err != nil {
		f.t.Fatalf("get vault: %v", err)
	}
	return v
}

func (f *fixture) system() *SystemVault {
	f.t.Helper()
	s, err := f.engine.GetSystemVault(testPair)
	if err != nil {
		f.t.Fatalf("get system vault: %v", err)
	}
	return s
}

func (f *fixture) requireBalance(acct types.AccountID, wantFree, wantReserved uint64) {
	f.t.Helper()
	free, err := f.ledger.FreeBalance(acct, "DOT")
	if err != nil {
		f.t.Fatalf("free balance: %v", err)
	}
	reserved, err := f.ledger.ReservedBalance(acct, "DOT")
	if err != nil {
		f.t.Fatalf("reserved balance: %v", err)
	}
	if free.Cmp(dot(wantFree)) != 0 || reserved.Cmp(dot(wantReserved)) != 0 {
		f.t.Fatalf("balance of %s: free %s reserved %s, want %d/%d", acct, free, reserved, wantFree, wantReserved)
	}
}

func requireAmount(t *testing.T, label string, got, want currency.Amount) {
	t.Helper()
	if got.Cmp(want) != 0 || got.Currency() != want.Currency() {
		t.Fatalf("%s: got %s want %s", label, got, want)
	}
}

func TestRegisterVaultLocksCollateral(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))

	f.requireBalance(f.owner, 700, 300)
	total, err := f.engine.TotalCollateral(f.vaultID)
	if err != nil {
		t.Fatalf("total collateral: %v", err)
	}
	requireAmount(t, "total collateral", total, dot(300))
	backing, err := f.engine.TotalUserVaultCollateral(testPair)
	if err != nil {
		t.Fatalf("total backing: %v", err)
	}
	requireAmount(t, "total backing", backing, dot(300))
	stake, err := f.pool.RewardStake(f.vaultID)
	if err != nil {
		t.Fatalf("reward stake: %v", err)
	}
	requireAmount(t, "reward stake", stake, dot(300))

	v := f.vault(f.vaultID)
	if v.Status != StatusActive || !v.AcceptNewIssues {
		t.Fatalf("unexpected vault state %+v", v)
	}
	ids, err := f.engine.Vaults()
	if err != nil || len(ids) != 1 || ids[0] != f.vaultID {
		t.Fatalf("vault index: %v %v", ids, err)
	}
	if got := f.events.Types(); len(got) != 2 || got[1] != events.TypeVaultRegistered {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestRegisterVaultRejections(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.RegisterVault(f.vaultID, dot(49)); !errors.Is(err, ErrInsufficientCollateral) || !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient collateral, got %v", err)
	}
	if err := f.engine.RegisterVault(f.vaultID, kbtc(100)); !errors.Is(err, ErrWrongCurrency) {
		t.Fatalf("expected wrong currency, got %v", err)
	}
	unset := types.NewVaultID(f.owner, "KSM", "KBTC")
	if err := f.engine.RegisterVault(unset, currency.New(100, "KSM")); !errors.Is(err, ErrThresholdNotSet) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected threshold not set, got %v", err)
	}
	f.register(f.vaultID, dot(100))
	if err := f.engine.RegisterVault(f.vaultID, dot(100)); !errors.Is(err, ErrVaultAlreadyRegistered) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected already registered, got %v", err)
	}
}

func TestRegisterVaultRevertsOnFailure(t *testing.T) {
	f := newFixture(t)
	poor := types.NewVaultID(newTestAccount(0x02), "DOT", "KBTC")
	f.mint(poor.Account, dot(10))
	before := len(f.events.Events())

	err := f.engine.RegisterVault(poor, dot(100))
	if !errors.Is(err, ErrInsufficientVaultBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, err := f.engine.GetVault(poor); !errors.Is(err, ErrVaultNotFound) {
		t.Fatalf("vault record survived a failed registration: %v", err)
	}
	ids, err := f.engine.Vaults()
	if err != nil || len(ids) != 0 {
		t.Fatalf("vault index survived a failed registration: %v %v", ids, err)
	}
	if got := len(f.events.Events()); got != before {
		t.Fatalf("failed call emitted %d events", got-before)
	}
	f.requireBalance(poor.Account, 10, 0)
}

func TestSystemCollateralCeiling(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetSystemCollateralCeiling(testPair, dot(500)); err != nil {
		t.Fatalf("set ceiling: %v", err)
	}
	f.register(f.vaultID, dot(400))

	other := types.NewVaultID(newTestAccount(0x02), "DOT", "KBTC")
	f.mint(other.Account, dot(1000))
	if err := f.engine.RegisterVault(other, dot(200)); !errors.Is(err, ErrCurrencyCeilingExceeded) {
		t.Fatalf("expected ceiling exceeded, got %v", err)
	}
	if _, err := f.engine.GetVault(other); !errors.Is(err, ErrVaultNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
	if err := f.engine.DepositCollateral(f.vaultID, dot(100)); err != nil {
		t.Fatalf("deposit up to ceiling: %v", err)
	}
	if err := f.engine.DepositCollateral(f.vaultID, dot(1)); !errors.Is(err, ErrCurrencyCeilingExceeded) {
		t.Fatalf("expected ceiling exceeded, got %v", err)
	}
	f.requireBalance(f.owner, 500, 500)
}

func TestIssuableTokensScenario(t *testing.T) {
	f := newFixture(t)
	f.setRate("DOT", "0.02")
	if err := f.engine.SetPairParams(testPair, PairParams{
		MinimumCollateral:       dot(100),
		SystemCollateralCeiling: dot(0),
		SecureThreshold:         ratio(t, "1.5"),
		AuctionThreshold:        ratio(t, "1.3"),
		PremiumRedeemThreshold:  ratio(t, "1.2"),
		LiquidationThreshold:    ratio(t, "1.1"),
	}); err != nil {
		t.Fatalf("set params: %v", err)
	}
	f.register(f.vaultID, dot(1000))

	issuable, err := f.engine.IssuableTokens(f.vaultID)
	if err != nil {
		t.Fatalf("issuable: %v", err)
	}
	requireAmount(t, "issuable", issuable, kbtc(33333))

	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, kbtc(33334)); !errors.Is(err, ErrExceedingVaultLimit) || !errors.Is(err, ErrThresholdViolation) {
		t.Fatalf("expected exceeding vault limit, got %v", err)
	}
	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, kbtc(33333)); err != nil {
		t.Fatalf("request issue: %v", err)
	}
	// 33333 KBTC needs 999 DOT at 150%, leaving 1 DOT worth 33 KBTC.
	issuable, err = f.engine.IssuableTokens(f.vaultID)
	if err != nil {
		t.Fatalf("issuable: %v", err)
	}
	requireAmount(t, "issuable after request", issuable, kbtc(33))
}

func TestTokenLifecycle(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))

	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, kbtc(100)); err != nil {
		t.Fatalf("request issue: %v", err)
	}
	if err := f.engine.DecreaseToBeIssuedTokens(f.vaultID, kbtc(30)); err != nil {
		t.Fatalf("cancel issue: %v", err)
	}
	if err := f.engine.IssueTokens(f.vaultID, kbtc(70)); err != nil {
		t.Fatalf("execute issue: %v", err)
	}
	v := f.vault(f.vaultID)
	requireAmount(t, "issued", v.IssuedTokens, kbtc(70))
	requireAmount(t, "to be issued", v.ToBeIssuedTokens, kbtc(0))

	if err := f.engine.TryIncreaseToBeRedeemedTokens(f.vaultID, kbtc(71)); !errors.Is(err, ErrInsufficientTokensCommitted) {
		t.Fatalf("expected insufficient tokens committed, got %v", err)
	}
	if err := f.engine.TryIncreaseToBeRedeemedTokens(f.vaultID, kbtc(50)); err != nil {
		t.Fatalf("request redeem: %v", err)
	}
	redeemable, err := f.engine.RedeemableTokens(f.vaultID)
	if err != nil {
		t.Fatalf("redeemable: %v", err)
	}
	requireAmount(t, "redeemable", redeemable, kbtc(20))
	if err := f.engine.DecreaseToBeRedeemedTokens(f.vaultID, kbtc(10)); err != nil {
		t.Fatalf("cancel redeem: %v", err)
	}
	if err := f.engine.RedeemTokens(f.vaultID, kbtc(40), dot(0), newTestAccount(0x09)); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	v = f.vault(f.vaultID)
	requireAmount(t, "issued", v.IssuedTokens, kbtc(30))
	requireAmount(t, "to be redeemed", v.ToBeRedeemedTokens, kbtc(0))

	want := []string{
		events.TypeVaultParamUpdated,
		events.TypeVaultRegistered,
		events.TypeVaultToBeIssuedIncreased,
		events.TypeVaultToBeIssuedDecreased,
		events.TypeVaultTokensIssued,
		events.TypeVaultToBeRedeemedIncreased,
		events.TypeVaultToBeRedeemedDecreased,
		events.TypeVaultTokensRedeemed,
	}
	got := f.events.Types()
	if len(got) != len(want) {
		t.Fatalf("events: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestDecreaseNeverClamps(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))
	f.issue(f.vaultID, kbtc(10))

	cases := []struct {
		name string
		run  func() error
	}{
		{"to be issued", func() error { return f.engine.DecreaseToBeIssuedTokens(f.vaultID, kbtc(1)) }},
		{"to be redeemed", func() error { return f.engine.DecreaseToBeRedeemedTokens(f.vaultID, kbtc(1)) }},
		{"issue without reservation", func() error { return f.engine.IssueTokens(f.vaultID, kbtc(1)) }},
		{"decrease tokens", func() error { return f.engine.DecreaseTokens(f.vaultID, f.owner, kbtc(1)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !errors.Is(err, ErrInsufficientTokensCommitted) || !errors.Is(err, ErrArithmeticUnderflow) {
				t.Fatalf("expected committed-tokens underflow, got %v", err)
			}
		})
	}
	v := f.vault(f.vaultID)
	requireAmount(t, "issued", v.IssuedTokens, kbtc(10))
}

func TestWrongTokenCurrency(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))
	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, dot(1)); !errors.Is(err, ErrWrongCurrency) {
		t.Fatalf("expected wrong currency, got %v", err)
	}
}

func TestWithdrawCollateralRespectsSecureThreshold(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))
	f.issue(f.vaultID, kbtc(100))

	if err := f.engine.WithdrawCollateral(f.vaultID, dot(150)); !errors.Is(err, ErrExceedsThreshold) || !errors.Is(err, ErrThresholdViolation) {
		t.Fatalf("expected exceeds threshold, got %v", err)
	}
	if err := f.engine.WithdrawCollateral(f.vaultID, dot(100)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	f.requireBalance(f.owner, 800, 200)
	free, err := f.engine.FreeCollateral(f.vaultID)
	if err != nil {
		t.Fatalf("free collateral: %v", err)
	}
	if !free.IsZero() {
		t.Fatalf("expected no free collateral, got %s", free)
	}
	if err := f.engine.WithdrawCollateral(f.vaultID, dot(1000)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestWithdrawCollateralMinimum(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(100))
	if err := f.engine.WithdrawCollateral(f.vaultID, dot(60)); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected insufficient collateral, got %v", err)
	}
	if err := f.engine.WithdrawCollateral(f.vaultID, dot(100)); err != nil {
		t.Fatalf("full withdrawal: %v", err)
	}
	f.requireBalance(f.owner, 1000, 0)
	if err := f.engine.WithdrawCollateral(types.NewVaultID(newTestAccount(0x07), "DOT", "KBTC"), dot(1)); !errors.Is(err, ErrVaultNotFound) {
		t.Fatalf("expected vault not found, got %v", err)
	}
}

func TestAcceptNewIssues(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))
	if err := f.engine.AcceptNewIssues(f.vaultID, false); err != nil {
		t.Fatalf("accept new issues: %v", err)
	}
	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, kbtc(1)); !errors.Is(err, ErrVaultNotAcceptingIssues) {
		t.Fatalf("expected not accepting issues, got %v", err)
	}
	if err := f.engine.AcceptNewIssues(f.vaultID, true); err != nil {
		t.Fatalf("accept new issues: %v", err)
	}
	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, kbtc(1)); err != nil {
		t.Fatalf("request issue: %v", err)
	}
}

func TestCustomSecureThreshold(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))

	low := ratio(t, "1.8")
	if err := f.engine.SetCustomSecureThreshold(f.vaultID, &low); !errors.Is(err, ErrThresholdNotAboveGlobal) {
		t.Fatalf("expected threshold not above global, got %v", err)
	}
	high := ratio(t, "3")
	if err := f.engine.SetCustomSecureThreshold(f.vaultID, &high); err != nil {
		t.Fatalf("set custom threshold: %v", err)
	}
	issuable, err := f.engine.IssuableTokens(f.vaultID)
	if err != nil {
		t.Fatalf("issuable: %v", err)
	}
	requireAmount(t, "issuable with custom threshold", issuable, kbtc(100))

	if err := f.engine.SetCustomSecureThreshold(f.vaultID, nil); err != nil {
		t.Fatalf("clear custom threshold: %v", err)
	}
	issuable, err = f.engine.IssuableTokens(f.vaultID)
	if err != nil {
		t.Fatalf("issuable: %v", err)
	}
	requireAmount(t, "issuable with global threshold", issuable, kbtc(150))
}

func TestBanIsMonotonic(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))
	if err := f.engine.SetPunishmentDelay(10); err != nil {
		t.Fatalf("set delay: %v", err)
	}
	f.engine.SetBlockHeight(5)
	if err := f.engine.BanVault(f.vaultID); err != nil {
		t.Fatalf("ban: %v", err)
	}
	f.engine.SetBlockHeight(2)
	if err := f.engine.BanVault(f.vaultID); err != nil {
		t.Fatalf("second ban: %v", err)
	}
	v := f.vault(f.vaultID)
	if v.BannedUntil == nil || *v.BannedUntil != 15 {
		t.Fatalf("expected ban until 15, got %v", v.BannedUntil)
	}

	for _, height := range []uint64{0, 5, 15} {
		f.engine.SetBlockHeight(height)
		if err := f.engine.EnsureNotBanned(f.vaultID); !errors.Is(err, ErrBanned) {
			t.Fatalf("height %d: expected banned, got %v", height, err)
		}
	}
	f.engine.SetBlockHeight(15)
	issuable, err := f.engine.IssuableTokens(f.vaultID)
	if err != nil || !issuable.IsZero() {
		t.Fatalf("banned vault issuable %s %v", issuable, err)
	}
	if err := f.engine.TryIncreaseToBeIssuedTokens(f.vaultID, kbtc(1)); !errors.Is(err, ErrVaultBanned) {
		t.Fatalf("expected banned, got %v", err)
	}
	f.engine.SetBlockHeight(16)
	if err := f.engine.EnsureNotBanned(f.vaultID); err != nil {
		t.Fatalf("ban should have expired: %v", err)
	}
}

func TestRedeemWithPremium(t *testing.T) {
	f := newFixture(t)
	redeemer := newTestAccount(0x09)
	f.register(f.vaultID, dot(300))
	f.issue(f.vaultID, kbtc(100))
	if err := f.engine.TryIncreaseToBeRedeemedTokens(f.vaultID, kbtc(40)); err != nil {
		t.Fatalf("request redeem: %v", err)
	}
	if err := f.engine.RedeemTokens(f.vaultID, kbtc(40), dot(5), redeemer); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	f.requireBalance(redeemer, 5, 0)
	f.requireBalance(f.owner, 700, 295)
	total, err := f.engine.TotalCollateral(f.vaultID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	requireAmount(t, "total collateral", total, dot(295))
	backing, err := f.engine.TotalUserVaultCollateral(testPair)
	if err != nil {
		t.Fatalf("backing: %v", err)
	}
	requireAmount(t, "total backing", backing, dot(295))
	got := f.events.Types()
	if got[len(got)-1] != events.TypeVaultTokensRedeemedPremium {
		t.Fatalf("expected premium redeem event, got %v", got)
	}
}

func TestThresholdPredicates(t *testing.T) {
	f := newFixture(t)
	f.register(f.vaultID, dot(300))
	f.issue(f.vaultID, kbtc(100))

	check := func(label string, wantSecure, wantAuction, wantPremium, wantLiquidation bool) {
		t.Helper()
		preds := []struct {
			name string
			fn   func(types.VaultID) (bool, error)
			want bool
		}{
			{"secure", f.engine.IsVaultBelowSecureThreshold, wantSecure},
			{"auction", f.engine.IsVaultBelowAuctionThreshold, wantAuction},
			{"premium", f.engine.IsVaultBelowPremiumThreshold, wantPremium},
			{"liquidation", f.engine.IsVaultBelowLiquidationThreshold, wantLiquidation},
		}
		for _, p := range preds {
			got, err := p.fn(f.vaultID)
			if err != nil {
				t.Fatalf("%s %s: %v", label, p.name, err)
			}
			if got != p.want {
				t.Fatalf("%s: below %s = %v, want %v", label, p.name, got, p.want)
			}
		}
	}

	check("healthy", false, false, false, false)
	f.setRate("DOT", "2")
	check("below secure", true, false, false, false)
	f.setRate("DOT", "3")
	check("below all", true, true, true, true)
}

func TestThresholdOrderingEnforced(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetLiquidationCollateralThreshold(testPair, ratio(t, "1.4")); !errors.Is(err, ErrInvalidThresholdOrder) {
		t.Fatalf("expected invalid order, got %v", err)
	}
	if err := f.engine.SetSecureCollateralThreshold(testPair, ratio(t, "1.3")); !errors.Is(err, ErrInvalidThresholdOrder) {
		t.Fatalf("expected invalid order, got %v", err)
	}
	if err := f.engine.SetPremiumRedeemThreshold(testPair, ratio(t, "1")); !errors.Is(err, ErrInvalidThresholdOrder) {
		t.Fatalf("expected threshold above 1.0, got %v", err)
	}
	if err := f.engine.SetAuctionCollateralThreshold(testPair, ratio(t, "1.8")); err != nil {
		t.Fatalf("set auction: %v", err)
	}
	params, err := f.engine.Params().Pair(testPair)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.AuctionThreshold != ratio(t, "1.8") || params.LiquidationThreshold != ratio(t, "1.1") {
		t.Fatalf("unexpected params %+v", params)
	}
}

type pauseStub map[string]bool

func (p pauseStub) IsPaused(module string) bool { return p[module] }

func TestPausedRegistryRefusesUserCalls(t *testing.T) {
	f := newFixture(t)
	f.engine.SetPauses(pauseStub{moduleName: true})
	if err := f.engine.RegisterVault(f.vaultID, dot(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	f.engine.SetPauses(pauseStub{})
	f.register(f.vaultID, dot(100))
}

func TestNilCollaborators(t *testing.T) {
	engine := NewEngine(state.NewManager(storage.NewMemDB()), nil, nil, nil)
	if err := engine.RegisterVault(types.NewVaultID(newTestAccount(1), "DOT", "KBTC"), dot(1)); !errors.Is(err, errNilCollaborator) {
		t.Fatalf("expected nil collaborator error, got %v", err)
	}
}
