package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"vaultchain/core/currency"
	"vaultchain/core/state"
	"vaultchain/core/types"
	"vaultchain/gateway/middleware"
	"vaultchain/native/bank"
	"vaultchain/native/oracle"
	"vaultchain/native/staking"
	"vaultchain/native/vaultregistry"
	"vaultchain/storage"
)

type testEnv struct {
	handler  http.Handler
	registry *vaultregistry.Engine
	feed     *oracle.Feed
	obs      *middleware.Observability
	vault    types.VaultID
	commits  int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	feed := oracle.NewFeed(st)
	require.NoError(t, feed.SetDecimal("DOT", "1"))
	require.NoError(t, feed.SetDecimal("KBTC", "1"))
	ledger := bank.NewLedger(st)
	registry := vaultregistry.NewEngine(st, feed, ledger, staking.NewManager(st))
	pair := types.CurrencyPair{Collateral: "DOT", Wrapped: "KBTC"}
	require.NoError(t, registry.SetPairParams(pair, vaultregistry.PairParams{
		MinimumCollateral:       currency.New(50, "DOT"),
		SystemCollateralCeiling: currency.New(0, "DOT"),
		SecureThreshold:         200000,
		AuctionThreshold:        150000,
		PremiumRedeemThreshold:  135000,
		LiquidationThreshold:    110000,
	}))

	var owner types.AccountID
	owner[0] = 0x01
	id := types.NewVaultID(owner, "DOT", "KBTC")
	require.NoError(t, ledger.Mint(owner, currency.New(1000, "DOT")))
	require.NoError(t, registry.RegisterVault(id, currency.New(300, "DOT")))
	require.NoError(t, registry.TryIncreaseToBeIssuedTokens(id, currency.New(100, "KBTC")))
	require.NoError(t, registry.IssueTokens(id, currency.New(100, "KBTC")))

	env := &testEnv{registry: registry, feed: feed, vault: id}
	env.obs = middleware.NewObservability(middleware.ObservabilityConfig{}, nil, nil)
	handler, err := New(Config{
		Registry:      registry,
		Commit:        func() error { env.commits++; return nil },
		Observability: env.obs,
	})
	require.NoError(t, err)
	env.handler = handler
	return env
}

func (env *testEnv) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func (env *testEnv) vaultPath() string {
	return "/v1/vaults/" + env.vault.Account.String() + "/DOT/KBTC"
}

func TestListVaults(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/v1/vaults")
	require.Equal(t, http.StatusOK, rec.Code)
	vaults, ok := body["vaults"].([]any)
	require.True(t, ok)
	require.Len(t, vaults, 1)
	first := vaults[0].(map[string]any)
	require.Equal(t, env.vault.Account.String(), first["account"])
	require.Equal(t, "KBTC", first["wrapped"])
}

func TestGetVault(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, env.vaultPath())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "active", body["status"])
	require.Equal(t, "100", body["issuedTokens"])
	require.Equal(t, "300", body["collateral"])
	require.Equal(t, "50", body["issuableTokens"])
	require.Equal(t, "100", body["redeemableTokens"])
	require.Equal(t, false, body["belowLiquidationThreshold"])

	lower := "/v1/vaults/" + env.vault.Account.String() + "/dot/kbtc"
	rec, _ = env.do(t, http.MethodGet, lower)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetVaultErrors(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/v1/vaults/not-an-account/DOT/KBTC")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "invalid account")

	var other types.AccountID
	other[0] = 0x02
	rec, _ = env.do(t, http.MethodGet, "/v1/vaults/"+other.String()+"/DOT/KBTC")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/v1/system-vaults/DOT/DOT")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportVault(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodPost, env.vaultPath()+"/report")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Zero(t, env.commits)

	require.NoError(t, env.feed.SetDecimal("DOT", "3"))
	rec, body := env.do(t, http.MethodPost, env.vaultPath()+"/report")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "300", body["toLiquidationVault"])
	require.Equal(t, 1, env.commits)

	rec, body = env.do(t, http.MethodGet, "/v1/system-vaults/DOT/KBTC")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "100", body["issuedTokens"])
	require.Equal(t, "300", body["collateral"])

	rec, body = env.do(t, http.MethodGet, env.vaultPath())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "liquidated", body["status"])
	require.Equal(t, "0", body["issuableTokens"])
}

func TestGetParams(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/v1/params/DOT/KBTC")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "50", body["minimumCollateral"])
	require.Equal(t, "2.00000", body["secureThreshold"])
	require.Equal(t, "1.10000", body["liquidationThreshold"])

	rec, _ = env.do(t, http.MethodGet, "/v1/params/KSM/KBTC")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndObservability(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = env.do(t, http.MethodOptions, "/v1/vaults")
	require.Equal(t, http.StatusNoContent, rec.Code)

	env.do(t, http.MethodGet, "/v1/vaults")
	require.Equal(t, float64(1), testutil.ToFloat64(env.obs.Requests().WithLabelValues("/v1/vaults", http.MethodGet, "200")))
}

func TestMetricsHandlerMounted(t *testing.T) {
	env := newTestEnv(t)
	reg := prometheus.NewRegistry()
	obs := middleware.NewObservability(middleware.ObservabilityConfig{MetricsPrefix: "vaultd"}, nil, reg)
	handler, err := New(Config{
		Registry:       env.registry,
		Observability:  obs,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	require.NoError(t, err)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `vaultd_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
