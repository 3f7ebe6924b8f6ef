package routes

import (
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"vaultchain/core/currency"
	"vaultchain/core/types"
	"vaultchain/gateway/middleware"
	"vaultchain/native/vaultregistry"
)

// Registry is the read and report surface of the vault registry served over
// HTTP.
type Registry interface {
	Vaults() ([]types.VaultID, error)
	GetVault(id types.VaultID) (*vaultregistry.Vault, error)
	GetSystemVault(pair types.CurrencyPair) (*vaultregistry.SystemVault, error)
	TotalCollateral(id types.VaultID) (currency.Amount, error)
	FreeCollateral(id types.VaultID) (currency.Amount, error)
	IssuableTokens(id types.VaultID) (currency.Amount, error)
	RedeemableTokens(id types.VaultID) (currency.Amount, error)
	IsVaultBelowLiquidationThreshold(id types.VaultID) (bool, error)
	ReportUndercollateralizedVault(id types.VaultID) (currency.Amount, error)
	Params() *vaultregistry.ParamStore
}

type Config struct {
	Registry Registry
	// Lock serializes handlers with every other writer of the same state.
	Lock sync.Locker
	// Commit persists state after a successful report.
	Commit         func() error
	MetricsHandler http.Handler
	Observability  *middleware.Observability
	CORS           middleware.CORSConfig
}

func New(cfg Config) (http.Handler, error) {
	if cfg.Registry == nil {
		return nil, errors.New("routes: registry required")
	}
	if cfg.Lock == nil {
		cfg.Lock = &sync.Mutex{}
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	vr := &vaultRoutes{registry: cfg.Registry, lock: cfg.Lock, commit: cfg.Commit}
	r.Route("/v1", vr.mount)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	return r, nil
}
