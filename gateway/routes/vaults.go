package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"vaultchain/core/currency"
	"vaultchain/core/types"
	nativecommon "vaultchain/native/common"
	"vaultchain/native/vaultregistry"
)

type vaultRoutes struct {
	registry Registry
	lock     sync.Locker
	commit   func() error
}

func (vr *vaultRoutes) mount(r chi.Router) {
	r.Get("/vaults", vr.listVaults)
	r.Get("/vaults/{account}/{collateral}/{wrapped}", vr.getVault)
	r.Post("/vaults/{account}/{collateral}/{wrapped}/report", vr.reportVault)
	r.Get("/system-vaults/{collateral}/{wrapped}", vr.getSystemVault)
	r.Get("/params/{collateral}/{wrapped}", vr.getParams)
}

type vaultIDJSON struct {
	Account    string `json:"account"`
	Collateral string `json:"collateral"`
	Wrapped    string `json:"wrapped"`
}

type vaultJSON struct {
	ID                   vaultIDJSON `json:"id"`
	Status               string      `json:"status"`
	AcceptNewIssues      bool        `json:"acceptNewIssues"`
	BannedUntil          *uint64     `json:"bannedUntil,omitempty"`
	SecureThreshold      string      `json:"secureThreshold,omitempty"`
	IssuedTokens         string      `json:"issuedTokens"`
	ToBeIssuedTokens     string      `json:"toBeIssuedTokens"`
	ToBeRedeemedTokens   string      `json:"toBeRedeemedTokens"`
	LiquidatedCollateral string      `json:"liquidatedCollateral"`
	Collateral           string      `json:"collateral"`
	FreeCollateral       string      `json:"freeCollateral"`
	IssuableTokens       string      `json:"issuableTokens"`
	RedeemableTokens     string      `json:"redeemableTokens"`
	BelowLiquidation     bool        `json:"belowLiquidationThreshold"`
}

type systemVaultJSON struct {
	Collateral         string `json:"collateral"`
	IssuedTokens       string `json:"issuedTokens"`
	ToBeIssuedTokens   string `json:"toBeIssuedTokens"`
	ToBeRedeemedTokens string `json:"toBeRedeemedTokens"`
}

type paramsJSON struct {
	MinimumCollateral       string `json:"minimumCollateral"`
	SystemCollateralCeiling string `json:"systemCollateralCeiling"`
	SecureThreshold         string `json:"secureThreshold"`
	AuctionThreshold        string `json:"auctionThreshold"`
	PremiumRedeemThreshold  string `json:"premiumRedeemThreshold"`
	LiquidationThreshold    string `json:"liquidationThreshold"`
}

func toVaultID(id types.VaultID) vaultIDJSON {
	return vaultIDJSON{
		Account:    id.Account.String(),
		Collateral: string(id.CollateralCurrency()),
		Wrapped:    string(id.WrappedCurrency()),
	}
}

func (vr *vaultRoutes) listVaults(w http.ResponseWriter, r *http.Request) {
	vr.lock.Lock()
	ids, err := vr.registry.Vaults()
	vr.lock.Unlock()
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	out := make([]vaultIDJSON, 0, len(ids))
	for _, id := range ids {
		out = append(out, toVaultID(id))
	}
	writeJSON(w, http.StatusOK, map[string]any{"vaults": out})
}

func (vr *vaultRoutes) getVault(w http.ResponseWriter, r *http.Request) {
	id, err := vaultIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	vr.lock.Lock()
	resp, err := vr.describeVault(id)
	vr.lock.Unlock()
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (vr *vaultRoutes) describeVault(id types.VaultID) (*vaultJSON, error) {
	v, err := vr.registry.GetVault(id)
	if err != nil {
		return nil, err
	}
	resp := &vaultJSON{
		ID:                   toVaultID(v.ID),
		Status:               v.Status.String(),
		AcceptNewIssues:      v.AcceptNewIssues,
		BannedUntil:          v.BannedUntil,
		IssuedTokens:         v.IssuedTokens.Value(),
		ToBeIssuedTokens:     v.ToBeIssuedTokens.Value(),
		ToBeRedeemedTokens:   v.ToBeRedeemedTokens.Value(),
		LiquidatedCollateral: v.LiquidatedCollateral.Value(),
	}
	if v.SecureThreshold != nil {
		resp.SecureThreshold = v.SecureThreshold.String()
	}
	amounts := []struct {
		dst *string
		fn  func(types.VaultID) (currency.Amount, error)
	}{
		{&resp.Collateral, vr.registry.TotalCollateral},
		{&resp.FreeCollateral, vr.registry.FreeCollateral},
		{&resp.IssuableTokens, vr.registry.IssuableTokens},
		{&resp.RedeemableTokens, vr.registry.RedeemableTokens},
	}
	for _, a := range amounts {
		amount, err := a.fn(id)
		if err != nil {
			return nil, err
		}
		*a.dst = amount.Value()
	}
	if resp.BelowLiquidation, err = vr.registry.IsVaultBelowLiquidationThreshold(id); err != nil {
		return nil, err
	}
	return resp, nil
}

func (vr *vaultRoutes) reportVault(w http.ResponseWriter, r *http.Request) {
	id, err := vaultIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	vr.lock.Lock()
	defer vr.lock.Unlock()
	moved, err := vr.registry.ReportUndercollateralizedVault(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if vr.commit != nil {
		if err := vr.commit(); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Errorf("commit: %w", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"vault":              id.String(),
		"toLiquidationVault": moved.Value(),
	})
}

func (vr *vaultRoutes) getSystemVault(w http.ResponseWriter, r *http.Request) {
	pair, err := pairParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	vr.lock.Lock()
	s, err := vr.registry.GetSystemVault(pair)
	vr.lock.Unlock()
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, systemVaultJSON{
		Collateral:         s.Collateral.Value(),
		IssuedTokens:       s.IssuedTokens.Value(),
		ToBeIssuedTokens:   s.ToBeIssuedTokens.Value(),
		ToBeRedeemedTokens: s.ToBeRedeemedTokens.Value(),
	})
}

func (vr *vaultRoutes) getParams(w http.ResponseWriter, r *http.Request) {
	pair, err := pairParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	vr.lock.Lock()
	p, err := vr.registry.Params().Pair(pair)
	vr.lock.Unlock()
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paramsJSON{
		MinimumCollateral:       p.MinimumCollateral.Value(),
		SystemCollateralCeiling: p.SystemCollateralCeiling.Value(),
		SecureThreshold:         p.SecureThreshold.String(),
		AuctionThreshold:        p.AuctionThreshold.String(),
		PremiumRedeemThreshold:  p.PremiumRedeemThreshold.String(),
		LiquidationThreshold:    p.LiquidationThreshold.String(),
	})
}

func pairParam(r *http.Request) (types.CurrencyPair, error) {
	pair := types.CurrencyPair{
		Collateral: currency.ID(chi.URLParam(r, "collateral")),
		Wrapped:    currency.ID(chi.URLParam(r, "wrapped")),
	}.Normalize()
	if err := pair.Validate(); err != nil {
		return types.CurrencyPair{}, err
	}
	return pair, nil
}

func vaultIDParam(r *http.Request) (types.VaultID, error) {
	acct, err := types.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		return types.VaultID{}, fmt.Errorf("invalid account: %w", err)
	}
	pair, err := pairParam(r)
	if err != nil {
		return types.VaultID{}, err
	}
	return types.VaultID{Account: acct, Currencies: pair}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeRegistryError(w http.ResponseWriter, err error) {
	writeJSONError(w, registryStatus(err), err)
}

func registryStatus(err error) int {
	switch {
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, vaultregistry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vaultregistry.ErrInvalidState),
		errors.Is(err, vaultregistry.ErrThresholdViolation),
		errors.Is(err, vaultregistry.ErrInsufficientFunds),
		errors.Is(err, vaultregistry.ErrInsufficientTokensCommitted),
		errors.Is(err, vaultregistry.ErrBanned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
