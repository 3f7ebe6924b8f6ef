package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"vaultchain/core/currency"
	"vaultchain/core/types"
	"vaultchain/native/vaultregistry"
)

// Genesis is the YAML document seeding a fresh chain.
type Genesis struct {
	Global     GlobalGenesis     `yaml:"global"`
	Pairs      []PairGenesis     `yaml:"pairs"`
	Rates      map[string]string `yaml:"rates"`
	Balances   []BalanceGenesis  `yaml:"balances"`
	Nomination bool              `yaml:"nomination"`
	Pauses     Pauses            `yaml:"pauses"`
}

// GlobalGenesis holds ratios as decimal strings, e.g. "0.1" for 10%.
type GlobalGenesis struct {
	PunishmentFee    string `yaml:"punishmentFee"`
	PunishmentDelay  uint64 `yaml:"punishmentDelay"`
	RedeemPremiumFee string `yaml:"redeemPremiumFee"`
}

type PairGenesis struct {
	Collateral              string `yaml:"collateral"`
	Wrapped                 string `yaml:"wrapped"`
	MinimumCollateral       string `yaml:"minimumCollateral"`
	SystemCollateralCeiling string `yaml:"systemCollateralCeiling"`
	SecureThreshold         string `yaml:"secureThreshold"`
	AuctionThreshold        string `yaml:"auctionThreshold"`
	PremiumRedeemThreshold  string `yaml:"premiumRedeemThreshold"`
	LiquidationThreshold    string `yaml:"liquidationThreshold"`
}

type BalanceGenesis struct {
	Account  string `yaml:"account"`
	Currency string `yaml:"currency"`
	Amount   string `yaml:"amount"`
}

// Balance is a decoded genesis balance.
type Balance struct {
	Account types.AccountID
	Amount  currency.Amount
}

// LoadGenesis reads and validates a genesis file. Unknown keys are rejected.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGenesis(raw)
}

func ParseGenesis(raw []byte) (*Genesis, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var g Genesis
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("genesis: decode: %w", err)
	}
	if _, err := g.Registry(); err != nil {
		return nil, err
	}
	if _, err := g.OracleRates(); err != nil {
		return nil, err
	}
	if _, err := g.Accounts(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Registry converts the document into vault registry parameters.
func (g *Genesis) Registry() (vaultregistry.Genesis, error) {
	out := vaultregistry.Genesis{Pairs: make(map[types.CurrencyPair]vaultregistry.PairParams, len(g.Pairs))}
	var err error
	if out.Global.PunishmentFee, err = parseOptionalRatio(g.Global.PunishmentFee); err != nil {
		return out, fmt.Errorf("genesis: global.punishmentFee: %w", err)
	}
	if out.Global.RedeemPremiumFee, err = parseOptionalRatio(g.Global.RedeemPremiumFee); err != nil {
		return out, fmt.Errorf("genesis: global.redeemPremiumFee: %w", err)
	}
	out.Global.PunishmentDelay = g.Global.PunishmentDelay

	for i, p := range g.Pairs {
		pair := types.CurrencyPair{Collateral: currency.ID(p.Collateral), Wrapped: currency.ID(p.Wrapped)}.Normalize()
		if err := pair.Validate(); err != nil {
			return out, fmt.Errorf("genesis: pairs[%d]: %w", i, err)
		}
		if _, dup := out.Pairs[pair]; dup {
			return out, fmt.Errorf("genesis: pairs[%d]: duplicate pair %s", i, pair)
		}
		params, err := p.params(pair)
		if err != nil {
			return out, fmt.Errorf("genesis: pairs[%d] %s: %w", i, pair, err)
		}
		out.Pairs[pair] = params
	}
	return out, nil
}

func (p PairGenesis) params(pair types.CurrencyPair) (vaultregistry.PairParams, error) {
	var (
		out vaultregistry.PairParams
		err error
	)
	if out.MinimumCollateral, err = parseOptionalAmount(p.MinimumCollateral, pair.Collateral); err != nil {
		return out, fmt.Errorf("minimumCollateral: %w", err)
	}
	if out.SystemCollateralCeiling, err = parseOptionalAmount(p.SystemCollateralCeiling, pair.Collateral); err != nil {
		return out, fmt.Errorf("systemCollateralCeiling: %w", err)
	}
	ratios := []struct {
		name string
		raw  string
		dst  *currency.Ratio
	}{
		{"secureThreshold", p.SecureThreshold, &out.SecureThreshold},
		{"auctionThreshold", p.AuctionThreshold, &out.AuctionThreshold},
		{"premiumRedeemThreshold", p.PremiumRedeemThreshold, &out.PremiumRedeemThreshold},
		{"liquidationThreshold", p.LiquidationThreshold, &out.LiquidationThreshold},
	}
	for _, r := range ratios {
		if *r.dst, err = parseOptionalRatio(r.raw); err != nil {
			return out, fmt.Errorf("%s: %w", r.name, err)
		}
	}
	return out, out.Validate()
}

// OracleRates returns the initial exchange rates keyed by currency.
func (g *Genesis) OracleRates() (map[currency.ID]currency.Rate, error) {
	out := make(map[currency.ID]currency.Rate, len(g.Rates))
	for id, raw := range g.Rates {
		cur := currency.ID(id).Normalize()
		if !cur.Valid() {
			return nil, fmt.Errorf("genesis: rates: invalid currency %q", id)
		}
		rate, err := currency.ParseRate(raw)
		if err != nil {
			return nil, fmt.Errorf("genesis: rates.%s: %w", id, err)
		}
		if rate.IsZero() {
			return nil, fmt.Errorf("genesis: rates.%s: rate must be positive", id)
		}
		out[cur] = rate
	}
	return out, nil
}

// Accounts decodes the initial balances in file order.
func (g *Genesis) Accounts() ([]Balance, error) {
	out := make([]Balance, 0, len(g.Balances))
	for i, b := range g.Balances {
		acct, err := types.ParseAccountID(b.Account)
		if err != nil {
			return nil, fmt.Errorf("genesis: balances[%d]: %w", i, err)
		}
		cur := currency.ID(b.Currency).Normalize()
		if !cur.Valid() {
			return nil, fmt.Errorf("genesis: balances[%d]: invalid currency %q", i, b.Currency)
		}
		amount, err := currency.Parse(b.Amount, cur)
		if err != nil {
			return nil, fmt.Errorf("genesis: balances[%d]: %w", i, err)
		}
		out = append(out, Balance{Account: acct, Amount: amount})
	}
	return out, nil
}

// SortedRateIDs returns the rate currencies in a stable order.
func SortedRateIDs(rates map[currency.ID]currency.Rate) []currency.ID {
	ids := make([]currency.ID, 0, len(rates))
	for id := range rates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func parseOptionalRatio(s string) (currency.Ratio, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return currency.ParseRatio(strings.TrimSpace(s))
}

func parseOptionalAmount(s string, c currency.ID) (currency.Amount, error) {
	if strings.TrimSpace(s) == "" {
		return currency.Zero(c), nil
	}
	return currency.Parse(s, c)
}
