package vaultregistry

import (
	"sort"

	"vaultchain/core/types"
)

// Genesis seeds the registry parameters at chain start.
type Genesis struct {
	Global GlobalParams
	Pairs  map[types.CurrencyPair]PairParams
}

// InitGenesis stores the genesis parameters. Pairs are written in sorted order
// so the resulting state does not depend on map iteration.
func (e *Engine) InitGenesis(g Genesis) error {
	return e.atomic("init_genesis", func() error {
		if err := e.params.SetGlobal(g.Global); err != nil {
			return err
		}
		pairs := make([]types.CurrencyPair, 0, len(g.Pairs))
		for pair := range g.Pairs {
			pairs = append(pairs, pair)
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
		for _, pair := range pairs {
			if err := e.params.SetPair(pair, g.Pairs[pair]); err != nil {
				return err
			}
		}
		e.logger.Info("vault registry genesis applied", "pairs", len(pairs))
		return nil
	})
}
