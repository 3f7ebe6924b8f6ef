package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"vaultchain/config"
	"vaultchain/core/events"
	"vaultchain/core/state"
	"vaultchain/native/bank"
	"vaultchain/native/nomination"
	"vaultchain/native/oracle"
	"vaultchain/native/params"
	"vaultchain/native/staking"
	"vaultchain/native/vaultregistry"
	"vaultchain/observability/metrics"
	"vaultchain/storage"
)

var genesisMarker = []byte("vaultd/genesis-applied")

// node owns the state and every engine built on it. All access to state goes
// through mu.
type node struct {
	mu         sync.Mutex
	db         storage.Database
	state      *state.Manager
	feed       *oracle.Feed
	ledger     *bank.Ledger
	pool       *staking.Manager
	params     *params.Store
	registry   *vaultregistry.Engine
	nomination *nomination.Engine
	monitor    *vaultregistry.Monitor
	recent     *events.Recorder
	logger     *slog.Logger
}

func newNode(cfg *config.Config, logger *slog.Logger, m *metrics.VaultRegistryMetrics) (*node, error) {
	if cfg.DBBackend != "memory" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.DBBackend, cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBBackend, err)
	}
	st := state.NewManager(db)
	n := &node{
		db:     db,
		state:  st,
		feed:   oracle.NewFeed(st),
		ledger: bank.NewLedger(st),
		pool:   staking.NewManager(st),
		params: params.NewStore(st),
		recent: events.NewRecorder(256),
		logger: logger,
	}
	emitter := events.Fanout{n.recent, eventLogger{logger: logger}}

	n.registry = vaultregistry.NewEngine(st, n.feed, n.ledger, n.pool)
	n.registry.SetPauses(n.params)
	n.registry.SetLogger(logger)
	n.registry.SetMetrics(m)
	n.feed.SetHeightFunc(n.registry.BlockHeight)

	n.nomination = nomination.NewEngine(st, n.registry)
	n.nomination.SetEmitter(emitter)
	n.registry.SetEmitter(n.nomination.Relay(emitter))
	n.nomination.SetPauses(n.params)
	n.nomination.SetLogger(logger)
	n.nomination.SetMetrics(m)

	n.monitor = vaultregistry.NewMonitor(n.registry, &n.mu, st.Commit)
	return n, nil
}

// applyGenesis seeds a fresh database from g. It is a no-op once a genesis
// has been committed.
func (n *node) applyGenesis(g *config.Genesis) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	applied, err := n.state.KVGet(genesisMarker, nil)
	if err != nil {
		return err
	}
	if applied {
		n.logger.Info("genesis already applied")
		return nil
	}
	registryGenesis, err := g.Registry()
	if err != nil {
		return err
	}
	rates, err := g.OracleRates()
	if err != nil {
		return err
	}
	balances, err := g.Accounts()
	if err != nil {
		return err
	}

	err = n.state.Atomic(func() error {
		if err := n.registry.InitGenesis(registryGenesis); err != nil {
			return fmt.Errorf("registry genesis: %w", err)
		}
		for _, id := range config.SortedRateIDs(rates) {
			if err := n.feed.SetRate(id, rates[id]); err != nil {
				return fmt.Errorf("rate %s: %w", id, err)
			}
		}
		for _, b := range balances {
			if err := n.ledger.Mint(b.Account, b.Amount); err != nil {
				return fmt.Errorf("balance %s: %w", b.Account, err)
			}
		}
		if err := n.nomination.SetNominationEnabled(g.Nomination); err != nil {
			return err
		}
		if err := n.params.SetPauses(g.Pauses); err != nil {
			return err
		}
		return n.state.KVPut(genesisMarker, true)
	})
	if err != nil {
		n.state.Discard()
		return err
	}
	if err := n.state.Commit(); err != nil {
		return err
	}
	n.logger.Info("genesis applied",
		"pairs", len(registryGenesis.Pairs),
		"rates", len(rates),
		"balances", len(balances))
	return nil
}

// overridePauses persists the pause switches from the config file when any
// is set.
func (n *node) overridePauses(p config.Pauses) error {
	if p == (config.Pauses{}) {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.params.SetPauses(p); err != nil {
		n.state.Discard()
		return err
	}
	n.logger.Warn("module pauses set from config", "vaultregistry", p.VaultRegistry, "nomination", p.Nomination)
	return n.state.Commit()
}

func (n *node) commit() error {
	return n.state.Commit()
}

func (n *node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return errors.Join(n.state.Commit(), n.db.Close())
}

// eventLogger writes every emitted event to the structured log.
type eventLogger struct {
	logger *slog.Logger
}

func (l eventLogger) Emit(evt events.Event) {
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}
	keys := make([]string, 0, len(rendered.Attributes))
	for key := range rendered.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys)+2)
	args = append(args, "type", rendered.Type)
	for _, key := range keys {
		args = append(args, key, rendered.Attributes[key])
	}
	l.logger.Info("event", args...)
}
