package vaultregistry

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/types"
	nativecommon "vaultchain/native/common"
	"vaultchain/observability/metrics"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
	Atomic(fn func() error) error
}

// Oracle converts between collateral and wrapped currencies.
type Oracle interface {
	Converter
}

// Ledger is the currency ledger holding free and reserved balances.
type Ledger interface {
	FreeBalance(acct types.AccountID, id currency.ID) (currency.Amount, error)
	ReservedBalance(acct types.AccountID, id currency.ID) (currency.Amount, error)
	Transfer(from, to types.AccountID, amount currency.Amount) error
	Lock(acct types.AccountID, amount currency.Amount) error
	Unlock(acct types.AccountID, amount currency.Amount) error
}

// PoolManager tracks the stake behind each vault. The owner's own collateral
// is its stake as a nominator of its own vault.
type PoolManager interface {
	DepositCollateral(vault types.VaultID, nominator types.AccountID, amount currency.Amount) error
	WithdrawCollateral(vault types.VaultID, nominator types.AccountID, amount currency.Amount) error
	SlashCollateral(vault types.VaultID, amount currency.Amount) error
	SetStake(vault types.VaultID, amount currency.Amount) error
	TotalCollateral(vault types.VaultID) (currency.Amount, error)
	NominatorCollateral(vault types.VaultID, nominator types.AccountID) (currency.Amount, error)
	KickNominators(vault types.VaultID, keep types.AccountID) ([]types.Stake, error)
}

// Engine is the vault registry. Every exported operation is atomic: it either
// completes or leaves state and emitted events untouched.
type Engine struct {
	state       engineState
	params      *ParamStore
	oracle      Oracle
	ledger      Ledger
	pool        PoolManager
	emitter     events.Emitter
	buffer      events.Buffer
	depth       int
	pauses      nativecommon.PauseView
	blockHeight uint64
	logger      *slog.Logger
	metrics     *metrics.VaultRegistryMetrics

	liquidationAccount types.AccountID
}

// NewEngine wires the registry to its collaborators. The emitter defaults to
// a no-op and the logger discards output until configured.
func NewEngine(state engineState, oracle Oracle, ledger Ledger, pool PoolManager) *Engine {
	return &Engine{
		state:              state,
		params:             &ParamStore{state: state},
		oracle:             oracle,
		ledger:             ledger,
		pool:               pool,
		emitter:            events.NoopEmitter{},
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		liquidationAccount: types.ModuleAccount(LiquidationAccountName),
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetBlockHeight records the height used for ban checks.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

func (e *Engine) BlockHeight() uint64 {
	if e == nil {
		return 0
	}
	return e.blockHeight
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger.With("module", moduleName)
}

func (e *Engine) SetMetrics(m *metrics.VaultRegistryMetrics) {
	if e == nil {
		return
	}
	e.metrics = m
}

// Params exposes the parameter store.
func (e *Engine) Params() *ParamStore {
	if e == nil {
		return nil
	}
	return e.params
}

// LiquidationAccount is the account holding liquidation-vault collateral.
func (e *Engine) LiquidationAccount() types.AccountID {
	return e.liquidationAccount
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.oracle == nil || e.ledger == nil || e.pool == nil {
		return errNilCollaborator
	}
	return nil
}

func (e *Engine) emit(evt events.Event) {
	e.buffer.Emit(evt)
}

// atomic runs fn in a state snapshot. Events emitted inside fn reach the
// emitter only when the outermost call succeeds.
func (e *Engine) atomic(op string, fn func() error) error {
	if err := e.ready(); err != nil {
		return err
	}
	mark := e.buffer.Len()
	e.depth++
	err := e.state.Atomic(fn)
	e.depth--
	if err != nil {
		e.buffer.Truncate(mark)
	}
	if e.depth == 0 {
		e.metrics.ObserveOperation(op, err)
		if err == nil {
			e.buffer.Flush(e.emitter)
		}
	}
	return err
}

// guarded is atomic for state-changing calls that respect the pause switch.
func (e *Engine) guarded(op string, fn func() error) error {
	if e != nil {
		if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
			return err
		}
	}
	return e.atomic(op, fn)
}

// --- persistence ---

func (e *Engine) loadVault(id types.VaultID) (*Vault, error) {
	var rec vaultRecord
	ok, err := e.state.KVGet(vaultKey(id), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, id)
	}
	return rec.vault()
}

func (e *Engine) storeVault(v *Vault) error {
	return e.state.KVPut(vaultKey(v.ID), v.record())
}

func (e *Engine) vaultExists(id types.VaultID) (bool, error) {
	return e.state.KVGet(vaultKey(id), nil)
}

func (e *Engine) loadSystemVault(pair types.CurrencyPair) (*SystemVault, error) {
	var rec systemVaultRecord
	ok, err := e.state.KVGet(systemVaultKey(pair), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newSystemVault(pair), nil
	}
	return rec.systemVault(pair)
}

func (e *Engine) storeSystemVault(s *SystemVault) error {
	return e.state.KVPut(systemVaultKey(s.Pair), s.record())
}

func (e *Engine) totalUserVaultCollateral(pair types.CurrencyPair) (currency.Amount, error) {
	var raw big.Int
	ok, err := e.state.KVGet(totalCollateralKey(pair), &raw)
	if err != nil {
		return currency.Amount{}, err
	}
	if !ok {
		return currency.Zero(pair.Collateral), nil
	}
	return currency.FromBig(&raw, pair.Collateral)
}

func (e *Engine) storeTotalUserVaultCollateral(pair types.CurrencyPair, amount currency.Amount) error {
	return e.state.KVPut(totalCollateralKey(pair), amount.Big())
}

// increaseTotalBacking records collateral entering user vaults, enforcing the
// pair's system collateral ceiling.
func (e *Engine) increaseTotalBacking(pair types.CurrencyPair, amount currency.Amount) error {
	total, err := e.totalUserVaultCollateral(pair)
	if err != nil {
		return err
	}
	next, err := total.Add(amount)
	if err != nil {
		return err
	}
	params, err := e.params.Pair(pair)
	if err != nil {
		return err
	}
	if !params.SystemCollateralCeiling.IsZero() && next.Gt(params.SystemCollateralCeiling) {
		return fmt.Errorf("%w: %s would exceed %s", ErrCurrencyCeilingExceeded, next, params.SystemCollateralCeiling)
	}
	return e.storeTotalUserVaultCollateral(pair, next)
}

func (e *Engine) decreaseTotalBacking(pair types.CurrencyPair, amount currency.Amount) error {
	total, err := e.totalUserVaultCollateral(pair)
	if err != nil {
		return err
	}
	next, err := total.Sub(amount)
	if err != nil {
		return err
	}
	return e.storeTotalUserVaultCollateral(pair, next)
}
