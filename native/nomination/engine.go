package nomination

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"vaultchain/core/currency"
	"vaultchain/core/events"
	"vaultchain/core/types"
	nativecommon "vaultchain/native/common"
	"vaultchain/native/vaultregistry"
	"vaultchain/observability/metrics"
)

type engineState interface {
	Atomic(fn func() error) error
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
	KVDelete(key []byte) error
}

// Registry is the part of the vault registry nomination drives.
type Registry interface {
	GetVault(id types.VaultID) (*vaultregistry.Vault, error)
	DepositCollateral(id types.VaultID, amount currency.Amount) error
	WithdrawCollateral(id types.VaultID, amount currency.Amount) error
	DepositNominatorCollateral(id types.VaultID, nominator types.AccountID, amount currency.Amount) error
	WithdrawNominatorCollateral(id types.VaultID, nominator types.AccountID, amount currency.Amount) error
	NominatedCollateral(id types.VaultID) (currency.Amount, error)
	RefundNominators(id types.VaultID) (currency.Amount, error)
}

// Engine lets third parties co-back the collateral of vaults that opted in.
type Engine struct {
	state    engineState
	registry Registry
	emitter  events.Emitter
	buffer   events.Buffer
	depth    int
	pauses   nativecommon.PauseView
	logger   *slog.Logger
	metrics  *metrics.VaultRegistryMetrics
}

func NewEngine(state engineState, registry Registry) *Engine {
	return &Engine{
		state:    state,
		registry: registry,
		emitter:  events.NoopEmitter{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
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

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.registry == nil {
		return errNilRegistry
	}
	return nil
}

// Relay returns an emitter for the registry. Events the registry publishes
// while a nomination call is running are held with that call's events and
// dropped if it fails; everything else goes straight to next.
func (e *Engine) Relay(next events.Emitter) events.Emitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return relay{engine: e, next: next}
}

type relay struct {
	engine *Engine
	next   events.Emitter
}

func (r relay) Emit(evt events.Event) {
	if r.engine != nil && r.engine.depth > 0 {
		r.engine.buffer.Emit(evt)
		return
	}
	r.next.Emit(evt)
}

// run executes fn atomically. Governance calls skip the pause check.
func (e *Engine) run(op string, guarded bool, fn func() error) error {
	if err := e.ready(); err != nil {
		return err
	}
	if guarded {
		if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
			return err
		}
	}
	e.depth++
	err := e.state.Atomic(fn)
	e.depth--
	e.metrics.ObserveNomination(op, err)
	if err != nil {
		e.buffer.Truncate(0)
		return err
	}
	e.buffer.Flush(e.emitter)
	return nil
}

// SetNominationEnabled flips the global nomination switch.
func (e *Engine) SetNominationEnabled(enabled bool) error {
	return e.run("set_enabled", false, func() error {
		if err := e.state.KVPut(enabledKey, enabled); err != nil {
			return err
		}
		e.logger.Info("nomination switch updated", "enabled", enabled)
		return nil
	})
}

func (e *Engine) IsNominationEnabled() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	var enabled bool
	if _, err := e.state.KVGet(enabledKey, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (e *Engine) IsOptedIn(id types.VaultID) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	var opted bool
	if _, err := e.state.KVGet(optInKey(id), &opted); err != nil {
		return false, err
	}
	return opted, nil
}

// NominationLimit is the most collateral nominators may place with id. It
// defaults to zero.
func (e *Engine) NominationLimit(id types.VaultID) (currency.Amount, error) {
	if err := e.ready(); err != nil {
		return currency.Amount{}, err
	}
	var raw big.Int
	ok, err := e.state.KVGet(limitKey(id), &raw)
	if err != nil {
		return currency.Amount{}, err
	}
	if !ok {
		return currency.Zero(id.CollateralCurrency()), nil
	}
	return currency.FromBig(&raw, id.CollateralCurrency())
}

// SetNominationLimit is called by the vault owner.
func (e *Engine) SetNominationLimit(caller types.AccountID, id types.VaultID, limit currency.Amount) error {
	return e.run("set_limit", true, func() error {
		if caller != id.Account {
			return ErrNotVaultOwner
		}
		if limit.Currency() != id.CollateralCurrency() {
			return fmt.Errorf("%w: limit in %s, vault collateral is %s", vaultregistry.ErrWrongCurrency, limit.Currency(), id.CollateralCurrency())
		}
		if _, err := e.registry.GetVault(id); err != nil {
			return err
		}
		return e.state.KVPut(limitKey(id), limit.Big())
	})
}

// OptIn lets nominators deposit into the caller's vault.
func (e *Engine) OptIn(caller types.AccountID, id types.VaultID) error {
	return e.run("opt_in", true, func() error {
		if caller != id.Account {
			return ErrNotVaultOwner
		}
		if err := e.requireEnabled(); err != nil {
			return err
		}
		v, err := e.registry.GetVault(id)
		if err != nil {
			return err
		}
		if v.IsLiquidated() {
			return fmt.Errorf("%w: %s", vaultregistry.ErrVaultLiquidated, id)
		}
		opted, err := e.IsOptedIn(id)
		if err != nil {
			return err
		}
		if opted {
			return fmt.Errorf("%w: %s", ErrVaultAlreadyOptedIn, id)
		}
		if err := e.state.KVPut(optInKey(id), true); err != nil {
			return err
		}
		e.buffer.Emit(events.NominationOptIn{Vault: id})
		return nil
	})
}

// OptOut refunds every nominator and closes the vault to nomination. It fails
// when the vault cannot stay secure on the owner's collateral alone.
func (e *Engine) OptOut(caller types.AccountID, id types.VaultID) (currency.Amount, error) {
	var refunded currency.Amount
	err := e.run("opt_out", true, func() error {
		if caller != id.Account {
			return ErrNotVaultOwner
		}
		if err := e.requireOptedIn(id); err != nil {
			return err
		}
		var err error
		if refunded, err = e.registry.RefundNominators(id); err != nil {
			return err
		}
		if err := e.state.KVDelete(optInKey(id)); err != nil {
			return err
		}
		e.buffer.Emit(events.NominationOptOut{Vault: id, Refunded: refunded})
		e.logger.Info("vault opted out of nomination", "vault", id.String(), "refunded", refunded.Value())
		return nil
	})
	return refunded, err
}

// DepositCollateral adds nominator's collateral to the vault. The owner's own
// deposits bypass the nomination checks.
func (e *Engine) DepositCollateral(id types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	return e.run("deposit", true, func() error {
		if amount.IsZero() {
			return ErrInvalidAmount
		}
		if nominator == id.Account {
			if err := e.registry.DepositCollateral(id, amount); err != nil {
				return err
			}
		} else {
			if err := e.requireEnabled(); err != nil {
				return err
			}
			if err := e.requireOptedIn(id); err != nil {
				return err
			}
			nominated, err := e.registry.NominatedCollateral(id)
			if err != nil {
				return err
			}
			after, err := nominated.Add(amount)
			if err != nil {
				return err
			}
			limit, err := e.NominationLimit(id)
			if err != nil {
				return err
			}
			if after.Gt(limit) {
				return fmt.Errorf("%w: %s nominated, limit %s", ErrNominationExceedsLimit, after, limit)
			}
			if err := e.registry.DepositNominatorCollateral(id, nominator, amount); err != nil {
				return err
			}
		}
		e.buffer.Emit(events.NominationCollateral{Vault: id, Nominator: nominator, Amount: amount})
		return nil
	})
}

// WithdrawCollateral returns collateral to nominator. Withdrawals only need
// the vault to stay secure, so nominators can always leave a vault that
// opted out or a deployment that disabled nomination.
func (e *Engine) WithdrawCollateral(id types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	return e.run("withdraw", true, func() error {
		if amount.IsZero() {
			return ErrInvalidAmount
		}
		var err error
		if nominator == id.Account {
			err = e.registry.WithdrawCollateral(id, amount)
		} else {
			err = e.registry.WithdrawNominatorCollateral(id, nominator, amount)
		}
		if err != nil {
			return err
		}
		e.buffer.Emit(events.NominationCollateral{Withdrawal: true, Vault: id, Nominator: nominator, Amount: amount})
		return nil
	})
}

func (e *Engine) requireEnabled() error {
	enabled, err := e.IsNominationEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return ErrNominationDisabled
	}
	return nil
}

func (e *Engine) requireOptedIn(id types.VaultID) error {
	opted, err := e.IsOptedIn(id)
	if err != nil {
		return err
	}
	if !opted {
		return fmt.Errorf("%w: %s", ErrVaultNotOptedIn, id)
	}
	return nil
}
