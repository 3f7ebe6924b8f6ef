package staking

import (
	"errors"
	"fmt"
	"math/big"

	"vaultchain/core/currency"
	"vaultchain/core/types"
)

var (
	ErrInsufficientStake = errors.New("staking: insufficient stake")
	ErrWrongCurrency     = errors.New("staking: amount is not in the vault collateral currency")
	ErrNilState          = errors.New("staking: state not configured")
)

type poolState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

type poolRecord struct {
	Total       *big.Int
	RewardStake *big.Int
	Nominators  []types.AccountID
}

// Stake is one nominator's contribution to a vault's collateral pool.
type Stake = types.Stake

// Manager tracks the collateral pool behind every vault: each nominator's
// stake, the pool total and the stake registered with the reward pool.
type Manager struct {
	state poolState
}

func NewManager(state poolState) *Manager {
	return &Manager{state: state}
}

func poolKey(vault types.VaultID) []byte {
	return append([]byte("staking/pool/"), vault.Key()...)
}

func stakeKey(vault types.VaultID, nominator types.AccountID) []byte {
	key := append([]byte("staking/stake/"), vault.Key()...)
	key = append(key, '/')
	return append(key, nominator[:]...)
}

func (m *Manager) loadPool(vault types.VaultID) (*poolRecord, error) {
	if m == nil || m.state == nil {
		return nil, ErrNilState
	}
	rec := &poolRecord{}
	if _, err := m.state.KVGet(poolKey(vault), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *Manager) storePool(vault types.VaultID, rec *poolRecord) error {
	return m.state.KVPut(poolKey(vault), rec)
}

func (m *Manager) loadStake(vault types.VaultID, nominator types.AccountID) (currency.Amount, error) {
	var raw big.Int
	ok, err := m.state.KVGet(stakeKey(vault, nominator), &raw)
	if err != nil {
		return currency.Amount{}, err
	}
	if !ok {
		return currency.Zero(vault.CollateralCurrency()), nil
	}
	return currency.FromBig(&raw, vault.CollateralCurrency())
}

func (m *Manager) storeStake(vault types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	if amount.IsZero() {
		return m.state.KVDelete(stakeKey(vault, nominator))
	}
	return m.state.KVPut(stakeKey(vault, nominator), amount.Big())
}

func checkCurrency(vault types.VaultID, amount currency.Amount) error {
	if amount.Currency() != vault.CollateralCurrency() {
		return fmt.Errorf("%w: %s for %s", ErrWrongCurrency, amount.Currency(), vault)
	}
	return nil
}

func hasNominator(list []types.AccountID, acct types.AccountID) bool {
	for _, existing := range list {
		if existing == acct {
			return true
		}
	}
	return false
}

// DepositCollateral adds amount to nominator's stake in vault.
func (m *Manager) DepositCollateral(vault types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	if err := checkCurrency(vault, amount); err != nil {
		return err
	}
	pool, err := m.loadPool(vault)
	if err != nil {
		return err
	}
	stake, err := m.loadStake(vault, nominator)
	if err != nil {
		return err
	}
	total, err := currency.FromBig(pool.Total, vault.CollateralCurrency())
	if err != nil {
		return err
	}
	if stake, err = stake.Add(amount); err != nil {
		return err
	}
	if total, err = total.Add(amount); err != nil {
		return err
	}
	if !hasNominator(pool.Nominators, nominator) {
		pool.Nominators = append(pool.Nominators, nominator)
	}
	pool.Total = total.Big()
	if err := m.storeStake(vault, nominator, stake); err != nil {
		return err
	}
	return m.storePool(vault, pool)
}

// WithdrawCollateral removes amount from nominator's stake in vault.
func (m *Manager) WithdrawCollateral(vault types.VaultID, nominator types.AccountID, amount currency.Amount) error {
	if err := checkCurrency(vault, amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	pool, err := m.loadPool(vault)
	if err != nil {
		return err
	}
	stake, err := m.loadStake(vault, nominator)
	if err != nil {
		return err
	}
	if stake.Lt(amount) {
		return fmt.Errorf("%w: %s staked %s, withdrawing %s", ErrInsufficientStake, nominator, stake, amount)
	}
	total, err := currency.FromBig(pool.Total, vault.CollateralCurrency())
	if err != nil {
		return err
	}
	if stake, err = stake.Sub(amount); err != nil {
		return err
	}
	if total, err = total.Sub(amount); err != nil {
		return err
	}
	pool.Total = total.Big()
	if stake.IsZero() {
		pool.Nominators = removeNominator(pool.Nominators, nominator)
	}
	if err := m.storeStake(vault, nominator, stake); err != nil {
		return err
	}
	return m.storePool(vault, pool)
}

// SlashCollateral removes amount from the pool, charging every nominator in
// proportion to its stake. Rounding dust is charged one unit at a time to
// nominators in deposit order so the slashed total is exact.
func (m *Manager) SlashCollateral(vault types.VaultID, amount currency.Amount) error {
	if err := checkCurrency(vault, amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	pool, err := m.loadPool(vault)
	if err != nil {
		return err
	}
	total, err := currency.FromBig(pool.Total, vault.CollateralCurrency())
	if err != nil {
		return err
	}
	if total.Lt(amount) {
		return fmt.Errorf("%w: pool holds %s, slashing %s", ErrInsufficientStake, total, amount)
	}

	stakes := make([]currency.Amount, len(pool.Nominators))
	shares := make([]currency.Amount, len(pool.Nominators))
	charged := currency.Zero(vault.CollateralCurrency())
	for i, nominator := range pool.Nominators {
		if stakes[i], err = m.loadStake(vault, nominator); err != nil {
			return err
		}
		if shares[i], err = stakes[i].MulDivAmounts(amount, total); err != nil {
			return err
		}
		if charged, err = charged.Add(shares[i]); err != nil {
			return err
		}
	}
	remainder, err := amount.Sub(charged)
	if err != nil {
		return err
	}
	one := currency.New(1, vault.CollateralCurrency())
	for i := range shares {
		if remainder.IsZero() {
			break
		}
		if stakes[i].Gt(shares[i]) {
			shares[i], _ = shares[i].Add(one)
			remainder, _ = remainder.Sub(one)
		}
	}
	if !remainder.IsZero() {
		return fmt.Errorf("%w: unallocated slash of %s", ErrInsufficientStake, remainder)
	}

	kept := pool.Nominators[:0]
	nominators := append([]types.AccountID(nil), pool.Nominators...)
	for i, nominator := range nominators {
		left, err := stakes[i].Sub(shares[i])
		if err != nil {
			return err
		}
		if err := m.storeStake(vault, nominator, left); err != nil {
			return err
		}
		if !left.IsZero() {
			kept = append(kept, nominator)
		}
	}
	pool.Nominators = kept
	if total, err = total.Sub(amount); err != nil {
		return err
	}
	pool.Total = total.Big()
	return m.storePool(vault, pool)
}

// SetStake records the vault's stake in the reward pool. Zero stops reward
// accrual.
func (m *Manager) SetStake(vault types.VaultID, amount currency.Amount) error {
	pool, err := m.loadPool(vault)
	if err != nil {
		return err
	}
	pool.RewardStake = amount.Big()
	return m.storePool(vault, pool)
}

// RewardStake returns the stake last registered with SetStake.
func (m *Manager) RewardStake(vault types.VaultID) (currency.Amount, error) {
	pool, err := m.loadPool(vault)
	if err != nil {
		return currency.Amount{}, err
	}
	return currency.FromBig(pool.RewardStake, vault.CollateralCurrency())
}

// TotalCollateral returns the sum of every stake in the vault's pool.
func (m *Manager) TotalCollateral(vault types.VaultID) (currency.Amount, error) {
	pool, err := m.loadPool(vault)
	if err != nil {
		return currency.Amount{}, err
	}
	return currency.FromBig(pool.Total, vault.CollateralCurrency())
}

// NominatorCollateral returns nominator's stake in vault.
func (m *Manager) NominatorCollateral(vault types.VaultID, nominator types.AccountID) (currency.Amount, error) {
	if m == nil || m.state == nil {
		return currency.Amount{}, ErrNilState
	}
	return m.loadStake(vault, nominator)
}

// Nominators lists every non-zero stake in deposit order.
func (m *Manager) Nominators(vault types.VaultID) ([]Stake, error) {
	pool, err := m.loadPool(vault)
	if err != nil {
		return nil, err
	}
	out := make([]Stake, 0, len(pool.Nominators))
	for _, nominator := range pool.Nominators {
		stake, err := m.loadStake(vault, nominator)
		if err != nil {
			return nil, err
		}
		if stake.IsZero() {
			continue
		}
		out = append(out, Stake{Nominator: nominator, Amount: stake})
	}
	return out, nil
}

// KickNominators withdraws every stake except keep's and returns what was
// removed so the caller can refund it.
func (m *Manager) KickNominators(vault types.VaultID, keep types.AccountID) ([]Stake, error) {
	stakes, err := m.Nominators(vault)
	if err != nil {
		return nil, err
	}
	var kicked []Stake
	for _, stake := range stakes {
		if stake.Nominator == keep {
			continue
		}
		if err := m.WithdrawCollateral(vault, stake.Nominator, stake.Amount); err != nil {
			return nil, err
		}
		kicked = append(kicked, stake)
	}
	return kicked, nil
}

func removeNominator(list []types.AccountID, acct types.AccountID) []types.AccountID {
	out := list[:0]
	for _, existing := range list {
		if existing != acct {
			out = append(out, existing)
		}
	}
	return out
}
