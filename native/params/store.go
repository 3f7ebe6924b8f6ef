package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"vaultchain/config"
)

// StoreState is the slice of state.Manager the pause record needs.
type StoreState interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// Store keeps the operator pause switches in chain state.
type Store struct {
	state StoreState
}

func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, errors.New("params: no state")
	}
	return s.state, nil
}

// SetPauses replaces the stored pause record, JSON encoded.
func (s *Store) SetPauses(pauses config.Pauses) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	return state.KVPut([]byte(ParamsKeyPauses), encoded)
}

// Pauses returns the stored switches, all off when nothing has been written.
func (s *Store) Pauses() (config.Pauses, error) {
	state, err := s.withState()
	if err != nil {
		return config.Pauses{}, err
	}
	var raw []byte
	ok, err := state.KVGet([]byte(ParamsKeyPauses), &raw)
	if err != nil {
		return config.Pauses{}, fmt.Errorf("params: load pauses: %w", err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return config.Pauses{}, nil
	}
	var pauses config.Pauses
	if err := json.Unmarshal(raw, &pauses); err != nil {
		return config.Pauses{}, fmt.Errorf("params: decode pauses: %w", err)
	}
	return pauses, nil
}

// IsPaused reports whether module is paused. A configuration that cannot be
// read is treated as paused so state-changing calls fail closed.
func (s *Store) IsPaused(module string) bool {
	pauses, err := s.Pauses()
	if err != nil {
		slog.Default().Error("pause configuration unreadable", "module", module, "err", err)
		return true
	}
	switch module {
	case ModuleVaultRegistry:
		return pauses.VaultRegistry
	case ModuleNomination:
		return pauses.Nomination
	default:
		return false
	}
}
