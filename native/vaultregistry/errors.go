package vaultregistry

import (
	"errors"
	"fmt"

	"vaultchain/core/currency"
	"vaultchain/observability/metrics"
)

// Error kinds. Every error returned by the registry matches exactly one of
// these with errors.Is.
var (
	ErrNotFound                    = errors.New("vault registry: not found")
	ErrInvalidState                = errors.New("vault registry: invalid state")
	ErrInsufficientFunds           = errors.New("vault registry: insufficient funds")
	ErrInsufficientTokensCommitted = errors.New("vault registry: insufficient tokens committed")
	ErrThresholdViolation          = errors.New("vault registry: threshold violation")
	ErrBanned                      = errors.New("vault registry: vault banned")

	ErrArithmeticOverflow  = currency.ErrOverflow
	ErrArithmeticUnderflow = currency.ErrUnderflow
)

var (
	ErrVaultNotFound            = fmt.Errorf("%w: vault", ErrNotFound)
	ErrThresholdNotSet          = fmt.Errorf("%w: collateral thresholds not set for currency pair", ErrNotFound)
	ErrVaultAlreadyRegistered   = fmt.Errorf("%w: vault already registered", ErrInvalidState)
	ErrVaultLiquidated          = fmt.Errorf("%w: vault is liquidated", ErrInvalidState)
	ErrVaultNotAcceptingIssues  = fmt.Errorf("%w: vault does not accept new issues", ErrInvalidState)
	ErrVaultNotBelowLiquidation = fmt.Errorf("%w: vault is not below the liquidation threshold", ErrInvalidState)
	ErrWrongCurrency            = fmt.Errorf("%w: amount in wrong currency", ErrInvalidState)
	ErrInvalidPair              = fmt.Errorf("%w: invalid currency pair", ErrInvalidState)
	ErrInsufficientCollateral   = fmt.Errorf("%w: collateral below vault minimum", ErrInsufficientFunds)
	ErrInsufficientVaultBalance = fmt.Errorf("%w: balance too low", ErrInsufficientFunds)
	ErrExceedingVaultLimit      = fmt.Errorf("%w: vault cannot back the requested tokens", ErrThresholdViolation)
	ErrExceedsThreshold         = fmt.Errorf("%w: collateral would fall below the secure threshold", ErrThresholdViolation)
	ErrCurrencyCeilingExceeded  = fmt.Errorf("%w: system collateral ceiling exceeded", ErrThresholdViolation)
	ErrInvalidThresholdOrder    = fmt.Errorf("%w: thresholds must satisfy liquidation < premium redeem < secure", ErrThresholdViolation)
	ErrThresholdNotAboveGlobal  = fmt.Errorf("%w: custom threshold must exceed the global secure threshold", ErrThresholdViolation)
	ErrVaultBanned              = fmt.Errorf("%w: vault is temporarily banned", ErrBanned)
	errNilState                 = errors.New("vault registry: state not configured")
	errNilCollaborator          = errors.New("vault registry: oracle, ledger and pool manager are required")
)

// tokensCommitted wraps a counter underflow so callers can match either the
// committed-tokens kind or the arithmetic cause.
func tokensCommitted(err error) error {
	if errors.Is(err, currency.ErrUnderflow) {
		return fmt.Errorf("%w: %w", ErrInsufficientTokensCommitted, err)
	}
	return err
}

func init() {
	metrics.RegisterErrorKind(ErrNotFound, "not_found")
	metrics.RegisterErrorKind(ErrInvalidState, "invalid_state")
	metrics.RegisterErrorKind(ErrInsufficientFunds, "insufficient_funds")
	metrics.RegisterErrorKind(ErrInsufficientTokensCommitted, "insufficient_tokens_committed")
	metrics.RegisterErrorKind(ErrThresholdViolation, "threshold_violation")
	metrics.RegisterErrorKind(ErrBanned, "banned")
	metrics.RegisterErrorKind(ErrArithmeticOverflow, "overflow")
	metrics.RegisterErrorKind(ErrArithmeticUnderflow, "underflow")
}
