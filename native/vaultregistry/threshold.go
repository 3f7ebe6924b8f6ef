package vaultregistry

import (
	"errors"

	"vaultchain/core/currency"
)

// Converter converts an amount into another currency at the current exchange
// rate.
type Converter interface {
	Convert(amount currency.Amount, to currency.ID) (currency.Amount, error)
}

// MaxTokensForCollateral returns the largest token amount that collateral can
// back at threshold. A zero threshold yields zero tokens.
func MaxTokensForCollateral(conv Converter, collateral currency.Amount, wrapped currency.ID, threshold currency.Ratio) (currency.Amount, error) {
	if threshold == 0 {
		return currency.Zero(wrapped), nil
	}
	value, err := conv.Convert(collateral, wrapped)
	if err != nil {
		return currency.Amount{}, err
	}
	return value.DivRatio(threshold)
}

// IsBelowThreshold reports whether collateral backs fewer than tokens at
// threshold.
func IsBelowThreshold(conv Converter, collateral, tokens currency.Amount, threshold currency.Ratio) (bool, error) {
	max, err := MaxTokensForCollateral(conv, collateral, tokens.Currency(), threshold)
	if err != nil {
		return false, err
	}
	return max.Lt(tokens), nil
}

// UsedCollateral returns the collateral needed to back tokens at threshold,
// capped at total.
func UsedCollateral(conv Converter, tokens currency.Amount, threshold currency.Ratio, total currency.Amount) (currency.Amount, error) {
	value, err := conv.Convert(tokens, total.Currency())
	if err != nil {
		return currency.Amount{}, err
	}
	required, err := value.MulRatio(threshold)
	if err != nil {
		return currency.Amount{}, err
	}
	return required.Min(total), nil
}

// CalculateCollateral returns floor(collateral * numerator / denominator).
// Equal arguments, including 0/0, return collateral unchanged.
func CalculateCollateral(collateral, numerator, denominator currency.Amount) (currency.Amount, error) {
	if numerator.Cmp(denominator) == 0 {
		return collateral, nil
	}
	out, err := collateral.MulDivAmounts(numerator, denominator)
	if errors.Is(err, currency.ErrDivisionByZero) {
		return currency.Amount{}, currency.ErrUnderflow
	}
	return out, err
}
