package nomination

import "errors"

var (
	ErrNominationDisabled     = errors.New("nomination: disabled")
	ErrVaultNotOptedIn        = errors.New("nomination: vault not opted in")
	ErrVaultAlreadyOptedIn    = errors.New("nomination: vault already opted in")
	ErrNominationExceedsLimit = errors.New("nomination: exceeds vault limit")
	ErrNotVaultOwner          = errors.New("nomination: caller does not own the vault")
	ErrInvalidAmount          = errors.New("nomination: amount must be positive")

	errNilState    = errors.New("nomination: state not configured")
	errNilRegistry = errors.New("nomination: registry not configured")
)
