package ledger

import "errors"

// Sentinel errors for the accounting core. Handlers map these to HTTP
// statuses; nothing in this package knows about transports.
var (
	// ErrMissingKey indicates no API key was presented.
	ErrMissingKey = errors.New("API key required")
	// ErrInvalidKey indicates the presented key resolves to no account.
	ErrInvalidKey = errors.New("invalid API key")
	// ErrAccountNotFound indicates a store lookup found no account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrIdentityExists indicates an account already exists for the identity.
	ErrIdentityExists = errors.New("identity already registered")
	// ErrInsufficientCredits indicates the balance cannot cover the cost.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidAmount indicates a recharge amount that is not a positive
	// multiple of the configured unit.
	ErrInvalidAmount = errors.New("amount must be a positive multiple of the recharge unit")
	// ErrUnknownOperation indicates an operation name with no registered handler.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidArgs indicates operation arguments that failed validation.
	ErrInvalidArgs = errors.New("invalid operation arguments")
	// ErrInvalidCost indicates a non-positive operation cost. Costs are
	// configured, not user input, so this aborts the request.
	ErrInvalidCost = errors.New("operation cost must be positive")
)
