package ledger

import "errors"

// Ledger error taxonomy. Handlers match these with errors.Is and map them
// to HTTP status codes; none of them is retried inside this package.
var (
	ErrWalletNotFound    = errors.New("wallet not found")                     // Referenced wallet does not exist
	ErrWalletExists      = errors.New("wallet already exists")                // Duplicate create for the same user
	ErrInvalidAmount     = errors.New("amount must be positive")              // Zero, negative or self-directed amount
	ErrInsufficientFunds = errors.New("insufficient funds")                   // Debit would drive the balance negative
	ErrTxConflict        = errors.New("transaction conflict, not serialized") // Store gave up after conflict retries
)
