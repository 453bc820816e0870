package ledger

import (
	"context"                 // Context for store round-trips
	"myshoptools/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Fixed-point money
)

// Tx is the view of the store inside one atomic transaction. Every mutation
// the service performs goes through a Tx so the read-check-write sequence is
// never split across transactions.
type Tx interface {
	// WalletForUpdate reads a wallet with a write lock held until commit.
	// Returns ErrWalletNotFound if the user has no wallet.
	WalletForUpdate(ctx context.Context, userID uint) (*domain.Wallet, error)
	// UpdateBalance writes a new balance for the given wallet.
	UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error
	// AppendEntry appends an immutable history record.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error
}

// Store abstracts the persistence layer behind the ledger. The production
// implementation is GORM over MySQL (GormStore); tests supply mocks and an
// in-memory store.
type Store interface {
	// CreateWallet inserts a wallet record. Returns ErrWalletExists if the
	// user already owns one (unique index on user_id).
	CreateWallet(ctx context.Context, wallet *domain.Wallet) error
	// Wallet reads a wallet without locking. Returns ErrWalletNotFound if absent.
	Wallet(ctx context.Context, userID uint) (*domain.Wallet, error)
	// Entries returns all history records for a user in insertion order.
	Entries(ctx context.Context, userID uint) ([]domain.LedgerEntry, error)
	// RunInTransaction runs fn atomically: either every mutation made through
	// the Tx commits, or none does. Transient serialization conflicts are
	// retried internally; ErrTxConflict surfaces once retries are exhausted.
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
}
