package ledger

import (
	"context"                     // Context for query scoping
	"errors"                      // Error matching
	"fmt"                         // Error wrapping
	"myshoptools/internal/domain" // Importing domain models

	"github.com/go-sql-driver/mysql" // MySQL driver error codes
	"github.com/shopspring/decimal"  // Fixed-point money
	"github.com/sirupsen/logrus"     // Logging library
	"gorm.io/gorm"                   // GORM ORM library
	"gorm.io/gorm/clause"            // Row locking clause
)

// MySQL error numbers the store treats as transient serialization conflicts
const (
	mysqlErrDuplicateEntry = 1062 // Unique index violation
	mysqlErrLockWait       = 1205 // Lock wait timeout exceeded
	mysqlErrDeadlock       = 1213 // Deadlock found when trying to get lock
)

// GormStore implements Store on a MySQL database through GORM. Row locks
// (SELECT ... FOR UPDATE) serialize concurrent operations against the same
// wallet; deadlocks and lock-wait timeouts are retried up to maxRetries
// before surfacing ErrTxConflict.
type GormStore struct {
	db         *gorm.DB // Database handle
	maxRetries int      // Transient-conflict retry budget per transaction
}

// NewGormStore creates a GormStore. maxRetries below 1 falls back to 1.
func NewGormStore(db *gorm.DB, maxRetries int) *GormStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &GormStore{db: db, maxRetries: maxRetries}
}

// CreateWallet inserts the wallet; the unique index on user_id turns a
// duplicate create into ErrWalletExists with no second record written
func (s *GormStore) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	if err := s.db.WithContext(ctx).Create(wallet).Error; err != nil {
		if isMySQLErr(err, mysqlErrDuplicateEntry) {
			return ErrWalletExists
		}
		return err
	}
	return nil
}

// Wallet reads the user's wallet without locking
func (s *GormStore) Wallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// Entries returns all history records for the user in insertion order
func (s *GormStore) Entries(ctx context.Context, userID uint) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// RunInTransaction wraps fn in a database transaction, retrying the whole
// transaction on transient serialization conflicts
func (s *GormStore) RunInTransaction(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTx{tx: tx})
		})
		if !isRetryable(err) {
			return err
		}
		// Only log a retry when one actually follows
		if attempt < s.maxRetries {
			logrus.WithFields(logrus.Fields{
				"attempt": attempt,     // Attempt number
				"error":   err.Error(), // Conflict error
			}).Warn("Ledger transaction conflict, retrying")
		}
	}
	return fmt.Errorf("%w: %v", ErrTxConflict, err)
}

// gormTx adapts a *gorm.DB transaction handle to the Tx interface
type gormTx struct {
	tx *gorm.DB
}

// WalletForUpdate reads the wallet under SELECT ... FOR UPDATE
func (t *gormTx) WalletForUpdate(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := t.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// UpdateBalance writes the new balance (GORM also touches updated_at)
func (t *gormTx) UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error {
	return t.tx.Model(&domain.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", balance).Error
}

// AppendEntry inserts an immutable history record
func (t *gormTx) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	return t.tx.Create(entry).Error
}

// isMySQLErr reports whether err is a MySQL error with the given number
func isMySQLErr(err error, number uint16) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == number
}

// isRetryable reports whether the transaction failed on a transient conflict
func isRetryable(err error) bool {
	return isMySQLErr(err, mysqlErrDeadlock) || isMySQLErr(err, mysqlErrLockWait)
}
