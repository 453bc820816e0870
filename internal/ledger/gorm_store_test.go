package ledger

import (
	"context"
	"testing"
	"time"
	"myshoptools/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupStoreMock(t *testing.T) (*GormStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	store := NewGormStore(gdb, 2)
	closer := func() { db.Close() }
	return store, mock, closer
}

func walletRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"})
}

func TestGormStore_WalletNotFound(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	mock.ExpectQuery("SELECT (.+) FROM `wallets`").
		WillReturnRows(walletRows())

	_, err := store.Wallet(context.Background(), 1)
	require.ErrorIs(t, err, ErrWalletNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_WalletFound(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").
		WillReturnRows(walletRows().AddRow(5, 1, "100.0000", now, now))

	wallet, err := store.Wallet(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(5), wallet.ID)
	require.True(t, wallet.Balance.Equal(dec("100")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateWalletDuplicate(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	mock.ExpectExec("INSERT INTO `wallets`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'idx_wallets_user_id'"})

	err := store.CreateWallet(context.Background(), &domain.Wallet{UserID: 1})
	require.ErrorIs(t, err, ErrWalletExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Entries(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "method", "product_id", "balance", "created_at"}).
		AddRow(1, 1, "credit", "200.0000", "pix", nil, "200.0000", now).
		AddRow(2, 1, "debit", "50.0000", "product_payment", "prod-1", "150.0000", now)
	mock.ExpectQuery("SELECT (.+) FROM `wallet_history`").
		WillReturnRows(rows)

	entries, err := store.Entries(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.EntryCredit, entries[0].Type)
	require.True(t, entries[1].Balance.Equal(dec("150")))
	require.NoError(t, mock.ExpectationsWereMet())
}

// creditFn mirrors what the service does inside one AddFunds transaction
func creditFn(ctx context.Context, userID uint) func(tx Tx) error {
	return func(tx Tx) error {
		wallet, err := tx.WalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Add(dec("10"))
		if err := tx.UpdateBalance(ctx, wallet.ID, wallet.Balance); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, &domain.LedgerEntry{
			UserID:  userID,
			Type:    domain.EntryCredit,
			Amount:  dec("10"),
			Method:  "pix",
			Balance: wallet.Balance,
		})
	}
}

func TestGormStore_RetriesDeadlockThenSucceeds(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	now := time.Now()

	// First attempt deadlocks on the locked read and rolls back
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `wallets`(.+)FOR UPDATE").
		WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectRollback()

	// Second attempt commits
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `wallets`(.+)FOR UPDATE").
		WillReturnRows(walletRows().AddRow(5, 1, "100.0000", now, now))
	mock.ExpectExec("UPDATE `wallets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `wallet_history`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	err := store.RunInTransaction(ctx, creditFn(ctx, 1))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ConflictSurfacesAfterRetries(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	// Both attempts of the retry budget deadlock
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `wallets`(.+)FOR UPDATE").
			WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
		mock.ExpectRollback()
	}

	ctx := context.Background()
	err := store.RunInTransaction(ctx, creditFn(ctx, 1))
	require.ErrorIs(t, err, ErrTxConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ConflictLogsRetryOnlyBetweenAttempts(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	hook := logtest.NewGlobal()
	defer hook.Reset()

	// Both attempts of the retry budget deadlock
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM `wallets`(.+)FOR UPDATE").
			WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
		mock.ExpectRollback()
	}

	ctx := context.Background()
	err := store.RunInTransaction(ctx, creditFn(ctx, 1))
	require.ErrorIs(t, err, ErrTxConflict)

	retries := 0
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Ledger transaction conflict, retrying" {
			retries++
		}
	}
	// Two attempts mean one retry between them; the exhausted final attempt
	// must not announce a retry that never happens
	require.Equal(t, 1, retries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DomainErrorNotRetried(t *testing.T) {
	store, mock, close := setupStoreMock(t)
	defer close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `wallets`(.+)FOR UPDATE").
		WillReturnRows(walletRows().AddRow(5, 1, "20.0000", now, now))
	mock.ExpectRollback()

	ctx := context.Background()
	err := store.RunInTransaction(ctx, func(tx Tx) error {
		wallet, err := tx.WalletForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(dec("50")) {
			return ErrInsufficientFunds
		}
		return nil
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}
