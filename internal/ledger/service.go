package ledger

import (
	"context"                     // Context for store round-trips
	"myshoptools/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Fixed-point money
)

// Service maintains race-free balance mutations for single wallets and for
// two-party transfers, with an append-only history of every mutation. All
// concurrency correctness is delegated to the Store's transaction primitive:
// the service issues exactly one transaction per logical operation.
type Service struct {
	store Store
}

// NewService creates a ledger service on top of a Store
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateWallet creates a zero-balance wallet for the user. A second call for
// the same user fails with ErrWalletExists and leaves no duplicate record.
func (s *Service) CreateWallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	wallet := &domain.Wallet{UserID: userID, Balance: decimal.Zero}
	if err := s.store.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetBalance returns the current balance of the user's wallet
func (s *Service) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	wallet, err := s.store.Wallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// GetWallet returns the user's wallet record
func (s *Service) GetWallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	return s.store.Wallet(ctx, userID)
}

// AddFunds credits the wallet and appends a credit history entry carrying the
// post-mutation balance snapshot. Read, write and append happen inside one
// transaction so concurrent credits against the same wallet cannot lose updates.
func (s *Service) AddFunds(ctx context.Context, userID uint, amount decimal.Decimal, method string, productID *string) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var updated *domain.Wallet
	err := s.store.RunInTransaction(ctx, func(tx Tx) error {
		wallet, err := tx.WalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, wallet.ID, wallet.Balance); err != nil {
			return err
		}
		entry := &domain.LedgerEntry{
			UserID:    userID,
			Type:      domain.EntryCredit,
			Amount:    amount,
			Method:    method,
			ProductID: productID,
			Balance:   wallet.Balance,
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}
		updated = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// WithdrawFunds debits the wallet. The sufficiency check runs inside the same
// transaction as the debit, so two concurrent withdrawals cannot both pass on
// a stale balance. Appends a debit entry tagged method "withdrawal".
func (s *Service) WithdrawFunds(ctx context.Context, userID uint, amount decimal.Decimal) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var updated *domain.Wallet
	err := s.store.RunInTransaction(ctx, func(tx Tx) error {
		wallet, err := tx.WalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		wallet.Balance = wallet.Balance.Sub(amount)
		if err := tx.UpdateBalance(ctx, wallet.ID, wallet.Balance); err != nil {
			return err
		}
		entry := &domain.LedgerEntry{
			UserID:  userID,
			Type:    domain.EntryDebit,
			Amount:  amount,
			Method:  domain.MethodWithdrawal,
			Balance: wallet.Balance,
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}
		updated = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PayToSupplier moves amount from the buyer's wallet to the supplier's wallet
// as one atomic unit: debit, credit and both history entries commit together
// or not at all. On ErrInsufficientFunds or ErrWalletNotFound neither wallet
// is mutated. Wallets are locked in ascending user id order so two opposing
// transfers cannot deadlock each other.
func (s *Service) PayToSupplier(ctx context.Context, buyerID, supplierID uint, amount decimal.Decimal, productID string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if buyerID == supplierID {
		return ErrInvalidAmount
	}
	return s.store.RunInTransaction(ctx, func(tx Tx) error {
		// Deterministic lock order across both wallets
		firstID, secondID := buyerID, supplierID
		if supplierID < buyerID {
			firstID, secondID = supplierID, buyerID
		}
		first, err := tx.WalletForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.WalletForUpdate(ctx, secondID)
		if err != nil {
			return err
		}
		buyer, supplier := first, second
		if buyer.UserID != buyerID {
			buyer, supplier = second, first
		}
		if buyer.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		buyer.Balance = buyer.Balance.Sub(amount)
		supplier.Balance = supplier.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, buyer.ID, buyer.Balance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, supplier.ID, supplier.Balance); err != nil {
			return err
		}
		debit := &domain.LedgerEntry{
			UserID:    buyerID,
			Type:      domain.EntryDebit,
			Amount:    amount,
			Method:    domain.MethodProductPayment,
			ProductID: &productID,
			Balance:   buyer.Balance,
		}
		if err := tx.AppendEntry(ctx, debit); err != nil {
			return err
		}
		credit := &domain.LedgerEntry{
			UserID:    supplierID,
			Type:      domain.EntryCredit,
			Amount:    amount,
			Method:    domain.MethodProductSale,
			ProductID: &productID,
			Balance:   supplier.Balance,
		}
		return tx.AppendEntry(ctx, credit)
	})
}

// GetHistory returns every history entry for the user in insertion order
func (s *Service) GetHistory(ctx context.Context, userID uint) ([]domain.LedgerEntry, error) {
	return s.store.Entries(ctx, userID)
}
