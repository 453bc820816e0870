package ledger

import (
	"context" // Context parameters of the Store interface
	"sync"    // Mutex serializing transactions
	"myshoptools/internal/domain"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store used by the service tests. Transactions are
// serialized by a mutex and staged: nothing touches committed state until fn
// returns nil, so a failing operation leaves wallets and history untouched,
// matching the atomicity contract of the production store.
type memStore struct {
	mu           sync.Mutex
	nextWalletID uint
	wallets      map[uint]*domain.Wallet // keyed by user id
	entries      []domain.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{wallets: make(map[uint]*domain.Wallet)}
}

func (s *memStore) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[wallet.UserID]; ok {
		return ErrWalletExists
	}
	s.nextWalletID++
	wallet.ID = s.nextWalletID
	stored := *wallet
	s.wallets[wallet.UserID] = &stored
	return nil
}

func (s *memStore) Wallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	copied := *wallet
	return &copied, nil
}

func (s *memStore) Entries(ctx context.Context, userID uint) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) RunInTransaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{
		store:    s,
		balances: make(map[uint]decimal.Decimal),
	}
	if err := fn(tx); err != nil {
		return err // staged changes discarded
	}
	// Commit staged balances and entries
	for walletID, balance := range tx.balances {
		for _, wallet := range s.wallets {
			if wallet.ID == walletID {
				wallet.Balance = balance
			}
		}
	}
	s.entries = append(s.entries, tx.staged...)
	return nil
}

// memTx stages mutations until the transaction commits
type memTx struct {
	store    *memStore
	balances map[uint]decimal.Decimal // staged balances by wallet id
	staged   []domain.LedgerEntry     // staged history entries
}

func (t *memTx) WalletForUpdate(ctx context.Context, userID uint) (*domain.Wallet, error) {
	wallet, ok := t.store.wallets[userID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	copied := *wallet
	if balance, ok := t.balances[wallet.ID]; ok {
		copied.Balance = balance
	}
	return &copied, nil
}

func (t *memTx) UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error {
	t.balances[walletID] = balance
	return nil
}

func (t *memTx) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	staged := *entry
	staged.ID = uint(len(t.store.entries) + len(t.staged) + 1)
	t.staged = append(t.staged, staged)
	return nil
}
