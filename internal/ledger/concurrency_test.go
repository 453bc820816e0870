package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddFunds_ConcurrentCreditsLoseNothing(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	_, err := svc.CreateWallet(ctx, 1)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddFunds(ctx, 1, dec("10"), "x", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("100")), "expected 100, got %s", balance)

	history, err := svc.GetHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, workers)
}

func TestWithdrawFunds_ConcurrentDebitsNeverGoNegative(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	_, err := svc.CreateWallet(ctx, 1)
	require.NoError(t, err)
	_, err = svc.AddFunds(ctx, 1, dec("100"), "pix", nil)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.WithdrawFunds(ctx, 1, dec("30"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, errors.Is(err, ErrInsufficientFunds))
	}
	// 100 funds only 3 withdrawals of 30 in any serial order
	require.Equal(t, 3, succeeded)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("10")), "expected 10, got %s", balance)
	require.False(t, balance.IsNegative())
}

func TestPayToSupplier_ConcurrentOpposingTransfers(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	_, err := svc.CreateWallet(ctx, 1)
	require.NoError(t, err)
	_, err = svc.CreateWallet(ctx, 2)
	require.NoError(t, err)
	_, err = svc.AddFunds(ctx, 1, dec("500"), "pix", nil)
	require.NoError(t, err)
	_, err = svc.AddFunds(ctx, 2, dec("500"), "pix", nil)
	require.NoError(t, err)

	const rounds = 20
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.PayToSupplier(ctx, 1, 2, dec("5"), "prod-a")
		}()
		go func() {
			defer wg.Done()
			_ = svc.PayToSupplier(ctx, 2, 1, dec("5"), "prod-b")
		}()
	}
	wg.Wait()

	// Total funds conserved no matter how the transfers interleaved
	b1, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	b2, err := svc.GetBalance(ctx, 2)
	require.NoError(t, err)
	require.True(t, b1.Add(b2).Equal(dec("1000")), "expected 1000 total, got %s", b1.Add(b2))
	require.False(t, b1.IsNegative())
	require.False(t, b2.IsNegative())
}
