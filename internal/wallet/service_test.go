package wallet

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, balance int64) (*Service, *MemoryRepository, uuid.UUID) {
	t.Helper()
	repo := NewMemoryRepository()
	userID := uuid.New()
	repo.CreateWallet(userID, balance)
	return NewService(repo), repo, userID
}

func TestServiceCredit(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := newTestWallet(t, 120000)

	txn, err := svc.Credit(ctx, userID, 50000, "refund:apt-42")
	require.NoError(t, err)

	assert.Equal(t, TypeCredit, txn.Type)
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.Equal(t, int64(120000), txn.BalanceBefore)
	assert.Equal(t, int64(170000), txn.BalanceAfter)
	assert.Equal(t, "refund:apt-42", txn.Reference)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(170000), balance)
}

func TestServiceDebit(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := newTestWallet(t, 120000)

	txn, err := svc.Debit(ctx, userID, 30000, "booking:apt-7")
	require.NoError(t, err)

	assert.Equal(t, TypeDebit, txn.Type)
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.Equal(t, int64(120000), txn.BalanceBefore)
	assert.Equal(t, int64(90000), txn.BalanceAfter)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(90000), balance)

	t.Run("exact balance drains to zero", func(t *testing.T) {
		txn, err := svc.Debit(ctx, userID, 90000, "booking:apt-8")
		require.NoError(t, err)
		assert.Equal(t, int64(0), txn.BalanceAfter)
	})
}

func TestServiceDebit_Insufficient(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := newTestWallet(t, 10000)

	txn, err := svc.Debit(ctx, userID, 25000, "booking:apt-9")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The overdraw still leaves an audit trail and never touches the balance.
	require.NotNil(t, txn)
	assert.Equal(t, StatusFailed, txn.Status)
	assert.Equal(t, int64(10000), txn.BalanceBefore)
	assert.Equal(t, int64(10000), txn.BalanceAfter)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	txns, err := svc.ListTransactions(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, StatusFailed, txns[0].Status)
}

func TestServiceInvalidAmount(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := newTestWallet(t, 10000)

	for _, amount := range []int64{0, -1, -50000} {
		_, err := svc.Credit(ctx, userID, amount, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.Debit(ctx, userID, amount, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	txns, err := svc.ListTransactions(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txns, "rejected amounts never reach the ledger")
}

func TestServiceUnknownWallet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())
	stranger := uuid.New()

	_, err := svc.Credit(ctx, stranger, 100, "x")
	assert.ErrorIs(t, err, ErrWalletNotFound)

	_, err = svc.Balance(ctx, stranger)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

// Concurrent mutations must serialize: the final balance and every snapshot
// pair have to line up with some total order of the ledger.
func TestServiceConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := newTestWallet(t, 0)

	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Credit(ctx, userID, 1000, fmt.Sprintf("topup:%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*1000), balance)

	txns, err := svc.ListTransactions(ctx, userID, 100, 0)
	require.NoError(t, err)
	require.Len(t, txns, workers)

	for _, txn := range txns {
		assert.Equal(t, txn.BalanceBefore+txn.Amount, txn.BalanceAfter,
			"snapshot invariant for %s", txn.Reference)
	}
}

func TestServiceListTransactions(t *testing.T) {
	ctx := context.Background()
	svc, _, userID := newTestWallet(t, 100000)

	for i := 0; i < 5; i++ {
		_, err := svc.Debit(ctx, userID, 1000, fmt.Sprintf("booking:%d", i))
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		txns, err := svc.ListTransactions(ctx, userID, 10, 0)
		require.NoError(t, err)
		require.Len(t, txns, 5)
		assert.Equal(t, "booking:4", txns[0].Reference)
		assert.Equal(t, "booking:0", txns[4].Reference)
	})

	t.Run("pagination", func(t *testing.T) {
		txns, err := svc.ListTransactions(ctx, userID, 2, 2)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "booking:2", txns[0].Reference)
	})

	t.Run("offset past end", func(t *testing.T) {
		txns, err := svc.ListTransactions(ctx, userID, 10, 50)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		txns, err := svc.ListTransactions(ctx, uuid.New(), 10, 0)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}
