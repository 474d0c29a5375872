package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository mirrors PgRepository semantics in process, for tests.
type MemoryRepository struct {
	mu           sync.Mutex
	balances     map[uuid.UUID]int64
	transactions []Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		balances: make(map[uuid.UUID]int64),
	}
}

var _ Repository = (*MemoryRepository)(nil)

// CreateWallet opens a wallet with an initial balance.
func (r *MemoryRepository) CreateWallet(userID uuid.UUID, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = balance
}

func (r *MemoryRepository) Apply(ctx context.Context, userID uuid.UUID, txType TransactionType, amount int64, reference string) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[userID]
	if !ok {
		return nil, ErrWalletNotFound
	}

	entry := Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balance,
		Reference:     reference,
		CreatedAt:     time.Now(),
	}

	if txType == TypeDebit && amount > balance {
		entry.Status = StatusFailed
		entry.BalanceAfter = balance
		r.transactions = append(r.transactions, entry)
		return &entry, ErrInsufficientBalance
	}

	entry.Status = StatusCompleted
	if txType == TypeCredit {
		entry.BalanceAfter = balance + amount
	} else {
		entry.BalanceAfter = balance - amount
	}

	// Ledger entry and balance mutation land under the same lock, matching
	// the single-transaction guarantee of the pg implementation.
	r.transactions = append(r.transactions, entry)
	r.balances[userID] = entry.BalanceAfter

	return &entry, nil
}

func (r *MemoryRepository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[userID]
	if !ok {
		return 0, ErrWalletNotFound
	}
	return balance, nil
}

func (r *MemoryRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID == userID {
			result = append(result, r.transactions[i])
		}
	}

	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
