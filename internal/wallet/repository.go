package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository applies ledger entries. Implementations must write the entry
// and the balance mutation as one atomic unit; a completed entry without its
// balance update (or the reverse) must be impossible by construction.
type Repository interface {
	// Apply credits or debits the wallet, recording a completed transaction
	// with balance snapshots. A debit exceeding the balance records a
	// failed transaction, leaves the balance untouched and returns
	// ErrInsufficientBalance alongside the failed entry.
	Apply(ctx context.Context, userID uuid.UUID, txType TransactionType, amount int64, reference string) (*Transaction, error)

	Balance(ctx context.Context, userID uuid.UUID) (int64, error)

	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
}
