package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one ledger entry. Amounts are int64 minor units. A
// completed transaction always carries balance snapshots satisfying
// BalanceAfter = BalanceBefore + Amount (credit) or - Amount (debit), written
// in the same store transaction as the balance mutation itself.
type Transaction struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          TransactionType
	Status        TransactionStatus
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Reference     string
	CreatedAt     time.Time
}

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)
