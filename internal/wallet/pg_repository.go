package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

var _ Repository = (*PgRepository)(nil)

// Apply runs the whole credit/debit as a single DB transaction: the wallet
// row is locked, the ledger entry is inserted with its balance snapshots and
// the balance is updated, then everything commits together. The ledger and
// the balance cannot diverge.
func (r *PgRepository) Apply(ctx context.Context, userID uuid.UUID, txType TransactionType, amount int64, reference string) (*Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin wallet tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("lock wallet: %w", err)
	}

	entry := &Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balance,
		Reference:     reference,
	}

	if txType == TypeDebit && amount > balance {
		entry.Status = StatusFailed
		entry.BalanceAfter = balance
		if err := insertTransaction(ctx, tx, entry); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit wallet tx: %w", err)
		}
		return entry, ErrInsufficientBalance
	}

	entry.Status = StatusCompleted
	if txType == TypeCredit {
		entry.BalanceAfter = balance + amount
	} else {
		entry.BalanceAfter = balance - amount
	}

	if err := insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = $2,
		    updated_at = now()
		WHERE user_id = $1
		  AND balance = $3
	`, userID, entry.BalanceAfter, entry.BalanceBefore)
	if err != nil {
		return nil, fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Cannot happen while we hold the row lock; abort rather than
		// commit a divergent ledger.
		return nil, fmt.Errorf("wallet balance moved under lock for user %s", userID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit wallet tx: %w", err)
	}

	return entry, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, entry *Transaction) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions (
			id, user_id, transaction_type, status, amount,
			balance_before, balance_after, reference, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING created_at
	`,
		entry.ID, entry.UserID, entry.Type, entry.Status, entry.Amount,
		entry.BalanceBefore, entry.BalanceAfter, entry.Reference,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

func (r *PgRepository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		SELECT balance
		FROM wallets
		WHERE user_id = $1
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrWalletNotFound
		}
		return 0, fmt.Errorf("read wallet balance: %w", err)
	}
	return balance, nil
}

func (r *PgRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, transaction_type, status, amount,
		       balance_before, balance_after, reference, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Type, &t.Status, &t.Amount,
			&t.BalanceBefore, &t.BalanceAfter, &t.Reference, &t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
