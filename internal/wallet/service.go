package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Credit adds amount to the user's wallet and records the ledger entry.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.Apply(ctx, userID, TypeCredit, amount, reference)
}

// Debit removes amount from the user's wallet. An overdraw records a failed
// transaction and returns ErrInsufficientBalance.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.Apply(ctx, userID, TypeDebit, amount, reference)
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	txns, err := s.repo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return txns, nil
}
