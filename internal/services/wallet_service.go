package services

import (
	"context"
	"fmt"

	"pixcards/internal/domain"
	"pixcards/internal/metrics"
	"pixcards/internal/repos"
)

// WalletService keeps balances non-negative and writes one entry per movement.
type WalletService struct {
	Repo *repos.WalletRepo
	UoW  *repos.UnitOfWork
}

func NewWalletService(repo *repos.WalletRepo, uow *repos.UnitOfWork) *WalletService {
	return &WalletService{Repo: repo, UoW: uow}
}

func (s *WalletService) Balance(ctx context.Context, userID string) (domain.Cents, error) {
	return s.Repo.Balance(ctx, userID)
}

// Debit fails with ErrInsufficientFunds instead of letting the balance go negative.
func (s *WalletService) Debit(ctx context.Context, userID string, amount domain.Cents, reason domain.EntryReason, ref string) error {
	if amount < 0 {
		return fmt.Errorf("%w: debit amount %s is negative", domain.ErrValidation, amount)
	}
	if amount == 0 {
		return nil
	}
	return s.UoW.Run(ctx, func(ctx context.Context) error {
		ok, err := s.Repo.Debit(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("debit %s from %s: %w", amount, userID, domain.ErrInsufficientFunds)
		}
		return s.record(ctx, userID, -amount, reason, ref)
	})
}

func (s *WalletService) Credit(ctx context.Context, userID string, amount domain.Cents, reason domain.EntryReason, ref string) error {
	if amount < 0 {
		return fmt.Errorf("%w: credit amount %s is negative", domain.ErrValidation, amount)
	}
	if amount == 0 {
		return nil
	}
	return s.UoW.Run(ctx, func(ctx context.Context) error {
		if err := s.Repo.Credit(ctx, userID, amount); err != nil {
			return err
		}
		return s.record(ctx, userID, amount, reason, ref)
	})
}

func (s *WalletService) record(ctx context.Context, userID string, delta domain.Cents, reason domain.EntryReason, ref string) error {
	if err := s.Repo.AddEntry(ctx, domain.WalletEntry{UserID: userID, Delta: delta, Reason: reason, Reference: ref}); err != nil {
		return fmt.Errorf("wallet entry: %w", err)
	}
	repos.AfterCommit(ctx, func() { metrics.WalletMovements.WithLabelValues(string(reason)).Inc() })
	return nil
}

func (s *WalletService) Entries(ctx context.Context, userID string, limit int) ([]domain.WalletEntry, error) {
	return s.Repo.Entries(ctx, userID, limit)
}
