package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixcards/internal/domain"
	"pixcards/internal/events"
	"pixcards/internal/metrics"
	"pixcards/internal/repos"
	"pixcards/internal/validate"
)

const (
	maxVoucherBatch = 500
	codeLen         = 16
	maxCodeAttempts = 8
)

type VoucherService struct {
	Repo   *repos.VoucherRepo
	Wallet *WalletService
	Outbox *repos.OutboxRepo
	UoW    *repos.UnitOfWork
	Topic  string
	Logger *zap.Logger
}

func NewVoucherService(repo *repos.VoucherRepo, wallet *WalletService, outbox *repos.OutboxRepo, uow *repos.UnitOfWork, topic string, logger *zap.Logger) *VoucherService {
	return &VoucherService{Repo: repo, Wallet: wallet, Outbox: outbox, UoW: uow, Topic: topic, Logger: logger}
}

// Generate creates quantity unredeemed vouchers worth value each and returns their codes.
func (s *VoucherService) Generate(ctx context.Context, value domain.Cents, quantity int) ([]string, error) {
	if value <= 0 {
		return nil, fmt.Errorf("%w: voucher value must be positive", domain.ErrValidation)
	}
	if quantity < 1 || quantity > maxVoucherBatch {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrValidation, maxVoucherBatch)
	}
	codes := make([]string, 0, quantity)
	err := s.UoW.Run(ctx, func(ctx context.Context) error {
		codes = codes[:0]
		for len(codes) < quantity {
			code, err := s.freshCode(ctx)
			if err != nil {
				return err
			}
			if err := s.Repo.Insert(ctx, domain.Voucher{ID: uuid.NewString(), Code: code, Value: value}); err != nil {
				return fmt.Errorf("insert voucher: %w", err)
			}
			codes = append(codes, code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("vouchers generated", zap.Int("count", len(codes)), zap.String("value", value.String()))
	return codes, nil
}

func (s *VoucherService) freshCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		taken, err := s.Repo.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique voucher code")
}

// newCode draws 16 symbols from a 32 symbol alphabet, 5 bits each.
func newCode() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = validate.CodeAlphabet[b&31]
	}
	return validate.GroupCode(string(buf)), nil
}

// Redeem credits the voucher value to userID exactly once.
func (s *VoucherService) Redeem(ctx context.Context, code, userID string) (domain.RedeemResult, error) {
	canon, ok := validate.VoucherCode(code)
	if !ok {
		metrics.VoucherRejections.WithLabelValues("malformed").Inc()
		return domain.RedeemResult{}, fmt.Errorf("voucher: %w", domain.ErrNotFound)
	}
	var res domain.RedeemResult
	err := s.UoW.Run(ctx, func(ctx context.Context) error {
		ok, err := s.Repo.MarkRedeemed(ctx, canon, userID)
		if err != nil {
			return err
		}
		if !ok {
			if _, err := s.Repo.Get(ctx, canon); err != nil {
				return err
			}
			return fmt.Errorf("voucher %s: %w", canon, domain.ErrAlreadyRedeemed)
		}
		v, err := s.Repo.Get(ctx, canon)
		if err != nil {
			return err
		}
		if err := s.Wallet.Credit(ctx, userID, v.Value, domain.ReasonVoucherCredit, canon); err != nil {
			return err
		}
		bal, err := s.Wallet.Balance(ctx, userID)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(events.VoucherRedeemed{Code: canon, UserID: userID, Value: v.Value.String(), RedeemedAt: v.RedeemedAt})
		if err != nil {
			return err
		}
		if err := s.Outbox.Add(ctx, s.Topic, canon, events.TypeVoucherRedeemed, payload); err != nil {
			return fmt.Errorf("outbox: %w", err)
		}
		res = domain.RedeemResult{ValueCredited: v.Value, NewBalance: bal}
		return nil
	})
	switch {
	case err == nil:
		metrics.VouchersRedeemed.Inc()
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		metrics.VoucherRejections.WithLabelValues("already_redeemed").Inc()
	case errors.Is(err, domain.ErrNotFound):
		metrics.VoucherRejections.WithLabelValues("unknown").Inc()
	}
	return res, err
}

func (s *VoucherService) List(ctx context.Context, limit int) ([]domain.Voucher, error) {
	return s.Repo.List(ctx, limit)
}
