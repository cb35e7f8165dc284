package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixcards/internal/domain"
	"pixcards/internal/events"
	"pixcards/internal/metrics"
	"pixcards/internal/pix"
	"pixcards/internal/repos"
	"pixcards/internal/validate"
)

var errNoPixKey = errors.New("no pix key configured")

type Merchant struct {
	Name string
	City string
}

// OrderService runs checkout and the order state machine.
type OrderService struct {
	Orders   *repos.OrderRepo
	Products *repos.ProductRepo
	Alloc    *Allocator
	Wallet   *WalletService
	Settings *SettingsService
	Outbox   *repos.OutboxRepo
	UoW      *repos.UnitOfWork
	Merchant Merchant
	Topic    string
	Logger   *zap.Logger
}

// Create prices the cart at current prices, claims the cards, applies up to walletRequested of
// the buyer's balance and, when something is left to pay, renders the Pix charge.
// A wallet covering the whole total confirms the order immediately.
func (s *OrderService) Create(ctx context.Context, userID string, lines []domain.LineRequest, walletRequested domain.Cents) (domain.CreateResult, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return domain.CreateResult{}, err
	}
	if walletRequested < 0 {
		return domain.CreateResult{}, fmt.Errorf("%w: wallet amount is negative", domain.ErrValidation)
	}

	var res domain.CreateResult
	err = s.UoW.Run(ctx, func(ctx context.Context) error {
		order := domain.Order{ID: uuid.NewString(), UserID: userID, CreatedAt: repos.NowStamp()}
		for _, l := range merged {
			p, err := s.Products.Get(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if p.Stock < l.Quantity {
				return fmt.Errorf("product %s: want %d, have %d: %w", p.ID, l.Quantity, p.Stock, domain.ErrOutOfStock)
			}
			item := domain.OrderItem{
				OrderID: order.ID, ProductID: p.ID, ProductName: p.Name, Quantity: l.Quantity, UnitPrice: p.Price,
			}
			order.Items = append(order.Items, item)
			order.Total += item.Subtotal()
		}

		balance, err := s.Wallet.Balance(ctx, userID)
		if err != nil {
			return err
		}
		order.BalanceApplied = domain.MinCents(walletRequested, balance, order.Total)

		if order.BalanceApplied == order.Total {
			order.Status = domain.StatusConfirmed
			order.PaidAt = order.CreatedAt
		} else {
			order.Status = domain.StatusPending
			key, err := s.Settings.PixKey(ctx)
			if err != nil {
				return err
			}
			if key == "" {
				return errNoPixKey
			}
			order.PixPayload, err = pix.BuildPayload(key, order.Remaining().Decimal(), s.Merchant.Name, s.Merchant.City)
			if err != nil {
				return fmt.Errorf("build pix payload: %w", err)
			}
		}

		if err := s.Orders.Insert(ctx, order); err != nil {
			return err
		}
		for _, it := range order.Items {
			if _, err := s.Alloc.Allocate(ctx, order.ID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := s.Wallet.Debit(ctx, userID, order.BalanceApplied, domain.ReasonOrderDebit, order.ID); err != nil {
			return err
		}

		if err := s.emit(ctx, order.ID, events.TypeOrderCreated, events.OrderCreated{
			OrderID:        order.ID,
			UserID:         userID,
			Status:         string(order.Status),
			Total:          order.Total.String(),
			BalanceApplied: order.BalanceApplied.String(),
			CreatedAt:      order.CreatedAt,
		}); err != nil {
			return err
		}
		if order.Status == domain.StatusConfirmed {
			if err := s.emit(ctx, order.ID, events.TypeOrderStatusChanged, events.OrderStatusChanged{
				OrderID: order.ID, From: string(domain.StatusPending), To: string(domain.StatusConfirmed),
				Reason: "balance", ChangedAt: order.CreatedAt,
			}); err != nil {
				return err
			}
		}

		res = domain.CreateResult{
			OrderID:        order.ID,
			Status:         order.Status,
			Total:          order.Total,
			BalanceApplied: order.BalanceApplied,
		}
		if order.PixPayload != "" {
			payload := order.PixPayload
			res.PixPayload = &payload
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			metrics.OutOfStock.Inc()
		}
		if errors.Is(err, errNoPixKey) {
			s.Logger.Error("checkout needs a pix key but none is configured")
		}
		return domain.CreateResult{}, err
	}
	metrics.OrdersCreated.WithLabelValues(string(res.Status)).Inc()
	return res, nil
}

// mergeLines validates the cart and folds duplicate products into one line, keeping first-seen order.
func mergeLines(lines []domain.LineRequest) ([]domain.LineRequest, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", domain.ErrValidation)
	}
	var out []domain.LineRequest
	index := map[string]int{}
	for _, l := range lines {
		id, ok := validate.ID(l.ProductID)
		if !ok {
			return nil, fmt.Errorf("%w: invalid product id", domain.ErrValidation)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for %s must be at least 1", domain.ErrValidation, id)
		}
		if i, seen := index[id]; seen {
			out[i].Quantity += l.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, domain.LineRequest{ProductID: id, Quantity: l.Quantity})
	}
	return out, nil
}

// MarkPaid is the buyer saying the Pix transfer was sent.
func (s *OrderService) MarkPaid(ctx context.Context, orderID, callerUserID string) (domain.Order, error) {
	return s.transition(ctx, orderID, []domain.OrderStatus{domain.StatusPending}, domain.StatusAwaitingConfirmation,
		func(ctx context.Context, o domain.Order) error {
			if o.UserID != callerUserID {
				return fmt.Errorf("order %s: %w", orderID, domain.ErrUnauthorized)
			}
			return nil
		}, nil)
}

// Confirm records that the operator saw the transfer land.
func (s *OrderService) Confirm(ctx context.Context, orderID string) (domain.Order, error) {
	return s.transition(ctx, orderID, []domain.OrderStatus{domain.StatusAwaitingConfirmation}, domain.StatusConfirmed, nil, nil)
}

func (s *OrderService) Deliver(ctx context.Context, orderID string) (domain.Order, error) {
	return s.transition(ctx, orderID, []domain.OrderStatus{domain.StatusConfirmed}, domain.StatusDelivered, nil, nil)
}

// Cancel releases the cards and refunds the wallet share. Paid orders cannot be cancelled.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (domain.Order, error) {
	return s.transition(ctx, orderID,
		[]domain.OrderStatus{domain.StatusPending, domain.StatusAwaitingConfirmation}, domain.StatusCancelled, nil,
		func(ctx context.Context, o domain.Order) error {
			if _, err := s.Alloc.Release(ctx, o.ID); err != nil {
				return err
			}
			return s.Wallet.Credit(ctx, o.UserID, o.BalanceApplied, domain.ReasonOrderRefund, o.ID)
		})
}

// UpdateStatus maps a requested status to the matching transition. Buyers may only report
// payment; every other move is an operator action.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus, who domain.Identity) (domain.Order, error) {
	if !target.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, target)
	}
	if !who.IsAdmin() {
		if target != domain.StatusAwaitingConfirmation {
			return domain.Order{}, fmt.Errorf("set status %s: %w", target, domain.ErrUnauthorized)
		}
		return s.MarkPaid(ctx, orderID, who.UserID)
	}
	switch target {
	case domain.StatusAwaitingConfirmation:
		return s.transition(ctx, orderID, []domain.OrderStatus{domain.StatusPending}, target, nil, nil)
	case domain.StatusConfirmed:
		return s.Confirm(ctx, orderID)
	case domain.StatusDelivered:
		return s.Deliver(ctx, orderID)
	case domain.StatusCancelled:
		return s.Cancel(ctx, orderID)
	default:
		return domain.Order{}, fmt.Errorf("order %s to %s: %w", orderID, target, domain.ErrInvalidTransition)
	}
}

// transition checks guard (who may act), then the current status, then runs effect and the
// conditional status update, all in one unit of work.
func (s *OrderService) transition(ctx context.Context, orderID string, from []domain.OrderStatus, to domain.OrderStatus,
	guard, effect func(ctx context.Context, o domain.Order) error) (domain.Order, error) {
	var out domain.Order
	err := s.UoW.Run(ctx, func(ctx context.Context) error {
		o, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(ctx, o); err != nil {
				return err
			}
		}
		if !slices.Contains(from, o.Status) {
			return fmt.Errorf("order %s is %s, cannot become %s: %w", orderID, o.Status, to, domain.ErrInvalidTransition)
		}
		if effect != nil {
			if err := effect(ctx, o); err != nil {
				return err
			}
		}
		ok, err := s.Orders.Transition(ctx, orderID, from, to)
		if err != nil {
			return err
		}
		if !ok {
			cur, err := s.Orders.Get(ctx, orderID)
			if err != nil {
				return err
			}
			return fmt.Errorf("order %s became %s, cannot become %s: %w", orderID, cur.Status, to, domain.ErrInvalidTransition)
		}
		if out, err = s.Orders.Get(ctx, orderID); err != nil {
			return err
		}
		return s.emit(ctx, orderID, events.TypeOrderStatusChanged, events.OrderStatusChanged{
			OrderID: orderID, From: string(o.Status), To: string(to), ChangedAt: out.UpdatedAt,
		})
	})
	if err != nil {
		return domain.Order{}, err
	}
	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	return out, nil
}

func (s *OrderService) emit(ctx context.Context, key, eventType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.Outbox.Add(ctx, s.Topic, key, eventType, b); err != nil {
		return fmt.Errorf("outbox %s: %w", eventType, err)
	}
	return nil
}

// Get returns an order to its owner or an admin. Anyone else gets ErrNotFound.
func (s *OrderService) Get(ctx context.Context, orderID string, who domain.Identity) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !who.IsAdmin() && !who.Owns(o.UserID) {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if o.PixPayload != "" {
		if err := pix.Verify(o.PixPayload); err != nil {
			s.Logger.Error("stored pix payload fails its checksum", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return o, nil
}

// Secrets returns the card credentials of a paid order. Unpaid orders and other people's
// orders look the same as missing ones.
func (s *OrderService) Secrets(ctx context.Context, orderID string, who domain.Identity) ([]domain.CardSecret, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if (!who.IsAdmin() && !who.Owns(o.UserID)) || !o.Status.SecretsVisible() {
		return nil, fmt.Errorf("order %s secrets: %w", orderID, domain.ErrNotFound)
	}
	return s.Alloc.CardsForOrder(ctx, orderID)
}

func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

// ListAll feeds the operator dashboard. An empty status lists everything.
func (s *OrderService) ListAll(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.Orders.ListLatest(ctx, status, limit)
}
