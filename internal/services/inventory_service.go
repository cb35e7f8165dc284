package services

import (
	"context"
	"fmt"

	"pixcards/internal/domain"
	"pixcards/internal/repos"
	"pixcards/internal/validate"
)

// CardStore is the part of the gift card table the allocator works with. *repos.InventoryRepo
// implements it.
type CardStore interface {
	Candidates(ctx context.Context, productID string, limit int) ([]string, error)
	Claim(ctx context.Context, cardID, orderID string) (bool, error)
	ReleaseOrder(ctx context.Context, orderID string) (int, error)
	Available(ctx context.Context, productID string) (int, error)
	ClaimedBy(ctx context.Context, orderID string) ([]string, error)
	SearchBIN(ctx context.Context, bin string) ([]domain.BINMatch, error)
	Secrets(ctx context.Context, orderID string) ([]domain.CardSecret, error)
	Summary(ctx context.Context) ([]domain.StockRow, error)
}

// Allocator hands out serialized gift cards. A card belongs to at most one order.
type Allocator struct {
	Cards  CardStore
	Orders *repos.OrderRepo
	UoW    *repos.UnitOfWork
}

func NewAllocator(cards CardStore, orders *repos.OrderRepo, uow *repos.UnitOfWork) *Allocator {
	return &Allocator{Cards: cards, Orders: orders, UoW: uow}
}

// Allocate claims quantity cards of productID for orderID, oldest first. It either claims all of
// them or none: a shortfall returns ErrOutOfStock and the claims made so far roll back.
func (a *Allocator) Allocate(ctx context.Context, orderID, productID string, quantity int) ([]string, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	var claimed []string
	err := a.UoW.Run(ctx, func(ctx context.Context) error {
		claimed = claimed[:0]
		for len(claimed) < quantity {
			ids, err := a.Cards.Candidates(ctx, productID, quantity-len(claimed))
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("product %s: need %d more: %w", productID, quantity-len(claimed), domain.ErrOutOfStock)
			}
			for _, id := range ids {
				ok, err := a.Cards.Claim(ctx, id, orderID)
				if err != nil {
					return fmt.Errorf("claim card %s: %w", id, err)
				}
				// A lost race leaves the slot open; the next pass selects a fresh candidate.
				if ok {
					claimed = append(claimed, id)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Release returns an order's cards to the pool. Claims of paid or closed orders are final.
func (a *Allocator) Release(ctx context.Context, orderID string) (int, error) {
	var n int
	err := a.UoW.Run(ctx, func(ctx context.Context) error {
		o, err := a.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.PrePayment() {
			return fmt.Errorf("release order %s in status %s: %w", orderID, o.Status, domain.ErrClaimsFinal)
		}
		n, err = a.Cards.ReleaseOrder(ctx, orderID)
		return err
	})
	return n, err
}

func (a *Allocator) Available(ctx context.Context, productID string) (int, error) {
	return a.Cards.Available(ctx, productID)
}

// SearchBIN reports unclaimed stock per product for a six digit card prefix.
func (a *Allocator) SearchBIN(ctx context.Context, bin string) ([]domain.BINMatch, error) {
	bin, ok := validate.BIN(bin)
	if !ok {
		return nil, fmt.Errorf("%w: bin must be 6 digits", domain.ErrValidation)
	}
	return a.Cards.SearchBIN(ctx, bin)
}

// CardsForOrder returns secrets without any access check. Callers go through OrderService.Secrets.
func (a *Allocator) CardsForOrder(ctx context.Context, orderID string) ([]domain.CardSecret, error) {
	return a.Cards.Secrets(ctx, orderID)
}

func (a *Allocator) Summary(ctx context.Context) ([]domain.StockRow, error) {
	return a.Cards.Summary(ctx)
}
