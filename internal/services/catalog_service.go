package services

import (
	"context"

	"pixcards/internal/domain"
	"pixcards/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
	Alloc *Allocator
}

func NewCatalogService(prods *repos.ProductRepo, alloc *Allocator) *CatalogService {
	return &CatalogService{Prods: prods, Alloc: alloc}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) SearchBIN(ctx context.Context, bin string) ([]domain.BINMatch, error) {
	return s.Alloc.SearchBIN(ctx, bin)
}

func (s *CatalogService) Stock(ctx context.Context) ([]domain.StockRow, error) {
	return s.Alloc.Summary(ctx)
}
