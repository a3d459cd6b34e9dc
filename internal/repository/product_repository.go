package repository

import (
	"context"

	"shop-service/internal/domain"
)

type ProductListFilter struct {
	Category   string
	Search     string
	BestSeller *bool
	OnSale     *bool
	Limit      int
	Offset     int
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*domain.Product, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	List(ctx context.Context, f ProductListFilter) ([]domain.Product, int64, error)
	Update(ctx context.Context, p *domain.Product) error
	AddReview(ctx context.Context, r *domain.Review) (*domain.Product, error)
}
