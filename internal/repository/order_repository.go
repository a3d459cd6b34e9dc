package repository

import (
	"context"
	"time"

	"shop-service/internal/domain"
)

type OrderListFilter struct {
	UserID      *uint64
	OrderStatus *domain.OrderStatus
	Limit       int
	Offset      int
}

// OrderUpdate holds the fields to change; nil fields are left alone.
type OrderUpdate struct {
	PaymentStatus         *domain.PaymentStatus
	OrderStatus           *domain.OrderStatus
	GatewayOrderID        *string
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
	DeliveredAt           *time.Time
	CancelledAt           *time.Time
	Notes                 *string
}

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByIDForUser(ctx context.Context, id, userID uint64) (*domain.Order, error)
	Update(ctx context.Context, id uint64, upd OrderUpdate) (*domain.Order, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, f OrderListFilter) ([]domain.Order, int64, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}
