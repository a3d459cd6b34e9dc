package mysql

import (
	"context"
	"errors"
	"fmt"

	"shop-service/internal/domain"
	"shop-service/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

var _ repository.OrderRepository = (*orderRepo)(nil)

// Save inserts the order together with its line items in one transaction.
func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	for i := range order.Items {
		order.Items[i].Product = nil
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return translate(err)
	}
	if order.ID == 0 {
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByIDForUser(ctx context.Context, id, userID uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items.Product").
		First(&o, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func updateColumns(upd repository.OrderUpdate) map[string]any {
	cols := map[string]any{}
	if upd.PaymentStatus != nil {
		cols["payment_status"] = *upd.PaymentStatus
	}
	if upd.OrderStatus != nil {
		cols["order_status"] = *upd.OrderStatus
	}
	if upd.GatewayOrderID != nil {
		cols["gateway_order_id"] = *upd.GatewayOrderID
	}
	if upd.TrackingNumber != nil {
		cols["tracking_number"] = *upd.TrackingNumber
	}
	if upd.EstimatedDeliveryDate != nil {
		cols["estimated_delivery_date"] = *upd.EstimatedDeliveryDate
	}
	if upd.DeliveredAt != nil {
		cols["delivered_at"] = *upd.DeliveredAt
	}
	if upd.CancelledAt != nil {
		cols["cancelled_at"] = *upd.CancelledAt
	}
	if upd.Notes != nil {
		cols["notes"] = *upd.Notes
	}
	return cols
}

// Update applies the non-nil fields and returns the order as stored afterwards.
// A missing order yields (nil, nil).
func (r *orderRepo) Update(ctx context.Context, id uint64, upd repository.OrderUpdate) (*domain.Order, error) {
	var out *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&domain.Order{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return nil
		}
		if cols := updateColumns(upd); len(cols) > 0 {
			if err := tx.Model(&domain.Order{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return fmt.Errorf("update order %d: %w", id, err)
			}
		}
		var o domain.Order
		if err := tx.Preload("Items.Product").First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		out = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the order and its items. Deleting a missing order is not an error.
func (r *orderRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Order{}).Error
	})
}

func (r *orderRepo) List(ctx context.Context, f repository.OrderListFilter) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.OrderStatus != nil {
		q = q.Where("order_status = ?", *f.OrderStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []domain.Order
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Preload("Items.Product").Find(&list).Error
	return list, total, err
}

func (r *orderRepo) aggregate(ctx context.Context, column string) ([]domain.StatusAggregate, error) {
	var out []domain.StatusAggregate
	err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Select(column + " AS status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Group(column).
		Order(column).
		Scan(&out).Error
	return out, err
}

func (r *orderRepo) Stats(ctx context.Context) (*domain.OrderStats, error) {
	byOrder, err := r.aggregate(ctx, "order_status")
	if err != nil {
		return nil, err
	}
	byPayment, err := r.aggregate(ctx, "payment_status")
	if err != nil {
		return nil, err
	}
	return &domain.OrderStats{OrderStats: byOrder, PaymentStats: byPayment}, nil
}
