package mysql

import (
	"context"
	"errors"

	"shop-service/internal/domain"
	"shop-service/internal/repository"

	"gorm.io/gorm"
)

type addressRepo struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) repository.AddressRepository {
	return &addressRepo{db: db}
}

var _ repository.AddressRepository = (*addressRepo)(nil)

func (r *addressRepo) Create(ctx context.Context, a *domain.Address) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *addressRepo) FindByIDForUser(ctx context.Context, id, userID uint64) (*domain.Address, error) {
	var a domain.Address
	err := r.db.WithContext(ctx).First(&a, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *addressRepo) ListByUser(ctx context.Context, userID uint64) ([]domain.Address, error) {
	var out []domain.Address
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *addressRepo) Update(ctx context.Context, a *domain.Address) error {
	return r.db.WithContext(ctx).Save(a).Error
}
