package repository

import (
	"context"

	"shop-service/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	FindByLogin(ctx context.Context, email, userName string) (*domain.User, error)
	ExistsByEmailOrUserName(ctx context.Context, email, userName string, excludeID uint64) (bool, error)
	UpdateRefreshTokenHash(ctx context.Context, id uint64, hash string) error
	UpdateDetails(ctx context.Context, id uint64, userName, email string) (*domain.User, error)
	UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (bool, error)
}

type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	FindByIDForUser(ctx context.Context, id, userID uint64) (*domain.Address, error)
	ListByUser(ctx context.Context, userID uint64) ([]domain.Address, error)
	Update(ctx context.Context, a *domain.Address) error
}
