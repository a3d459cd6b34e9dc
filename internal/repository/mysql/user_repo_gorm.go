package mysql

import (
	"context"
	"errors"

	"shop-service/internal/domain"
	"shop-service/internal/repository"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepo{db: db}
}

var _ repository.UserRepository = (*userRepo)(nil)

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepo) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByLogin matches on email or user name, whichever is non-empty.
func (r *userRepo) FindByLogin(ctx context.Context, email, userName string) (*domain.User, error) {
	if email == "" && userName == "" {
		return nil, nil
	}
	q := r.db.WithContext(ctx)
	switch {
	case email != "" && userName != "":
		q = q.Where("email = ? OR user_name = ?", email, userName)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("user_name = ?", userName)
	}
	var u domain.User
	err := q.First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) ExistsByEmailOrUserName(ctx context.Context, email, userName string, excludeID uint64) (bool, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("(email = ? OR user_name = ?)", email, userName)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepo) UpdateRefreshTokenHash(ctx context.Context, id uint64, hash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("refresh_token_hash", hash).Error
}

func (r *userRepo) UpdateDetails(ctx context.Context, id uint64, userName, email string) (*domain.User, error) {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"user_name": userName, "email": email}).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindByID(ctx, id)
}

func (r *userRepo) UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&cnt).Error; err != nil {
		return false, err
	}
	if cnt == 0 {
		return false, nil
	}
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Update("role", role).Error
	return err == nil, err
}
