package mysql

import (
	"context"
	"errors"

	"shop-service/internal/domain"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

var _ repository.ProductRepository = (*productRepo)(nil)

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDs returns the products that exist, keyed by id. Missing ids are simply absent.
func (r *productRepo) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*domain.Product, error) {
	out := make(map[uint64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *productRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("sku = ?", sku).Count(&cnt).Error
	return cnt > 0, err
}

func (r *productRepo) List(ctx context.Context, f repository.ProductListFilter) ([]domain.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{})

	if f.Category != "" {
		q = q.Where("JSON_CONTAINS(categories, JSON_QUOTE(?))", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.BestSeller != nil {
		q = q.Where("is_best_seller = ?", *f.BestSeller)
	}
	if f.OnSale != nil {
		q = q.Where("is_on_sale = ?", *f.OnSale)
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

	var list []domain.Product
	err := q.Order("created_at DESC").Order("id DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

// AddReview stores the review and recomputes the product's rating and review count.
// It returns (nil, nil) when the product does not exist.
func (r *productRepo) AddReview(ctx context.Context, rv *domain.Review) (*domain.Product, error) {
	var out *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		err := tx.First(&p, "id = ?", rv.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Create(rv).Error; err != nil {
			return err
		}

		var agg struct {
			Count int64
			Avg   float64
		}
		if err := tx.Model(&domain.Review{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
			Where("product_id = ?", rv.ProductID).
			Scan(&agg).Error; err != nil {
			return err
		}
		p.ReviewCount = int(agg.Count)
		p.Rating = decimal.NewFromFloat(agg.Avg).Round(2)
		if err := tx.Model(&domain.Product{}).Where("id = ?", p.ID).
			Updates(map[string]any{"review_count": p.ReviewCount, "rating": p.Rating}).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
