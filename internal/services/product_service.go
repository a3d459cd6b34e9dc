package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/infra/imagehost"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const (
	productCacheTTL  = time.Minute
	uploadConcurrent = 3
)

func productCacheKey(id uint64) string {
	return fmt.Sprintf("product:%d", id)
}

type ProductService struct {
	repo     repository.ProductRepository
	cache    cache.CacheInterface
	uploader imagehost.UploaderInterface
	log      *zap.Logger
	group    singleflight.Group
}

func NewProductService(r repository.ProductRepository, c cache.CacheInterface, u imagehost.UploaderInterface, log *zap.Logger) *ProductService {
	return &ProductService{repo: r, cache: c, uploader: u, log: log}
}

func (s *ProductService) CreateProduct(ctx context.Context, id domain.Identity, p *domain.Product) (*domain.Product, error) {
	if err := requireCapability(id, domain.CapManageProducts); err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	switch {
	case p.Name == "":
		return nil, invalid("name is required")
	case p.SKU == "":
		return nil, invalid("sku is required")
	case !p.OriginalPrice.IsPositive():
		return nil, invalid("originalPrice must be greater than zero")
	case len(p.Images) == 0:
		return nil, invalid("at least one image is required")
	}
	if p.Currency == "" {
		p.Currency = "INR"
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: product with sku %s", ErrConflict, p.SKU)
	}

	p.ID = 0
	p.Rating = decimal.Zero
	p.ReviewCount = 0
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: product with sku %s", ErrConflict, p.SKU)
		}
		return nil, err
	}
	s.log.Info("product created", zap.Uint64("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

// GetProduct reads through the cache. Concurrent misses for the same id share
// one database lookup.
func (s *ProductService) GetProduct(ctx context.Context, productID uint64) (*domain.Product, error) {
	key := productCacheKey(productID)

	var cached domain.Product
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warn("product cache read failed", zap.Uint64("product_id", productID), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// the lookup is shared, so it must outlive whichever caller started it
		lctx := context.WithoutCancel(ctx)
		p, err := s.repo.FindByID(lctx, productID)
		if err != nil || p == nil {
			return p, err
		}
		if err := s.cache.SetJSON(lctx, key, p, productCacheTTL); err != nil {
			s.log.Warn("product cache write failed", zap.Uint64("product_id", productID), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p, _ := v.(*domain.Product)
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

type ProductQuery struct {
	Category   string
	Search     string
	BestSeller *bool
	OnSale     *bool
	Page       int
	Limit      int
}

type ProductPage struct {
	Products   []domain.Product
	Pagination Pagination
}

func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page, limit, offset := pageBounds(q.Page, q.Limit)
	list, total, err := s.repo.List(ctx, repository.ProductListFilter{
		Category:   strings.TrimSpace(q.Category),
		Search:     strings.TrimSpace(q.Search),
		BestSeller: q.BestSeller,
		OnSale:     q.OnSale,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if list == nil {
		list = []domain.Product{}
	}
	return &ProductPage{Products: list, Pagination: newPagination(page, limit, total)}, nil
}

// ProductPatch lists the fields an update may touch; nil fields are kept.
type ProductPatch struct {
	Name                *string
	Images              []string
	Tags                []string
	Categories          []string
	Features            []string
	Weights             []domain.WeightOption
	Description         *string
	DetailedDescription *string
	InStock             *bool
	StockText           *string
	OriginalPrice       *decimal.Decimal
	CurrentPrice        *decimal.NullDecimal
	SalePrice           *decimal.NullDecimal
	Badge               *domain.Badge
	IsBestSeller        *bool
	IsOnSale            *bool
	IsPromo             *bool
}

func (pt ProductPatch) apply(p *domain.Product) error {
	if pt.Name != nil {
		if strings.TrimSpace(*pt.Name) == "" {
			return invalid("name cannot be empty")
		}
		p.Name = strings.TrimSpace(*pt.Name)
	}
	if pt.Images != nil {
		if len(pt.Images) == 0 {
			return invalid("at least one image is required")
		}
		p.Images = datatypes.JSONSlice[string](pt.Images)
	}
	if pt.Tags != nil {
		p.Tags = datatypes.JSONSlice[string](pt.Tags)
	}
	if pt.Categories != nil {
		p.Categories = datatypes.JSONSlice[string](pt.Categories)
	}
	if pt.Features != nil {
		p.Features = datatypes.JSONSlice[string](pt.Features)
	}
	if pt.Weights != nil {
		p.Weights = datatypes.JSONSlice[domain.WeightOption](pt.Weights)
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.DetailedDescription != nil {
		p.DetailedDescription = *pt.DetailedDescription
	}
	if pt.InStock != nil {
		p.InStock = *pt.InStock
	}
	if pt.StockText != nil {
		p.StockText = *pt.StockText
	}
	if pt.OriginalPrice != nil {
		if !pt.OriginalPrice.IsPositive() {
			return invalid("originalPrice must be greater than zero")
		}
		p.OriginalPrice = *pt.OriginalPrice
	}
	if pt.CurrentPrice != nil {
		p.CurrentPrice = *pt.CurrentPrice
	}
	if pt.SalePrice != nil {
		p.SalePrice = *pt.SalePrice
	}
	if pt.Badge != nil {
		p.Badge = *pt.Badge
	}
	if pt.IsBestSeller != nil {
		p.IsBestSeller = *pt.IsBestSeller
	}
	if pt.IsOnSale != nil {
		p.IsOnSale = *pt.IsOnSale
	}
	if pt.IsPromo != nil {
		p.IsPromo = *pt.IsPromo
	}
	return nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id domain.Identity, productID uint64, patch ProductPatch) (*domain.Product, error) {
	if err := requireCapability(id, domain.CapManageProducts); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if err := patch.apply(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, productID)
	return p, nil
}

func (s *ProductService) AddReview(ctx context.Context, id domain.Identity, productID uint64, rating int, comment string) (*domain.Product, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	p, err := s.repo.AddReview(ctx, &domain.Review{
		ProductID: productID,
		UserID:    id.UserID,
		UserName:  id.UserName,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	s.invalidate(ctx, productID)
	return p, nil
}

func (s *ProductService) invalidate(ctx context.Context, productID uint64) {
	if err := s.cache.Del(ctx, productCacheKey(productID)); err != nil {
		s.log.Warn("product cache invalidation failed", zap.Uint64("product_id", productID), zap.Error(err))
	}
}

type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// UploadImages sends every file to the image host. On failure it returns the
// URLs that did upload together with the error.
func (s *ProductService) UploadImages(ctx context.Context, id domain.Identity, files []UploadFile) ([]string, error) {
	if err := requireCapability(id, domain.CapManageProducts); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, invalid("no image provided")
	}

	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrent)
	var mu sync.Mutex
	var failures []string
	for i, f := range files {
		g.Go(func() error {
			url, err := s.uploadOne(gctx, f)
			if err != nil {
				s.log.Warn("image upload failed", zap.String("file", f.Name), zap.Error(err))
				mu.Lock()
				failures = append(failures, f.Name)
				mu.Unlock()
				return err
			}
			urls[i] = url
			return nil
		})
	}
	err := g.Wait()

	uploaded := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			uploaded = append(uploaded, u)
		}
	}
	if err != nil {
		return uploaded, fmt.Errorf("%w: %s", ErrUploadFailed, strings.Join(failures, ", "))
	}
	return uploaded, nil
}

func (s *ProductService) uploadOne(ctx context.Context, f UploadFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	res, err := s.uploader.Upload(ctx, f.Name, rc)
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
