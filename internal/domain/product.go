package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type WeightOption struct {
	Weight        string `json:"weight"`
	OriginalPrice string `json:"originalPrice"`
	CurrentPrice  string `json:"currentPrice"`
}

type Badge struct {
	Text      string `json:"text,omitempty" gorm:"size:64"`
	BgColor   string `json:"bgColor,omitempty" gorm:"size:32"`
	TextColor string `json:"textColor,omitempty" gorm:"size:32"`
}

type Product struct {
	ID                  uint64                            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name                string                            `json:"name" gorm:"size:255;not null;index"`
	SKU                 string                            `json:"sku" gorm:"column:sku;size:64;not null;uniqueIndex"`
	Images              datatypes.JSONSlice[string]       `json:"image" gorm:"type:json"`
	Tags                datatypes.JSONSlice[string]       `json:"tags" gorm:"type:json"`
	Categories          datatypes.JSONSlice[string]       `json:"categories" gorm:"type:json"`
	Features            datatypes.JSONSlice[string]       `json:"features" gorm:"type:json"`
	Weights             datatypes.JSONSlice[WeightOption] `json:"weights" gorm:"type:json"`
	Description         string                            `json:"description" gorm:"type:text"`
	DetailedDescription string                            `json:"detailedDescription" gorm:"type:text"`
	Rating              decimal.Decimal                   `json:"rating" gorm:"type:decimal(3,2);not null;default:0;index"`
	ReviewCount         int                               `json:"reviewCount" gorm:"not null;default:0"`
	InStock             bool                              `json:"inStock" gorm:"not null;default:true"`
	StockText           string                            `json:"stockText" gorm:"size:64"`
	OriginalPrice       decimal.Decimal                   `json:"originalPrice" gorm:"type:decimal(12,2);not null"`
	CurrentPrice        decimal.NullDecimal               `json:"currentPrice" gorm:"type:decimal(12,2)"`
	SalePrice           decimal.NullDecimal               `json:"salePrice" gorm:"type:decimal(12,2)"`
	Currency            string                            `json:"currency" gorm:"size:8;not null;default:'INR'"`
	Badge               Badge                             `json:"badge" gorm:"embedded;embeddedPrefix:badge_"`
	IsBestSeller        bool                              `json:"isBestSeller" gorm:"not null;default:false;index:idx_products_flags,priority:1"`
	IsOnSale            bool                              `json:"isOnSale" gorm:"not null;default:false;index:idx_products_flags,priority:2"`
	IsPromo             bool                              `json:"isPromo" gorm:"not null;default:false;index:idx_products_flags,priority:3"`
	CreatedAt           time.Time                         `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt           time.Time                         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// EffectivePrice is the price a customer pays per unit: sale, then current, then original.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() {
		return p.SalePrice.Decimal
	}
	if p.CurrentPrice.Valid && p.CurrentPrice.Decimal.IsPositive() {
		return p.CurrentPrice.Decimal
	}
	return p.OriginalPrice
}

type Review struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint64    `json:"productId" gorm:"not null;index"`
	UserID    uint64    `json:"userId" gorm:"not null;index"`
	UserName  string    `json:"userName" gorm:"size:64;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"date" gorm:"autoCreateTime"`
}

func (Review) TableName() string { return "product_reviews" }
