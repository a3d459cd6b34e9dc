package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel an order in this status.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusProcessing
}

// Terminal reports whether no further lifecycle change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentOnline         PaymentMethod = "online_payment"
	PaymentWallet         PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentOnline, PaymentWallet:
		return true
	}
	return false
}

// RequiresGateway reports whether the method is settled through the payment gateway.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentOnline
}

// ShippingAddress is a copy of the address taken at order time, not a live reference.
type ShippingAddress struct {
	Name          string `json:"name" gorm:"size:120;not null"`
	Mobile        string `json:"mobile" gorm:"size:20;not null"`
	StreetAddress string `json:"streetAddress" gorm:"size:255;not null"`
	Address       string `json:"address" gorm:"size:255;not null"`
	City          string `json:"city" gorm:"size:100;not null"`
	State         string `json:"state" gorm:"size:100;not null"`
	Zip           string `json:"zip" gorm:"size:20;not null"`
}

type OrderItem struct {
	ID         uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID    uint64          `json:"-" gorm:"not null;index"`
	ProductID  uint64          `json:"productId" gorm:"not null;index"`
	Product    *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	Weight     string          `json:"weight" gorm:"size:50"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
}

type Order struct {
	ID                    uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNumber           string          `json:"orderNumber" gorm:"size:40;not null;uniqueIndex"`
	UserID                uint64          `json:"userId" gorm:"not null;index:idx_orders_user_created,priority:1"`
	Items                 []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount           decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	ShippingAddress       ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod" gorm:"size:32;not null"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus" gorm:"size:16;not null;default:'pending';index"`
	OrderStatus           OrderStatus     `json:"orderStatus" gorm:"size:16;not null;default:'pending';index:idx_orders_status_created,priority:1"`
	GatewayOrderID        string          `json:"gatewayOrderId,omitempty" gorm:"size:64;index"`
	TrackingNumber        string          `json:"trackingNumber,omitempty" gorm:"size:64"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate,omitempty"`
	DeliveredAt           *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt           *time.Time      `json:"cancelledAt,omitempty"`
	Notes                 string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt             time.Time       `json:"createdAt" gorm:"autoCreateTime;index:idx_orders_user_created,priority:2;index:idx_orders_status_created,priority:2"`
	UpdatedAt             time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// BeforeCreate assigns an order number on first persistence when none is set.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber(DefaultOrderNumberPrefix, time.Now())
	}
	return nil
}

// SumItems adds up the line totals as supplied on the items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

// MinorUnits converts an amount to the gateway's integer minor-unit representation.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
