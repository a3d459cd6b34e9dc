package domain

import "github.com/shopspring/decimal"

type StatusAggregate struct {
	Status      string          `json:"_id" gorm:"column:status"`
	Count       int64           `json:"count" gorm:"column:count"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"column:total_amount"`
}

type OrderStats struct {
	OrderStats   []StatusAggregate `json:"orderStats"`
	PaymentStats []StatusAggregate `json:"paymentStats"`
}
