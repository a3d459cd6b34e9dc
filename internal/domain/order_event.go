package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated          = "order.created"
	EventOrderPaymentCompleted = "order.payment.completed"
	EventOrderPaymentFailed    = "order.payment.failed"
	EventOrderCancelled        = "order.cancelled"
	EventOrderStatusUpdated    = "order.status.updated"
)

type OrderEvent struct {
	OrderID       uint64          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	UserID        uint64          `json:"userId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	OrderStatus   OrderStatus     `json:"orderStatus"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

func NewOrderEvent(o *Order, reason string, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		Reason:        reason,
		OccurredAt:    at,
	}
}
