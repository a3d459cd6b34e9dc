package services

import (
	"time"

	"shop-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	TestUserID         = uint64(11)
	TestOrderID        = uint64(7)
	TestProductID      = uint64(3)
	TestGatewayOrderID = "order_Gw123"
	TestPaymentID      = "pay_Pm456"
	TestSignature      = "deadbeef"
)

func MockIdentity() domain.Identity {
	return domain.Identity{UserID: TestUserID, Email: "asha@example.com", UserName: "asha", Role: domain.RoleCustomer}
}

func MockAdminIdentity() domain.Identity {
	return domain.Identity{UserID: 1, Email: "ops@example.com", UserName: "ops", Role: domain.RoleAdmin}
}

func MockShippingAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:          "Asha",
		Mobile:        "9999999999",
		StreetAddress: "1 Main St",
		Address:       "Flat 2",
		City:          "Pune",
		State:         "MH",
		Zip:           "411001",
	}
}

func CreateMockOrder(id, userID uint64, status domain.OrderStatus, paid domain.PaymentStatus) *domain.Order {
	return &domain.Order{
		ID:              id,
		OrderNumber:     "GRJ1760000000000123",
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("250.49"),
		ShippingAddress: MockShippingAddress(),
		PaymentMethod:   domain.PaymentOnline,
		PaymentStatus:   paid,
		OrderStatus:     status,
		GatewayOrderID:  TestGatewayOrderID,
		CreatedAt:       time.Now(),
	}
}

func CreateMockProduct(id uint64, name, price string) *domain.Product {
	return &domain.Product{
		ID:            id,
		Name:          name,
		SKU:           "SKU-" + name,
		OriginalPrice: decimal.RequireFromString(price),
		Currency:      "INR",
		InStock:       true,
	}
}
