package http

import (
	"shop-service/internal/domain"
	"shop-service/internal/services"
	"shop-service/internal/token"

	"github.com/shopspring/decimal"
)

type orderItemRequest struct {
	Product    uint64          `json:"product"`
	Quantity   int             `json:"quantity"`
	Weight     string          `json:"weight"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type createOrderRequest struct {
	Items           []orderItemRequest      `json:"items"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress"`
	AddressID       uint64                  `json:"addressId"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

func (r createOrderRequest) input() services.CreateOrderInput {
	in := services.CreateOrderInput{
		AddressID:     r.AddressID,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Items:         make([]services.OrderItemInput, 0, len(r.Items)),
	}
	if r.ShippingAddress != nil {
		in.ShippingAddress = *r.ShippingAddress
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.OrderItemInput{
			ProductID:  it.Product,
			Quantity:   it.Quantity,
			Weight:     it.Weight,
			Price:      it.Price,
			TotalPrice: it.TotalPrice,
		})
	}
	return in
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           uint64 `json:"orderId"`
}

func (r verifyPaymentRequest) input() services.ConfirmPaymentInput {
	return services.ConfirmPaymentInput{
		GatewayOrderID: r.RazorpayOrderID,
		PaymentID:      r.RazorpayPaymentID,
		Signature:      r.RazorpaySignature,
		OrderID:        r.OrderID,
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	OrderStatus           string  `json:"orderStatus" binding:"required"`
	TrackingNumber        *string `json:"trackingNumber"`
	EstimatedDeliveryDate *string `json:"estimatedDeliveryDate"`
	Notes                 *string `json:"notes"`
}

func (r updateStatusRequest) input() services.UpdateStatusInput {
	return services.UpdateStatusInput{
		OrderStatus:           r.OrderStatus,
		TrackingNumber:        r.TrackingNumber,
		EstimatedDeliveryDate: r.EstimatedDeliveryDate,
		Notes:                 r.Notes,
	}
}

type orderPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type orderPageResponse struct {
	Orders     []domain.Order  `json:"orders"`
	Pagination orderPagination `json:"pagination"`
}

func newOrderPageResponse(p *services.OrderPage) orderPageResponse {
	return orderPageResponse{
		Orders: p.Orders,
		Pagination: orderPagination{
			CurrentPage: p.Pagination.CurrentPage,
			TotalPages:  p.Pagination.TotalPages,
			TotalOrders: p.Pagination.Total,
			HasNextPage: p.Pagination.HasNextPage,
			HasPrevPage: p.Pagination.HasPrevPage,
		},
	}
}

type productPagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

type productPageResponse struct {
	Products   []domain.Product  `json:"products"`
	Pagination productPagination `json:"pagination"`
}

func newProductPageResponse(p *services.ProductPage) productPageResponse {
	return productPageResponse{
		Products: p.Products,
		Pagination: productPagination{
			CurrentPage:   p.Pagination.CurrentPage,
			TotalPages:    p.Pagination.TotalPages,
			TotalProducts: p.Pagination.Total,
			HasNextPage:   p.Pagination.HasNextPage,
			HasPrevPage:   p.Pagination.HasPrevPage,
		},
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	UserName string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateDetailsRequest struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
}

type authResponse struct {
	User   *domain.User `json:"user"`
	Tokens *token.Pair  `json:"tokens"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type productPatchRequest struct {
	Name                *string               `json:"name"`
	Images              []string              `json:"image"`
	Tags                []string              `json:"tags"`
	Categories          []string              `json:"categories"`
	Features            []string              `json:"features"`
	Weights             []domain.WeightOption `json:"weights"`
	Description         *string               `json:"description"`
	DetailedDescription *string               `json:"detailedDescription"`
	InStock             *bool                 `json:"inStock"`
	StockText           *string               `json:"stockText"`
	OriginalPrice       *decimal.Decimal      `json:"originalPrice"`
	CurrentPrice        *decimal.NullDecimal  `json:"currentPrice"`
	SalePrice           *decimal.NullDecimal  `json:"salePrice"`
	Badge               *domain.Badge         `json:"badge"`
	IsBestSeller        *bool                 `json:"isBestSeller"`
	IsOnSale            *bool                 `json:"isOnSale"`
	IsPromo             *bool                 `json:"isPromo"`
}

func (r productPatchRequest) patch() services.ProductPatch {
	return services.ProductPatch{
		Name:                r.Name,
		Images:              r.Images,
		Tags:                r.Tags,
		Categories:          r.Categories,
		Features:            r.Features,
		Weights:             r.Weights,
		Description:         r.Description,
		DetailedDescription: r.DetailedDescription,
		InStock:             r.InStock,
		StockText:           r.StockText,
		OriginalPrice:       r.OriginalPrice,
		CurrentPrice:        r.CurrentPrice,
		SalePrice:           r.SalePrice,
		Badge:               r.Badge,
		IsBestSeller:        r.IsBestSeller,
		IsOnSale:            r.IsOnSale,
		IsPromo:             r.IsPromo,
	}
}

type uploadResponse struct {
	URLs []string `json:"urls"`
}
