package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/infra/kafka"
	"shop-service/internal/infra/payment"
	rabbit "shop-service/internal/infra/rabbitmq"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	orderStatsCacheKey = "orders:stats"
	defaultStatsTTL    = 30 * time.Second
)

type OrderOptions struct {
	NumberPrefix       string
	Currency           string
	RepriceFromCatalog bool
	CompensateAttempts int
	StatsTTL           time.Duration
}

type OrderService struct {
	repo      repository.OrderRepository
	products  repository.ProductRepository
	addresses repository.AddressRepository
	gateway   payment.GatewayInterface
	publisher rabbit.PublisherInterface
	mailer    kafka.EmailSenderInterface
	cache     cache.CacheInterface
	log       *zap.Logger
	opts      OrderOptions
	now       func() time.Time
}

func NewOrderService(
	r repository.OrderRepository,
	p repository.ProductRepository,
	a repository.AddressRepository,
	gw payment.GatewayInterface,
	pub rabbit.PublisherInterface,
	mailer kafka.EmailSenderInterface,
	c cache.CacheInterface,
	log *zap.Logger,
	opts OrderOptions,
) *OrderService {
	if opts.NumberPrefix == "" {
		opts.NumberPrefix = domain.DefaultOrderNumberPrefix
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.CompensateAttempts < 1 {
		opts.CompensateAttempts = 1
	}
	if opts.StatsTTL <= 0 {
		opts.StatsTTL = defaultStatsTTL
	}
	return &OrderService{
		repo:      r,
		products:  p,
		addresses: a,
		gateway:   gw,
		publisher: pub,
		mailer:    mailer,
		cache:     c,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

type OrderItemInput struct {
	ProductID  uint64
	Quantity   int
	Weight     string
	Price      decimal.Decimal
	TotalPrice decimal.Decimal
}

// CreateOrderInput carries either an inline shipping address or the id of a
// saved address, which is copied onto the order.
type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress domain.ShippingAddress
	AddressID       uint64
	PaymentMethod   domain.PaymentMethod
}

type CreateOrderResult struct {
	Order  *domain.Order   `json:"order"`
	Intent *payment.Intent `json:"razorpayOrder,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateShipping(a domain.ShippingAddress) error {
	fields := []struct{ name, value string }{
		{"name", a.Name},
		{"mobile", a.Mobile},
		{"streetAddress", a.StreetAddress},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return invalid("shippingAddress.%s is required", f.name)
		}
	}
	return nil
}

func (in CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return invalid("order must contain at least one item")
	}
	if err := validateShipping(in.ShippingAddress); err != nil {
		return err
	}
	if !in.PaymentMethod.Valid() {
		return invalid("unsupported payment method %q", in.PaymentMethod)
	}
	for i, it := range in.Items {
		if it.ProductID == 0 {
			return invalid("items[%d].productId is required", i)
		}
		if it.Quantity < 1 {
			return invalid("items[%d].quantity must be at least 1", i)
		}
		if it.Price.IsNegative() || it.TotalPrice.IsNegative() {
			return invalid("items[%d] has a negative price", i)
		}
	}
	return nil
}

// buildItems resolves every referenced product and produces the order lines.
// Line totals are taken as supplied unless repricing from the catalog is enabled.
func (s *OrderService) buildItems(ctx context.Context, in []OrderItemInput) ([]domain.OrderItem, error) {
	ids := make([]uint64, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(in))
	for _, it := range in {
		prod, ok := found[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d does not exist", ErrInvalidInput, it.ProductID)
		}
		line := domain.OrderItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			Weight:     it.Weight,
			Price:      it.Price,
			TotalPrice: it.TotalPrice,
		}
		if s.opts.RepriceFromCatalog {
			line.Price = prod.EffectivePrice()
			line.TotalPrice = line.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		items = append(items, line)
	}
	return items, nil
}

// CreateOrder persists a pending order and, for online payment, opens a gateway
// intent for it. If the intent cannot be opened the order is removed again.
func (s *OrderService) CreateOrder(ctx context.Context, id domain.Identity, in CreateOrderInput) (*CreateOrderResult, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	if in.AddressID != 0 {
		saved, err := s.addresses.FindByIDForUser(ctx, in.AddressID, id.UserID)
		if err != nil {
			return nil, fmt.Errorf("load address: %w", err)
		}
		if saved == nil {
			return nil, invalid("address %d does not exist", in.AddressID)
		}
		in.ShippingAddress = saved.Snapshot()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber:     domain.NewOrderNumber(s.opts.NumberPrefix, s.now()),
		UserID:          id.UserID,
		Items:           items,
		TotalAmount:     domain.SumItems(items),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		OrderStatus:     domain.StatusPending,
	}

	if err := s.repo.Save(ctx, order); err != nil {
		s.log.Error("save order failed", zap.Uint64("user_id", id.UserID), zap.Error(err))
		return nil, fmt.Errorf("save order: %w", err)
	}

	var intent *payment.Intent
	if order.PaymentMethod.RequiresGateway() {
		intent, err = s.gateway.CreateIntent(ctx, payment.IntentRequest{
			AmountMinor: domain.MinorUnits(order.TotalAmount),
			Currency:    s.opts.Currency,
			Receipt:     order.OrderNumber,
			Notes: map[string]string{
				"orderId":     strconv.FormatUint(order.ID, 10),
				"orderNumber": order.OrderNumber,
			},
		})
		if err != nil {
			s.log.Error("create payment intent failed",
				zap.Uint64("order_id", order.ID), zap.String("order_number", order.OrderNumber), zap.Error(err))
			s.compensate(ctx, order.ID)
			return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}

		gwID := intent.ID
		if _, err := s.repo.Update(ctx, order.ID, repository.OrderUpdate{GatewayOrderID: &gwID}); err != nil {
			s.log.Error("bind gateway order failed", zap.Uint64("order_id", order.ID), zap.Error(err))
			s.compensate(ctx, order.ID)
			return nil, fmt.Errorf("bind gateway order: %w", err)
		}
	}

	saved, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	if saved == nil {
		return nil, ErrOrderNotFound
	}

	s.log.Info("order created",
		zap.Uint64("order_id", saved.ID),
		zap.String("order_number", saved.OrderNumber),
		zap.String("payment_method", string(saved.PaymentMethod)),
		zap.String("total", saved.TotalAmount.StringFixed(2)))
	s.afterWrite(ctx, domain.EventOrderCreated, saved, "")

	return &CreateOrderResult{Order: saved, Intent: intent}, nil
}

// compensate deletes an order whose creation could not be completed.
// It runs detached from request cancellation and never returns an error to the caller.
func (s *OrderService) compensate(ctx context.Context, orderID uint64) {
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= s.opts.CompensateAttempts; attempt++ {
		if err = s.repo.Delete(ctx, orderID); err == nil {
			s.log.Info("compensation run", zap.Uint64("order_id", orderID), zap.Int("attempt", attempt))
			return
		}
		s.log.Warn("compensating delete failed", zap.Uint64("order_id", orderID), zap.Int("attempt", attempt), zap.Error(err))
	}
	s.log.Error("orphaned pending order left behind", zap.Uint64("order_id", orderID), zap.Error(err))
}

type ConfirmPaymentInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	OrderID        uint64
}

func (in ConfirmPaymentInput) validate() error {
	switch {
	case strings.TrimSpace(in.GatewayOrderID) == "":
		return invalid("razorpay_order_id is required")
	case strings.TrimSpace(in.PaymentID) == "":
		return invalid("razorpay_payment_id is required")
	case strings.TrimSpace(in.Signature) == "":
		return invalid("razorpay_signature is required")
	case in.OrderID == 0:
		return invalid("orderId is required")
	}
	return nil
}

// ConfirmPayment settles an online payment. The order is marked failed on every
// path that does not end in a verified capture. An already settled order is
// never downgraded, and re-confirming it with valid proof is a no-op.
// Cancelled and delivered orders are rejected before anything is written.
func (s *OrderService) ConfirmPayment(ctx context.Context, id domain.Identity, in ConfirmPaymentInput) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	order, err := s.repo.FindByIDForUser(ctx, in.OrderID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if !order.PaymentMethod.RequiresGateway() {
		return nil, invalid("order %d is not paid through the gateway", order.ID)
	}
	if order.OrderStatus.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.OrderStatus)
	}

	// completed and refunded payments are never rewritten as failed
	settled := order.PaymentStatus == domain.PaymentCompleted || order.PaymentStatus == domain.PaymentRefunded
	confirmed := false
	reason := "verification aborted"
	defer func() {
		if !confirmed && !settled {
			s.markPaymentFailed(ctx, order, reason)
		}
	}()

	if order.GatewayOrderID == "" || order.GatewayOrderID != in.GatewayOrderID ||
		!s.gateway.VerifySignature(in.GatewayOrderID, in.PaymentID, in.Signature) {
		reason = "signature mismatch"
		s.log.Warn("payment signature rejected", zap.Uint64("order_id", order.ID), zap.String("payment_id", in.PaymentID))
		return nil, fmt.Errorf("%w: invalid payment signature", ErrPaymentVerification)
	}

	pay, err := s.gateway.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		reason = "payment lookup failed"
		s.log.Error("fetch payment failed", zap.Uint64("order_id", order.ID), zap.String("payment_id", in.PaymentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if !pay.Captured() || (pay.OrderID != "" && pay.OrderID != in.GatewayOrderID) {
		reason = "payment not captured"
		s.log.Warn("payment not captured",
			zap.Uint64("order_id", order.ID), zap.String("payment_id", in.PaymentID), zap.String("status", pay.Status))
		return nil, fmt.Errorf("%w: payment status is %q", ErrPaymentVerification, pay.Status)
	}

	confirmed = true
	if settled {
		if order.PaymentStatus == domain.PaymentRefunded {
			return nil, fmt.Errorf("%w: payment was refunded", ErrInvalidTransition)
		}
		return order, nil
	}

	paid, status := domain.PaymentCompleted, domain.StatusConfirmed
	updated, err := s.repo.Update(ctx, order.ID, repository.OrderUpdate{PaymentStatus: &paid, OrderStatus: &status})
	if err != nil {
		s.log.Error("record payment failed", zap.Uint64("order_id", order.ID), zap.Error(err))
		return nil, fmt.Errorf("record payment: %w", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}

	s.log.Info("payment confirmed", zap.Uint64("order_id", updated.ID), zap.String("payment_id", in.PaymentID))
	s.afterWrite(ctx, domain.EventOrderPaymentCompleted, updated, "")
	s.notifyConfirmed(ctx, id, updated)
	return updated, nil
}

func (s *OrderService) markPaymentFailed(ctx context.Context, order *domain.Order, reason string) {
	ctx = context.WithoutCancel(ctx)
	failed := domain.PaymentFailed
	updated, err := s.repo.Update(ctx, order.ID, repository.OrderUpdate{PaymentStatus: &failed})
	if err != nil {
		s.log.Error("mark payment failed", zap.Uint64("order_id", order.ID), zap.Error(err))
		return
	}
	if updated == nil {
		return
	}
	s.log.Info("payment failed", zap.Uint64("order_id", order.ID), zap.String("reason", reason))
	s.afterWrite(ctx, domain.EventOrderPaymentFailed, updated, reason)
}

func (s *OrderService) notifyConfirmed(ctx context.Context, id domain.Identity, o *domain.Order) {
	if id.Email == "" {
		return
	}
	msg := kafka.EmailMessage{
		To:       id.Email,
		Subject:  "Order " + o.OrderNumber + " confirmed",
		Template: kafka.TemplateOrderConfirmed,
		Data: map[string]any{
			"userName":    id.UserName,
			"orderNumber": o.OrderNumber,
			"totalAmount": o.TotalAmount.StringFixed(2),
		},
	}
	if err := s.mailer.SendEmail(ctx, o.OrderNumber, msg); err != nil {
		s.log.Warn("queue order confirmation email failed", zap.Uint64("order_id", o.ID), zap.Error(err))
	}
}

// CancelOrder lets the owner cancel an order that has not shipped yet.
// A completed payment is flipped to refunded; no money moves here.
func (s *OrderService) CancelOrder(ctx context.Context, id domain.Identity, orderID uint64, reason string) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	order, err := s.repo.FindByIDForUser(ctx, orderID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.OrderStatus.Cancellable() {
		return nil, fmt.Errorf("%w: order cannot be cancelled in status %s", ErrInvalidTransition, order.OrderStatus)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Cancelled by customer"
	}
	now := s.now()
	status := domain.StatusCancelled
	upd := repository.OrderUpdate{OrderStatus: &status, CancelledAt: &now, Notes: &reason}
	if order.PaymentStatus == domain.PaymentCompleted {
		refunded := domain.PaymentRefunded
		upd.PaymentStatus = &refunded
	}

	updated, err := s.repo.Update(ctx, order.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	s.log.Info("order cancelled", zap.Uint64("order_id", updated.ID), zap.String("reason", reason))
	s.afterWrite(ctx, domain.EventOrderCancelled, updated, reason)
	return updated, nil
}

type OrderPage struct {
	Orders     []domain.Order
	Pagination Pagination
}

func (s *OrderService) ListOwnOrders(ctx context.Context, id domain.Identity, page, limit int) (*OrderPage, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	uid := id.UserID
	return s.list(ctx, repository.OrderListFilter{UserID: &uid}, page, limit)
}

func (s *OrderService) GetOwnOrder(ctx context.Context, id domain.Identity, orderID uint64) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	o, err := s.repo.FindByIDForUser(ctx, orderID, id.UserID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) list(ctx context.Context, f repository.OrderListFilter, page, limit int) (*OrderPage, error) {
	page, limit, offset := pageBounds(page, limit)
	f.Limit, f.Offset = limit, offset
	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &OrderPage{Orders: orders, Pagination: newPagination(page, limit, total)}, nil
}

func requireCapability(id domain.Identity, c domain.Capability) error {
	if !id.Authenticated() {
		return ErrUnauthorized
	}
	if !id.Can(c) {
		return ErrForbidden
	}
	return nil
}

// AdminListOrders lists all orders, optionally restricted to one order status.
func (s *OrderService) AdminListOrders(ctx context.Context, id domain.Identity, status string, page, limit int) (*OrderPage, error) {
	if err := requireCapability(id, domain.CapManageOrders); err != nil {
		return nil, err
	}
	var f repository.OrderListFilter
	if status != "" {
		st := domain.OrderStatus(status)
		if !st.Valid() {
			return nil, invalid("unknown order status %q", status)
		}
		f.OrderStatus = &st
	}
	return s.list(ctx, f, page, limit)
}

func (s *OrderService) AdminGetOrder(ctx context.Context, id domain.Identity, orderID uint64) (*domain.Order, error) {
	if err := requireCapability(id, domain.CapManageOrders); err != nil {
		return nil, err
	}
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

type UpdateStatusInput struct {
	OrderStatus           string
	TrackingNumber        *string
	EstimatedDeliveryDate *string
	Notes                 *string
}

func parseDeliveryDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

func (s *OrderService) AdminUpdateStatus(ctx context.Context, id domain.Identity, orderID uint64, in UpdateStatusInput) (*domain.Order, error) {
	if err := requireCapability(id, domain.CapManageOrders); err != nil {
		return nil, err
	}
	status := domain.OrderStatus(in.OrderStatus)
	if in.OrderStatus == "" {
		return nil, invalid("orderStatus is required")
	}
	if !status.Valid() {
		return nil, invalid("unknown order status %q", in.OrderStatus)
	}

	upd := repository.OrderUpdate{OrderStatus: &status, TrackingNumber: in.TrackingNumber, Notes: in.Notes}
	if in.EstimatedDeliveryDate != nil && *in.EstimatedDeliveryDate != "" {
		d, err := parseDeliveryDate(*in.EstimatedDeliveryDate)
		if err != nil {
			return nil, invalid("estimatedDeliveryDate must be RFC3339 or YYYY-MM-DD")
		}
		upd.EstimatedDeliveryDate = &d
	}
	now := s.now()
	switch status {
	case domain.StatusDelivered:
		upd.DeliveredAt = &now
	case domain.StatusCancelled:
		upd.CancelledAt = &now
	}

	updated, err := s.repo.Update(ctx, orderID, upd)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	s.log.Info("order status updated",
		zap.Uint64("order_id", updated.ID), zap.String("status", string(status)), zap.Uint64("by", id.UserID))
	s.afterWrite(ctx, domain.EventOrderStatusUpdated, updated, "")
	return updated, nil
}

// OrderStats aggregates order counts and totals; results are cached briefly.
func (s *OrderService) OrderStats(ctx context.Context, id domain.Identity) (*domain.OrderStats, error) {
	if err := requireCapability(id, domain.CapManageOrders); err != nil {
		return nil, err
	}

	var cached domain.OrderStats
	hit, err := s.cache.GetJSON(ctx, orderStatsCacheKey, &cached)
	if err != nil {
		s.log.Warn("order stats cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	if err := s.cache.SetJSON(ctx, orderStatsCacheKey, stats, s.opts.StatsTTL); err != nil {
		s.log.Warn("order stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// afterWrite publishes the lifecycle event and drops cached aggregates.
// Both are best-effort.
func (s *OrderService) afterWrite(ctx context.Context, event string, o *domain.Order, reason string) {
	if err := s.publisher.Publish(ctx, event, domain.NewOrderEvent(o, reason, s.now())); err != nil {
		s.log.Warn("publish order event failed", zap.String("event", event), zap.Uint64("order_id", o.ID), zap.Error(err))
	}
	if err := s.cache.Del(ctx, orderStatsCacheKey); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("invalidate order stats failed", zap.Error(err))
	}
}
