package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/infra/kafka"
	"shop-service/internal/infra/payment"
	"shop-service/internal/mocks"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type orderMocks struct {
	repo      *mocks.MockOrderRepository
	products  *mocks.MockProductRepository
	addresses *mocks.MockAddressRepository
	gateway   *mocks.MockGateway
	pub       *mocks.MockPublisher
	mailer    *mocks.MockEmailSender
	cache     *mocks.MockCache
}

func newTestOrderService(opts OrderOptions) (*OrderService, *orderMocks) {
	m := &orderMocks{
		repo:      new(mocks.MockOrderRepository),
		products:  new(mocks.MockProductRepository),
		addresses: new(mocks.MockAddressRepository),
		gateway:   new(mocks.MockGateway),
		pub:       new(mocks.MockPublisher),
		mailer:    new(mocks.MockEmailSender),
		cache:     new(mocks.MockCache),
	}
	svc := NewOrderService(m.repo, m.products, m.addresses, m.gateway, m.pub, m.mailer, m.cache, zap.NewNop(), opts)
	svc.now = func() time.Time { return fixedNow }
	return svc, m
}

// allowSideEffects accepts the best-effort event, cache and email calls.
func (m *orderMocks) allowSideEffects() {
	m.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.cache.On("Del", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (m *orderMocks) assertExpectations(t *testing.T) {
	m.repo.AssertExpectations(t)
	m.products.AssertExpectations(t)
	m.gateway.AssertExpectations(t)
}

func ptr[T any](v T) *T { return &v }

func validCreateInput(method domain.PaymentMethod) CreateOrderInput {
	return CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: TestProductID, Quantity: 2, Price: decimal.RequireFromString("120.25"), TotalPrice: decimal.RequireFromString("240.50")},
			{ProductID: 4, Quantity: 1, Weight: "500g", Price: decimal.RequireFromString("9.99"), TotalPrice: decimal.RequireFromString("9.99")},
		},
		ShippingAddress: MockShippingAddress(),
		PaymentMethod:   method,
	}
}

func catalog() map[uint64]*domain.Product {
	return map[uint64]*domain.Product{
		TestProductID: CreateMockProduct(TestProductID, "flour", "150.00"),
		4:             CreateMockProduct(4, "jaggery", "12.00"),
	}
}

// persist wires Save, Update and FindByID to a single in-memory order.
func (m *orderMocks) persist() *domain.Order {
	stored := &domain.Order{}
	m.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
		o := args.Get(1).(*domain.Order)
		o.ID = TestOrderID
		*stored = *o
	}).Once()
	m.repo.On("FindByID", mock.Anything, TestOrderID).Return(stored, nil).Maybe()
	return stored
}

func TestOrderService_CreateOrder(t *testing.T) {
	tests := []struct {
		name       string
		identity   domain.Identity
		input      CreateOrderInput
		setupMocks func(m *orderMocks)
		wantErr    error
		check      func(t *testing.T, res *CreateOrderResult, m *orderMocks)
	}{
		{
			name:     "online payment opens intent for the persisted order",
			identity: MockIdentity(),
			input:    validCreateInput(domain.PaymentOnline),
			setupMocks: func(m *orderMocks) {
				m.products.On("FindByIDs", mock.Anything, []uint64{TestProductID, 4}).Return(catalog(), nil)
				stored := m.persist()
				m.gateway.On("CreateIntent", mock.Anything, mock.AnythingOfType("payment.IntentRequest")).
					Return(&payment.Intent{ID: TestGatewayOrderID, Amount: 25049, Currency: "INR", Status: "created"}, nil)
				m.repo.On("Update", mock.Anything, TestOrderID, repository.OrderUpdate{GatewayOrderID: ptr(TestGatewayOrderID)}).
					Return(stored, nil).Run(func(args mock.Arguments) {
					stored.GatewayOrderID = *args.Get(2).(repository.OrderUpdate).GatewayOrderID
				})
				m.pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil).Once()
				m.cache.On("Del", mock.Anything, []string{orderStatsCacheKey}).Return(nil)
			},
			check: func(t *testing.T, res *CreateOrderResult, m *orderMocks) {
				require.NotNil(t, res.Intent)
				assert.Equal(t, TestOrderID, res.Order.ID)
				assert.Equal(t, TestGatewayOrderID, res.Order.GatewayOrderID)
				assert.Equal(t, domain.PaymentPending, res.Order.PaymentStatus)
				assert.Equal(t, domain.StatusPending, res.Order.OrderStatus)
				assert.True(t, res.Order.TotalAmount.Equal(decimal.RequireFromString("250.49")))
				assert.True(t, domain.ValidOrderNumber(domain.DefaultOrderNumberPrefix, res.Order.OrderNumber))

				req := m.gateway.Calls[0].Arguments.Get(1).(payment.IntentRequest)
				assert.Equal(t, domain.MinorUnits(res.Order.TotalAmount), req.AmountMinor)
				assert.Equal(t, int64(25049), req.AmountMinor)
				assert.Equal(t, "INR", req.Currency)
				assert.Equal(t, strconv.FormatUint(res.Order.ID, 10), req.Notes["orderId"])
				assert.Equal(t, res.Order.OrderNumber, req.Notes["orderNumber"])
			},
		},
		{
			name:     "cash on delivery skips the gateway",
			identity: MockIdentity(),
			input:    validCreateInput(domain.PaymentCashOnDelivery),
			setupMocks: func(m *orderMocks) {
				m.products.On("FindByIDs", mock.Anything, []uint64{TestProductID, 4}).Return(catalog(), nil)
				m.persist()
				m.allowSideEffects()
			},
			check: func(t *testing.T, res *CreateOrderResult, m *orderMocks) {
				assert.Nil(t, res.Intent)
				assert.Empty(t, res.Order.GatewayOrderID)
				m.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
			},
		},
		{
			name:     "gateway failure removes the order",
			identity: MockIdentity(),
			input:    validCreateInput(domain.PaymentOnline),
			setupMocks: func(m *orderMocks) {
				m.products.On("FindByIDs", mock.Anything, mock.Anything).Return(catalog(), nil)
				m.persist()
				m.gateway.On("CreateIntent", mock.Anything, mock.Anything).
					Return(nil, &payment.GatewayError{StatusCode: 502, Description: "upstream down"})
				m.repo.On("Delete", mock.Anything, TestOrderID).Return(nil).Once()
			},
			wantErr: ErrPaymentGateway,
			check: func(t *testing.T, _ *CreateOrderResult, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				m.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:     "failed compensation is retried and still reports the gateway error",
			identity: MockIdentity(),
			input:    validCreateInput(domain.PaymentOnline),
			setupMocks: func(m *orderMocks) {
				m.products.On("FindByIDs", mock.Anything, mock.Anything).Return(catalog(), nil)
				m.persist()
				m.gateway.On("CreateIntent", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
				m.repo.On("Delete", mock.Anything, TestOrderID).Return(errors.New("db down")).Times(3)
			},
			wantErr: ErrPaymentGateway,
			check: func(t *testing.T, _ *CreateOrderResult, m *orderMocks) {
				m.repo.AssertNumberOfCalls(t, "Delete", 3)
			},
		},
		{
			name:     "empty item list",
			identity: MockIdentity(),
			input: CreateOrderInput{
				ShippingAddress: MockShippingAddress(),
				PaymentMethod:   domain.PaymentOnline,
			},
			setupMocks: func(m *orderMocks) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name:     "missing shipping field",
			identity: MockIdentity(),
			input: func() CreateOrderInput {
				in := validCreateInput(domain.PaymentOnline)
				in.ShippingAddress.City = "  "
				return in
			}(),
			setupMocks: func(m *orderMocks) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name:       "unknown payment method",
			identity:   MockIdentity(),
			input:      validCreateInput("cheque"),
			setupMocks: func(m *orderMocks) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name:     "zero quantity",
			identity: MockIdentity(),
			input: func() CreateOrderInput {
				in := validCreateInput(domain.PaymentWallet)
				in.Items[1].Quantity = 0
				return in
			}(),
			setupMocks: func(m *orderMocks) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name:     "unknown product",
			identity: MockIdentity(),
			input:    validCreateInput(domain.PaymentWallet),
			setupMocks: func(m *orderMocks) {
				m.products.On("FindByIDs", mock.Anything, mock.Anything).
					Return(map[uint64]*domain.Product{TestProductID: CreateMockProduct(TestProductID, "flour", "150")}, nil)
			},
			wantErr: ErrInvalidInput,
			check: func(t *testing.T, _ *CreateOrderResult, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			},
		},
		{
			name:       "anonymous caller",
			identity:   domain.Identity{},
			input:      validCreateInput(domain.PaymentOnline),
			setupMocks: func(m *orderMocks) {},
			wantErr:    ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestOrderService(OrderOptions{CompensateAttempts: 3})
			tt.setupMocks(m)

			res, err := svc.CreateOrder(context.Background(), tt.identity, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				require.NotNil(t, res)
			}
			if tt.check != nil {
				tt.check(t, res, m)
			}
			m.assertExpectations(t)
		})
	}
}

func TestOrderService_CreateOrder_RepricesFromCatalog(t *testing.T) {
	svc, m := newTestOrderService(OrderOptions{RepriceFromCatalog: true})
	products := catalog()
	products[TestProductID].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("99.50"))
	m.products.On("FindByIDs", mock.Anything, mock.Anything).Return(products, nil)
	m.persist()
	m.allowSideEffects()

	in := validCreateInput(domain.PaymentCashOnDelivery)
	in.Items[0].TotalPrice = decimal.RequireFromString("1.00")

	res, err := svc.CreateOrder(context.Background(), MockIdentity(), in)
	require.NoError(t, err)

	assert.True(t, res.Order.Items[0].Price.Equal(decimal.RequireFromString("99.50")))
	assert.True(t, res.Order.Items[0].TotalPrice.Equal(decimal.RequireFromString("199.00")))
	assert.True(t, res.Order.Items[1].TotalPrice.Equal(decimal.RequireFromString("12.00")))
	assert.True(t, res.Order.TotalAmount.Equal(decimal.RequireFromString("211.00")))
}

func TestOrderService_CreateOrder_FromSavedAddress(t *testing.T) {
	svc, m := newTestOrderService(OrderOptions{})
	saved := domain.NewAddress(TestUserID, MockShippingAddress())
	saved.ID = 5
	saved.City = "Mumbai"
	m.addresses.On("FindByIDForUser", mock.Anything, uint64(5), TestUserID).Return(saved, nil)
	m.addresses.On("FindByIDForUser", mock.Anything, uint64(6), TestUserID).Return(nil, nil)
	m.products.On("FindByIDs", mock.Anything, mock.Anything).Return(catalog(), nil)
	m.persist()
	m.allowSideEffects()

	in := validCreateInput(domain.PaymentCashOnDelivery)
	in.ShippingAddress = domain.ShippingAddress{}
	in.AddressID = 5

	res, err := svc.CreateOrder(context.Background(), MockIdentity(), in)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", res.Order.ShippingAddress.City)

	in.AddressID = 6
	_, err = svc.CreateOrder(context.Background(), MockIdentity(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func confirmInput() ConfirmPaymentInput {
	return ConfirmPaymentInput{
		GatewayOrderID: TestGatewayOrderID,
		PaymentID:      TestPaymentID,
		Signature:      TestSignature,
		OrderID:        TestOrderID,
	}
}

var (
	completedUpdate = repository.OrderUpdate{
		PaymentStatus: ptr(domain.PaymentCompleted),
		OrderStatus:   ptr(domain.StatusConfirmed),
	}
	failedUpdate = repository.OrderUpdate{PaymentStatus: ptr(domain.PaymentFailed)}
)

func TestOrderService_ConfirmPayment(t *testing.T) {
	pending := func() *domain.Order {
		return CreateMockOrder(TestOrderID, TestUserID, domain.StatusPending, domain.PaymentPending)
	}
	settled := func() *domain.Order {
		return CreateMockOrder(TestOrderID, TestUserID, domain.StatusConfirmed, domain.PaymentCompleted)
	}
	withStatus := func(o *domain.Order, p domain.PaymentStatus, s domain.OrderStatus) *domain.Order {
		o.PaymentStatus, o.OrderStatus = p, s
		return o
	}

	tests := []struct {
		name       string
		input      ConfirmPaymentInput
		setupMocks func(m *orderMocks)
		wantErr    error
		wantStatus domain.PaymentStatus
		check      func(t *testing.T, m *orderMocks)
	}{
		{
			name:  "valid signature and captured payment completes the order",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true)
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).
					Return(&payment.Payment{ID: TestPaymentID, Status: payment.StatusCaptured, OrderID: TestGatewayOrderID}, nil)
				m.repo.On("Update", mock.Anything, TestOrderID, completedUpdate).
					Return(withStatus(pending(), domain.PaymentCompleted, domain.StatusConfirmed), nil).Once()
				m.pub.On("Publish", mock.Anything, domain.EventOrderPaymentCompleted, mock.Anything).Return(nil).Once()
				m.cache.On("Del", mock.Anything, mock.Anything).Return(nil)
				m.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.MatchedBy(func(msg kafka.EmailMessage) bool {
					return msg.To == "asha@example.com" && msg.Template == kafka.TemplateOrderConfirmed
				})).Return(nil).Once()
			},
			wantStatus: domain.PaymentCompleted,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, TestOrderID, failedUpdate)
				m.mailer.AssertExpectations(t)
			},
		},
		{
			name:  "tampered signature marks the payment failed",
			input: func() ConfirmPaymentInput { in := confirmInput(); in.Signature = "forged"; return in }(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, "forged").Return(false)
				m.repo.On("Update", mock.Anything, TestOrderID, failedUpdate).
					Return(withStatus(pending(), domain.PaymentFailed, domain.StatusPending), nil).Once()
				m.pub.On("Publish", mock.Anything, domain.EventOrderPaymentFailed, mock.Anything).Return(nil).Once()
				m.cache.On("Del", mock.Anything, mock.Anything).Return(nil)
			},
			wantErr: ErrPaymentVerification,
			check: func(t *testing.T, m *orderMocks) {
				m.gateway.AssertNotCalled(t, "FetchPayment", mock.Anything, mock.Anything)
				m.repo.AssertNotCalled(t, "Update", mock.Anything, TestOrderID, completedUpdate)
			},
		},
		{
			name:  "gateway order id not bound to this order",
			input: func() ConfirmPaymentInput { in := confirmInput(); in.GatewayOrderID = "order_other"; return in }(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", mock.Anything, mock.Anything, mock.Anything).Return(true).Maybe()
				m.repo.On("Update", mock.Anything, TestOrderID, failedUpdate).Return(pending(), nil).Once()
				m.allowSideEffects()
			},
			wantErr: ErrPaymentVerification,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, TestOrderID, completedUpdate)
			},
		},
		{
			name:  "payment not captured",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true)
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).
					Return(&payment.Payment{ID: TestPaymentID, Status: "authorized"}, nil)
				m.repo.On("Update", mock.Anything, TestOrderID, failedUpdate).Return(pending(), nil).Once()
				m.allowSideEffects()
			},
			wantErr: ErrPaymentVerification,
		},
		{
			name:  "captured payment for a different gateway order",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true)
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).
					Return(&payment.Payment{ID: TestPaymentID, Status: payment.StatusCaptured, OrderID: "order_other"}, nil)
				m.repo.On("Update", mock.Anything, TestOrderID, failedUpdate).Return(pending(), nil).Once()
				m.allowSideEffects()
			},
			wantErr: ErrPaymentVerification,
		},
		{
			name:  "fetch failure marks failed and reports upstream error",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true)
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).Return(nil, errors.New("connection reset"))
				m.repo.On("Update", mock.Anything, TestOrderID, failedUpdate).Return(pending(), nil).Once()
				m.allowSideEffects()
			},
			wantErr: ErrPaymentGateway,
		},
		{
			name:  "failed status write does not mask the verification error",
			input: func() ConfirmPaymentInput { in := confirmInput(); in.Signature = "forged"; return in }(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(pending(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, "forged").Return(false)
				m.repo.On("Update", mock.Anything, TestOrderID, failedUpdate).Return(nil, errors.New("db down")).Once()
			},
			wantErr: ErrPaymentVerification,
		},
		{
			name:  "re-confirming a settled order is a no-op",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(settled(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true)
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).
					Return(&payment.Payment{ID: TestPaymentID, Status: payment.StatusCaptured}, nil)
			},
			wantStatus: domain.PaymentCompleted,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				m.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "bad proof against a settled order is rejected without downgrade",
			input: func() ConfirmPaymentInput { in := confirmInput(); in.Signature = "forged"; return in }(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(settled(), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, "forged").Return(false)
			},
			wantErr: ErrPaymentVerification,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "cancelled order is not confirmed even with valid proof",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).
					Return(CreateMockOrder(TestOrderID, TestUserID, domain.StatusCancelled, domain.PaymentPending), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true).Maybe()
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).
					Return(&payment.Payment{ID: TestPaymentID, Status: payment.StatusCaptured, OrderID: TestGatewayOrderID}, nil).Maybe()
			},
			wantErr: ErrInvalidTransition,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				m.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "delivered order is rejected",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).
					Return(CreateMockOrder(TestOrderID, TestUserID, domain.StatusDelivered, domain.PaymentCompleted), nil)
			},
			wantErr: ErrInvalidTransition,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "forged proof keeps a refunded cancellation intact",
			input: func() ConfirmPaymentInput { in := confirmInput(); in.Signature = "forged"; return in }(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).
					Return(CreateMockOrder(TestOrderID, TestUserID, domain.StatusCancelled, domain.PaymentRefunded), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, "forged").Return(false).Maybe()
			},
			wantErr: ErrInvalidTransition,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "refunded payment is never rewritten as failed",
			input: func() ConfirmPaymentInput { in := confirmInput(); in.Signature = "forged"; return in }(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).
					Return(CreateMockOrder(TestOrderID, TestUserID, domain.StatusProcessing, domain.PaymentRefunded), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, "forged").Return(false)
			},
			wantErr: ErrPaymentVerification,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "refunded payment with valid proof is not completed again",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).
					Return(CreateMockOrder(TestOrderID, TestUserID, domain.StatusProcessing, domain.PaymentRefunded), nil)
				m.gateway.On("VerifySignature", TestGatewayOrderID, TestPaymentID, TestSignature).Return(true)
				m.gateway.On("FetchPayment", mock.Anything, TestPaymentID).
					Return(&payment.Payment{ID: TestPaymentID, Status: payment.StatusCaptured, OrderID: TestGatewayOrderID}, nil)
			},
			wantErr: ErrInvalidTransition,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "cash on delivery order cannot be confirmed or failed",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				cod := pending()
				cod.PaymentMethod = domain.PaymentCashOnDelivery
				cod.GatewayOrderID = ""
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(cod, nil)
			},
			wantErr: ErrInvalidInput,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				m.gateway.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "order owned by someone else",
			input: confirmInput(),
			setupMocks: func(m *orderMocks) {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(nil, nil)
			},
			wantErr: ErrOrderNotFound,
			check: func(t *testing.T, m *orderMocks) {
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				m.gateway.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:       "missing payment id",
			input:      func() ConfirmPaymentInput { in := confirmInput(); in.PaymentID = ""; return in }(),
			setupMocks: func(m *orderMocks) {},
			wantErr:    ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestOrderService(OrderOptions{})
			tt.setupMocks(m)

			order, err := svc.ConfirmPayment(context.Background(), MockIdentity(), tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order)
				assert.Equal(t, tt.wantStatus, order.PaymentStatus)
				assert.Equal(t, domain.StatusConfirmed, order.OrderStatus)
			}
			if tt.check != nil {
				tt.check(t, m)
			}
			m.assertExpectations(t)
		})
	}
}

func TestOrderService_CancelOrder(t *testing.T) {
	tests := []struct {
		name        string
		status      domain.OrderStatus
		paid        domain.PaymentStatus
		reason      string
		wantErr     error
		wantUpdate  *repository.OrderUpdate
		missingRepo bool
	}{
		{
			name:   "pending order is cancelled with reason",
			status: domain.StatusPending,
			paid:   domain.PaymentPending,
			reason: "changed my mind",
			wantUpdate: &repository.OrderUpdate{
				OrderStatus: ptr(domain.StatusCancelled),
				CancelledAt: ptr(fixedNow),
				Notes:       ptr("changed my mind"),
			},
		},
		{
			name:   "completed payment is flipped to refunded",
			status: domain.StatusConfirmed,
			paid:   domain.PaymentCompleted,
			wantUpdate: &repository.OrderUpdate{
				OrderStatus:   ptr(domain.StatusCancelled),
				PaymentStatus: ptr(domain.PaymentRefunded),
				CancelledAt:   ptr(fixedNow),
				Notes:         ptr("Cancelled by customer"),
			},
		},
		{name: "shipped order cannot be cancelled", status: domain.StatusShipped, paid: domain.PaymentCompleted, wantErr: ErrInvalidTransition},
		{name: "delivered order cannot be cancelled", status: domain.StatusDelivered, paid: domain.PaymentCompleted, wantErr: ErrInvalidTransition},
		{name: "cancelled order cannot be cancelled again", status: domain.StatusCancelled, paid: domain.PaymentPending, wantErr: ErrInvalidTransition},
		{name: "someone else's order", missingRepo: true, wantErr: ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestOrderService(OrderOptions{})
			if tt.missingRepo {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(nil, nil)
			} else {
				m.repo.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).
					Return(CreateMockOrder(TestOrderID, TestUserID, tt.status, tt.paid), nil)
			}
			if tt.wantUpdate != nil {
				cancelled := CreateMockOrder(TestOrderID, TestUserID, domain.StatusCancelled, tt.paid)
				m.repo.On("Update", mock.Anything, TestOrderID, *tt.wantUpdate).Return(cancelled, nil).Once()
				m.pub.On("Publish", mock.Anything, domain.EventOrderCancelled, mock.Anything).Return(nil).Once()
				m.cache.On("Del", mock.Anything, mock.Anything).Return(nil)
			}

			order, err := svc.CancelOrder(context.Background(), MockIdentity(), TestOrderID, tt.reason)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				m.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusCancelled, order.OrderStatus)
			}
			m.repo.AssertExpectations(t)
			m.pub.AssertExpectations(t)
		})
	}
}

func TestOrderService_ListOwnOrders_Paginates(t *testing.T) {
	svc, m := newTestOrderService(OrderOptions{})
	uid := TestUserID
	m.repo.On("List", mock.Anything, repository.OrderListFilter{UserID: &uid, Limit: 10, Offset: 10}).
		Return([]domain.Order{*CreateMockOrder(1, TestUserID, domain.StatusPending, domain.PaymentPending)}, int64(21), nil)

	page, err := svc.ListOwnOrders(context.Background(), MockIdentity(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 3, Total: 21, HasNextPage: true, HasPrevPage: true}, page.Pagination)
	m.repo.AssertExpectations(t)
}

func TestOrderService_AdminListOrders(t *testing.T) {
	t.Run("requires manage_orders", func(t *testing.T) {
		svc, _ := newTestOrderService(OrderOptions{})
		_, err := svc.AdminListOrders(context.Background(), MockIdentity(), "", 1, 10)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc, _ := newTestOrderService(OrderOptions{})
		_, err := svc.AdminListOrders(context.Background(), MockAdminIdentity(), "lost", 1, 10)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("filters by status", func(t *testing.T) {
		svc, m := newTestOrderService(OrderOptions{})
		st := domain.StatusShipped
		m.repo.On("List", mock.Anything, repository.OrderListFilter{OrderStatus: &st, Limit: 5, Offset: 0}).
			Return(nil, int64(0), nil)

		page, err := svc.AdminListOrders(context.Background(), MockAdminIdentity(), "shipped", 1, 5)
		require.NoError(t, err)
		assert.NotNil(t, page.Orders)
		assert.Empty(t, page.Orders)
		assert.False(t, page.Pagination.HasNextPage)
		m.repo.AssertExpectations(t)
	})
}

func TestOrderService_AdminUpdateStatus(t *testing.T) {
	svc, m := newTestOrderService(OrderOptions{})
	m.allowSideEffects()

	eta := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	want := repository.OrderUpdate{
		OrderStatus:           ptr(domain.StatusDelivered),
		TrackingNumber:        ptr("TRK1"),
		EstimatedDeliveryDate: &eta,
		DeliveredAt:           ptr(fixedNow),
	}
	m.repo.On("Update", mock.Anything, TestOrderID, want).
		Return(CreateMockOrder(TestOrderID, TestUserID, domain.StatusDelivered, domain.PaymentCompleted), nil).Once()
	m.repo.On("Update", mock.Anything, uint64(99), mock.Anything).Return(nil, nil)

	in := UpdateStatusInput{OrderStatus: "delivered", TrackingNumber: ptr("TRK1"), EstimatedDeliveryDate: ptr("2026-03-05")}
	o, err := svc.AdminUpdateStatus(context.Background(), MockAdminIdentity(), TestOrderID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, o.OrderStatus)

	_, err = svc.AdminUpdateStatus(context.Background(), MockAdminIdentity(), 99, in)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.AdminUpdateStatus(context.Background(), MockAdminIdentity(), TestOrderID, UpdateStatusInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := UpdateStatusInput{OrderStatus: "shipped", EstimatedDeliveryDate: ptr("next week")}
	_, err = svc.AdminUpdateStatus(context.Background(), MockAdminIdentity(), TestOrderID, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AdminUpdateStatus(context.Background(), MockIdentity(), TestOrderID, in)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOrderService_OrderStats_UsesCache(t *testing.T) {
	svc, m := newTestOrderService(OrderOptions{StatsTTL: time.Minute})
	stats := &domain.OrderStats{OrderStats: []domain.StatusAggregate{{Status: "pending", Count: 2}}}

	m.cache.On("GetJSON", mock.Anything, orderStatsCacheKey, mock.Anything).Return(false, nil).Once()
	m.repo.On("Stats", mock.Anything).Return(stats, nil).Once()
	m.cache.On("SetJSON", mock.Anything, orderStatsCacheKey, stats, time.Minute).Return(nil).Once()

	got, err := svc.OrderStats(context.Background(), MockAdminIdentity())
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	m.cache.On("GetJSON", mock.Anything, orderStatsCacheKey, mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
		*args.Get(2).(*domain.OrderStats) = *stats
	}).Once()

	got, err = svc.OrderStats(context.Background(), MockAdminIdentity())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.OrderStats[0].Count)

	m.repo.AssertNumberOfCalls(t, "Stats", 1)
	m.cache.AssertExpectations(t)
}
