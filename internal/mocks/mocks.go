package mocks

import (
	"context"
	"io"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/infra/cache"
	"shop-service/internal/infra/imagehost"
	"shop-service/internal/infra/kafka"
	"shop-service/internal/infra/payment"
	rabbit "shop-service/internal/infra/rabbitmq"
	"shop-service/internal/token"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

var _ payment.GatewayInterface = (*MockGateway)(nil)

func (m *MockGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	args := m.Called(gatewayOrderID, paymentID, signature)
	return args.Bool(0)
}

type MockPublisher struct {
	mock.Mock
}

var _ rabbit.PublisherInterface = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}

type MockEmailSender struct {
	mock.Mock
}

var _ kafka.EmailSenderInterface = (*MockEmailSender)(nil)

func (m *MockEmailSender) SendEmail(ctx context.Context, key string, msg kafka.EmailMessage) error {
	args := m.Called(ctx, key, msg)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

var _ cache.CacheInterface = (*MockCache)(nil)

// GetJSON only reports hit and error; tests that need dst filled use Run.
func (m *MockCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	args := m.Called(ctx, key, v, ttl)
	return args.Error(0)
}

func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

type MockUploader struct {
	mock.Mock
}

var _ imagehost.UploaderInterface = (*MockUploader)(nil)

func (m *MockUploader) Upload(ctx context.Context, filename string, r io.Reader) (*imagehost.UploadResult, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imagehost.UploadResult), args.Error(1)
}

type MockTokenProvider struct {
	mock.Mock
}

var _ token.ProviderInterface = (*MockTokenProvider)(nil)

func (m *MockTokenProvider) Issue(u *domain.User) (*token.Pair, error) {
	args := m.Called(u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Pair), args.Error(1)
}

func (m *MockTokenProvider) ParseAccess(tok string) (*token.Claims, error) {
	args := m.Called(tok)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Claims), args.Error(1)
}

func (m *MockTokenProvider) ParseRefresh(tok string) (*token.Claims, error) {
	args := m.Called(tok)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Claims), args.Error(1)
}

type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(hash, password string) bool {
	args := m.Called(hash, password)
	return args.Bool(0)
}
