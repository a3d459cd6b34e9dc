package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayClient_VerifySignature(t *testing.T) {
	c := NewRazorpayClient("http://unused", "key_id", "s3cret", time.Second)

	valid := Sign("s3cret", "order_abc", "pay_xyz")

	assert.True(t, c.VerifySignature("order_abc", "pay_xyz", valid))
	assert.False(t, c.VerifySignature("order_abc", "pay_other", valid))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", valid[:len(valid)-1]+"0"))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", ""))
	assert.NotEqual(t, valid, Sign("other", "order_abc", "pay_xyz"))
}

func TestRazorpayClient_CreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "s3cret", pass)

		var in IntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, int64(125050), in.AmountMinor)
		assert.Equal(t, "INR", in.Currency)
		assert.Equal(t, "42", in.Notes["orderId"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Intent{ID: "order_1", Amount: in.AmountMinor, Currency: in.Currency, Status: "created"})
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL+"/v1/", "key_id", "s3cret", time.Second)
	intent, err := c.CreateIntent(context.Background(), IntentRequest{
		AmountMinor: 125050,
		Currency:    "INR",
		Notes:       map[string]string{"orderId": "42"},
	})

	require.NoError(t, err)
	assert.Equal(t, "order_1", intent.ID)
	assert.Equal(t, int64(125050), intent.Amount)
}

func TestRazorpayClient_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "k", "s", time.Second)
	_, err := c.CreateIntent(context.Background(), IntentRequest{AmountMinor: 1, Currency: "INR"})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", gwErr.Code)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestRazorpayClient_FetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payments/pay_123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pay_123","status":"captured","order_id":"order_1","amount":5000}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "k", "s", time.Second)
	p, err := c.FetchPayment(context.Background(), "pay_123")

	require.NoError(t, err)
	assert.True(t, p.Captured())
	assert.Equal(t, "order_1", p.OrderID)
}
