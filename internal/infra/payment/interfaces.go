package payment

import "context"

type GatewayInterface interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

var _ GatewayInterface = (*RazorpayClient)(nil)
