package daraja

import "context"

// DarajaClientInterface defines the interface for payment gateway operations
type DarajaClientInterface interface {
	InitiateSTKPush(ctx context.Context, request STKPushRequest) (*STKPushResponse, error)
	PaymentStatus(ctx context.Context, checkoutRequestID string) (*PaymentStatusResponse, error)
}

// Ensure DarajaClient implements the interface
var _ DarajaClientInterface = (*DarajaClient)(nil)
