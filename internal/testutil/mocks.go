package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dukahub/duka-api/internal/client/daraja"
	"github.com/dukahub/duka-api/internal/client/salesapi"
)

// MockDarajaClient provides a mock for the payment gateway client
type MockDarajaClient struct {
	mock.Mock
}

func (m *MockDarajaClient) InitiateSTKPush(ctx context.Context, request daraja.STKPushRequest) (*daraja.STKPushResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daraja.STKPushResponse), args.Error(1)
}

func (m *MockDarajaClient) PaymentStatus(ctx context.Context, checkoutRequestID string) (*daraja.PaymentStatusResponse, error) {
	args := m.Called(ctx, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daraja.PaymentStatusResponse), args.Error(1)
}

// MockSalesClient provides a mock for the backend sales client
type MockSalesClient struct {
	mock.Mock
}

func (m *MockSalesClient) CreateSale(ctx context.Context, request salesapi.CreateSaleRequest) (*salesapi.Sale, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapi.Sale), args.Error(1)
}

// MockReceiptEmitter provides a mock for receipt emission
type MockReceiptEmitter struct {
	mock.Mock
}

func (m *MockReceiptEmitter) Emit(ctx context.Context, sale *salesapi.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}
