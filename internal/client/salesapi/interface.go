package salesapi

import "context"

// SalesClientInterface defines the interface for backend sale submission
type SalesClientInterface interface {
	CreateSale(ctx context.Context, request CreateSaleRequest) (*Sale, error)
}

// Ensure SalesClient implements the interface
var _ SalesClientInterface = (*SalesClient)(nil)
