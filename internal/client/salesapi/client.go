package salesapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	httpClient "github.com/dukahub/duka-api/internal/client/http"
)

const createSalePath = "/sales"

// SaleItem is one line of a submitted sale.
type SaleItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Discount  int64  `json:"discount"`
}

// CreateSaleRequest defines the payload for recording a sale on the backend.
type CreateSaleRequest struct {
	CustomerID         string     `json:"customerId"`
	PaymentMethod      string     `json:"paymentMethod"`
	Items              []SaleItem `json:"items"`
	MpesaTransactionID *string    `json:"mpesaTransactionId,omitempty"`
}

// Sale is the backend's record of a completed sale. The backend owns the
// persisted row; this is the transient copy used to build the receipt.
type Sale struct {
	ID               string     `json:"id"`
	CustomerID       string     `json:"customerId"`
	PaymentMethod    string     `json:"paymentMethod"`
	Items            []SaleItem `json:"items"`
	SubtotalCents    int64      `json:"subtotal"`
	DiscountCents    int64      `json:"discountAmount"`
	TaxCents         int64      `json:"taxAmount"`
	TotalCents       int64      `json:"total"`
	PaymentReference string     `json:"paymentReference,omitempty"`
}

type SalesClient struct {
	apiKey     string
	httpClient *httpClient.HTTPClient
}

// NewSalesClient creates a backend sales client rooted at the given base URL.
func NewSalesClient(baseURL, apiKey string) *SalesClient {
	client := httpClient.NewHTTPClient(
		httpClient.WithBaseURL(baseURL),
	)
	return &SalesClient{
		httpClient: client,
		apiKey:     apiKey,
	}
}

// CreateSale records a sale on the backend and returns the server-assigned copy.
func (c *SalesClient) CreateSale(ctx context.Context, request CreateSaleRequest) (*Sale, error) {
	resp, err := c.httpClient.Post(
		ctx,
		createSalePath,
		request,
		httpClient.WithBearerToken(c.apiKey),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sale")
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	sale, err := decodeSale(resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode sale response")
	}

	return sale, nil
}

// decodeSale normalizes the backend's response shapes into a typed Sale.
// Some deployments return the sale bare, others wrap it in a "data" or
// "content" envelope; callers always receive the unwrapped record.
func decodeSale(resp *http.Response) (*Sale, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Content json.RawMessage `json:"content"`
	}
	payload := body
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Data) > 0 {
			payload = envelope.Data
		} else if len(envelope.Content) > 0 {
			payload = envelope.Content
		}
	}

	var sale Sale
	if err := json.Unmarshal(payload, &sale); err != nil {
		return nil, errors.Wrap(err, "unexpected sale payload")
	}
	if sale.ID == "" {
		return nil, errors.New("backend returned sale without an id")
	}

	return &sale, nil
}
