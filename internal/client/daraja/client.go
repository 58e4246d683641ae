package daraja

import (
	"context"
	"fmt"

	httpClient "github.com/dukahub/duka-api/internal/client/http"
)

// Paths on the payments gateway. The gateway fronts Safaricom's Daraja API
// and exposes a simplified initiate/status pair to this service.
const (
	stkPushInitiatePath = "/mpesa/stkpush/initiate"
	paymentStatusPath   = "/mpesa/payment-status"
)

// STKPushRequest defines the payload for initiating an STK push prompt
// on the customer's handset.
type STKPushRequest struct {
	Amount           int64  `json:"amount"`
	PhoneNumber      string `json:"phoneNumber"`
	AccountReference string `json:"accountReference"`
	TransactionDesc  string `json:"transactionDesc"`
}

// STKPushResponse represents the gateway response to an initiation request.
// CheckoutRequestID is the correlation id used for all subsequent status polls.
type STKPushResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseDescription string `json:"ResponseDescription,omitempty"`
	CustomerMessage     string `json:"CustomerMessage,omitempty"`
}

// PaymentStatusResponse represents the gateway's view of one payment attempt.
// Status is one of PENDING, COMPLETED or FAILED.
type PaymentStatusResponse struct {
	Status             string `json:"status"`
	MpesaReceiptNumber string `json:"mpesaReceiptNumber,omitempty"`
	ResultDesc         string `json:"resultDesc,omitempty"`
}

// APIErrorResponse represents the standard error response format from the gateway
type APIErrorResponse struct {
	Error string `json:"error"`
}

type DarajaClient struct {
	apiKey     string
	httpClient *httpClient.HTTPClient
}

// NewDarajaClient creates a gateway client rooted at the given base URL.
func NewDarajaClient(baseURL, apiKey string) *DarajaClient {
	client := httpClient.NewHTTPClient(
		httpClient.WithBaseURL(baseURL),
	)
	return &DarajaClient{
		httpClient: client,
		apiKey:     apiKey,
	}
}

// InitiateSTKPush asks the gateway to push a payment prompt to the customer's
// phone. The returned CheckoutRequestID correlates all later status polls.
func (c *DarajaClient) InitiateSTKPush(ctx context.Context, request STKPushRequest) (*STKPushResponse, error) {
	resp, err := c.httpClient.Post(
		ctx,
		stkPushInitiatePath,
		request,
		httpClient.WithBearerToken(c.apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate STK push: %w", err)
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	var pushResponse STKPushResponse
	if err := c.httpClient.ProcessJSONResponse(resp, &pushResponse); err != nil {
		return nil, fmt.Errorf("failed to process STK push response: %w", err)
	}

	if pushResponse.CheckoutRequestID == "" {
		return nil, fmt.Errorf("gateway returned no checkout request id")
	}

	return &pushResponse, nil
}

// PaymentStatus fetches the current confirmation status for a checkout request.
func (c *DarajaClient) PaymentStatus(ctx context.Context, checkoutRequestID string) (*PaymentStatusResponse, error) {
	resp, err := c.httpClient.Get(
		ctx,
		paymentStatusPath,
		httpClient.WithBearerToken(c.apiKey),
		httpClient.WithQueryParam("checkout_id", checkoutRequestID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment status: %w", err)
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	var statusResponse PaymentStatusResponse
	if err := c.httpClient.ProcessJSONResponse(resp, &statusResponse); err != nil {
		return nil, fmt.Errorf("failed to process payment status response: %w", err)
	}

	return &statusResponse, nil
}
