package daraja_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/duka-api/internal/client/daraja"
	httpClient "github.com/dukahub/duka-api/internal/client/http"
	"github.com/dukahub/duka-api/internal/helpers"
	"github.com/dukahub/duka-api/internal/logger"
)

func init() {
	logger.InitLogger(helpers.StageLocal)
}

func TestDarajaClient_InitiateSTKPush(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mpesa/stkpush/initiate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req daraja.STKPushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "254712345678", req.PhoneNumber)
		assert.Equal(t, int64(23200), req.Amount)

		json.NewEncoder(w).Encode(daraja.STKPushResponse{
			CheckoutRequestID: "ws_CO_123",
			CustomerMessage:   "Success. Request accepted for processing",
		})
	}))
	defer server.Close()

	client := daraja.NewDarajaClient(server.URL, "test-key")
	resp, err := client.InitiateSTKPush(context.Background(), daraja.STKPushRequest{
		Amount:           23200,
		PhoneNumber:      "254712345678",
		AccountReference: "ref-1",
		TransactionDesc:  "Duka checkout",
	})

	require.NoError(t, err)
	assert.Equal(t, "ws_CO_123", resp.CheckoutRequestID)
}

func TestDarajaClient_InitiateSTKPushRejectsMissingCheckoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(daraja.STKPushResponse{})
	}))
	defer server.Close()

	client := daraja.NewDarajaClient(server.URL, "test-key")
	_, err := client.InitiateSTKPush(context.Background(), daraja.STKPushRequest{
		Amount:      100,
		PhoneNumber: "254712345678",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checkout request id")
}

func TestDarajaClient_InitiateSTKPushSurfacesGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(daraja.APIErrorResponse{Error: "invalid phone number"})
	}))
	defer server.Close()

	client := daraja.NewDarajaClient(server.URL, "test-key")
	_, err := client.InitiateSTKPush(context.Background(), daraja.STKPushRequest{
		Amount:      100,
		PhoneNumber: "123",
	})

	require.Error(t, err)
	var httpErr *httpClient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "invalid phone number")
}

func TestDarajaClient_PaymentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/mpesa/payment-status", r.URL.Path)
		assert.Equal(t, "ws_CO_123", r.URL.Query().Get("checkout_id"))

		json.NewEncoder(w).Encode(daraja.PaymentStatusResponse{
			Status:             "COMPLETED",
			MpesaReceiptNumber: "QGH12345XY",
		})
	}))
	defer server.Close()

	client := daraja.NewDarajaClient(server.URL, "test-key")
	status, err := client.PaymentStatus(context.Background(), "ws_CO_123")

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Equal(t, "QGH12345XY", status.MpesaReceiptNumber)
}
