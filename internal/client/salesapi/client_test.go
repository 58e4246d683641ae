package salesapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/duka-api/internal/client/salesapi"
	"github.com/dukahub/duka-api/internal/helpers"
	"github.com/dukahub/duka-api/internal/logger"
)

func init() {
	logger.InitLogger(helpers.StageLocal)
}

func TestSalesClient_CreateSale(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "bare sale",
			body: `{"id":"sale-1","customerId":"cust-1","paymentMethod":"MPESA","total":23200}`,
		},
		{
			name: "data envelope",
			body: `{"data":{"id":"sale-1","customerId":"cust-1","paymentMethod":"MPESA","total":23200}}`,
		},
		{
			name: "content envelope",
			body: `{"content":{"id":"sale-1","customerId":"cust-1","paymentMethod":"MPESA","total":23200}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/sales", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req salesapi.CreateSaleRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "cust-1", req.CustomerID)
				require.NotNil(t, req.MpesaTransactionID)
				assert.Equal(t, "QGH12345XY", *req.MpesaTransactionID)

				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			reference := "QGH12345XY"
			client := salesapi.NewSalesClient(server.URL, "test-key")
			sale, err := client.CreateSale(context.Background(), salesapi.CreateSaleRequest{
				CustomerID:    "cust-1",
				PaymentMethod: "MPESA",
				Items: []salesapi.SaleItem{
					{ProductID: "prod-1", Quantity: 2, Price: 10000},
				},
				MpesaTransactionID: &reference,
			})

			require.NoError(t, err)
			assert.Equal(t, "sale-1", sale.ID)
			assert.Equal(t, int64(23200), sale.TotalCents)
		})
	}
}

func TestSalesClient_CreateSaleRejectsSaleWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"accepted"}`)
	}))
	defer server.Close()

	client := salesapi.NewSalesClient(server.URL, "test-key")
	_, err := client.CreateSale(context.Background(), salesapi.CreateSaleRequest{
		CustomerID:    "cust-1",
		PaymentMethod: "CASH",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "without an id")
}

func TestSalesClient_CreateSaleSurfacesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"customer not found"}`)
	}))
	defer server.Close()

	client := salesapi.NewSalesClient(server.URL, "test-key")
	_, err := client.CreateSale(context.Background(), salesapi.CreateSaleRequest{
		CustomerID:    "cust-404",
		PaymentMethod: "CASH",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create sale")
}
