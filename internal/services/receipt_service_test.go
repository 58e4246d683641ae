package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/duka-api/internal/client/salesapi"
	"github.com/dukahub/duka-api/internal/constants"
	"github.com/dukahub/duka-api/internal/services"
)

func TestReceiptService_Emit(t *testing.T) {
	var out bytes.Buffer
	receipts := services.NewReceiptService(&out, "Mama Njeri Duka")

	sale := &salesapi.Sale{
		ID:            "sale-1",
		CustomerID:    "cust-1",
		PaymentMethod: constants.PaymentMethodMpesa,
		Items: []salesapi.SaleItem{
			{ProductID: "prod-1", Quantity: 2, Price: 10000},
		},
		SubtotalCents:    20000,
		DiscountCents:    5000,
		TaxCents:         2400,
		TotalCents:       17400,
		PaymentReference: "QGH12345XY",
	}

	require.NoError(t, receipts.Emit(context.Background(), sale))

	rendered := out.String()
	assert.Contains(t, rendered, "Mama Njeri Duka")
	assert.Contains(t, rendered, "sale-1")
	assert.Contains(t, rendered, "QGH12345XY")
	assert.Contains(t, rendered, "KES 200.00")
	assert.Contains(t, rendered, "-KES 50.00")
	assert.Contains(t, rendered, "KES 24.00")
	assert.Contains(t, rendered, "KES 174.00")
	assert.Contains(t, rendered, "Asante! Karibu tena.")
}

func TestReceiptService_RenderOmitsZeroDiscount(t *testing.T) {
	receipts := services.NewReceiptService(&bytes.Buffer{}, "Mama Njeri Duka")

	rendered := receipts.Render(&salesapi.Sale{
		ID:            "sale-2",
		PaymentMethod: constants.PaymentMethodCash,
		Items: []salesapi.SaleItem{
			{ProductID: "prod-1", Quantity: 1, Price: 10000},
		},
		SubtotalCents: 10000,
		TaxCents:      1600,
		TotalCents:    11600,
	})

	assert.NotContains(t, rendered, "Discount")
	assert.NotContains(t, rendered, "Ref:")
}
