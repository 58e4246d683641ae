package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/duka-api/internal/helpers"
	"github.com/dukahub/duka-api/internal/logger"
	"github.com/dukahub/duka-api/internal/services"
)

func init() {
	logger.InitLogger(helpers.StageLocal)
}

func mustAddItem(t *testing.T, ledger *services.PriceLedger, params services.AddItemParams) {
	t.Helper()
	require.NoError(t, ledger.AddItem(params))
}

func TestPriceLedger_AddItem(t *testing.T) {
	tests := []struct {
		name        string
		params      services.AddItemParams
		expectedErr string
	}{
		{
			name: "valid item",
			params: services.AddItemParams{
				ProductID:      "prod-1",
				Name:           "Unga 2kg",
				UnitPriceCents: 18500,
				Quantity:       2,
				AvailableStock: 10,
			},
		},
		{
			name: "empty product id",
			params: services.AddItemParams{
				Name:           "Unga 2kg",
				UnitPriceCents: 18500,
				Quantity:       1,
				AvailableStock: 10,
			},
			expectedErr: "invalid product_id: must not be empty",
		},
		{
			name: "zero quantity",
			params: services.AddItemParams{
				ProductID:      "prod-1",
				UnitPriceCents: 18500,
				Quantity:       0,
				AvailableStock: 10,
			},
			expectedErr: "invalid quantity: must be at least 1",
		},
		{
			name: "negative price",
			params: services.AddItemParams{
				ProductID:      "prod-1",
				UnitPriceCents: -100,
				Quantity:       1,
				AvailableStock: 10,
			},
			expectedErr: "invalid unit_price: must not be negative",
		},
		{
			name: "quantity exceeds stock",
			params: services.AddItemParams{
				ProductID:      "prod-1",
				UnitPriceCents: 18500,
				Quantity:       11,
				AvailableStock: 10,
			},
			expectedErr: "invalid quantity: exceeds available stock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := services.NewPriceLedger()
			err := ledger.AddItem(tt.params)

			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tt.expectedErr)
				assert.True(t, ledger.IsEmpty())
				return
			}

			require.NoError(t, err)
			items := ledger.Items()
			require.Len(t, items, 1)
			assert.Equal(t, tt.params.ProductID, items[0].ProductID)
			assert.Equal(t, tt.params.Quantity, items[0].Quantity)
		})
	}
}

func TestPriceLedger_AddItemIsAdditive(t *testing.T) {
	ledger := services.NewPriceLedger()

	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 2, AvailableStock: 5,
	})
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 3, AvailableStock: 5,
	})

	items := ledger.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	// One more unit would exceed stock and must be rejected, not clamped
	err := ledger.AddItem(services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 1, AvailableStock: 5,
	})
	require.Error(t, err)
	assert.Equal(t, 5, ledger.Items()[0].Quantity)
}

func TestPriceLedger_Totals(t *testing.T) {
	t.Run("two items at 10000 cents", func(t *testing.T) {
		ledger := services.NewPriceLedger()
		mustAddItem(t, ledger, services.AddItemParams{
			ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 2, AvailableStock: 10,
		})

		totals := ledger.Totals()
		assert.Equal(t, int64(20000), totals.SubtotalCents)
		assert.Equal(t, int64(0), totals.DiscountCents)
		assert.Equal(t, int64(3200), totals.TaxCents)
		assert.Equal(t, int64(23200), totals.TotalCents)
	})

	t.Run("discount reduces the taxable amount", func(t *testing.T) {
		ledger := services.NewPriceLedger()
		mustAddItem(t, ledger, services.AddItemParams{
			ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 2, AvailableStock: 10,
		})
		require.NoError(t, ledger.ApplyDiscount(5000))

		totals := ledger.Totals()
		assert.Equal(t, int64(20000), totals.SubtotalCents)
		assert.Equal(t, int64(5000), totals.DiscountCents)
		assert.Equal(t, int64(2400), totals.TaxCents)
		assert.Equal(t, int64(17400), totals.TotalCents)
	})

	t.Run("discount larger than subtotal floors the taxable amount at zero", func(t *testing.T) {
		ledger := services.NewPriceLedger()
		mustAddItem(t, ledger, services.AddItemParams{
			ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 1, AvailableStock: 10,
		})
		require.NoError(t, ledger.ApplyDiscount(25000))

		totals := ledger.Totals()
		assert.Equal(t, int64(10000), totals.SubtotalCents)
		assert.Equal(t, int64(25000), totals.DiscountCents)
		assert.Equal(t, int64(0), totals.TaxCents)
		assert.Equal(t, int64(0), totals.TotalCents)
	})

	t.Run("tax rounds to the nearest cent", func(t *testing.T) {
		ledger := services.NewPriceLedger()
		mustAddItem(t, ledger, services.AddItemParams{
			ProductID: "prod-1", Name: "Sweet", UnitPriceCents: 3, Quantity: 1, AvailableStock: 10,
		})

		// 3 * 0.16 = 0.48, rounds to 0
		assert.Equal(t, int64(0), ledger.Totals().TaxCents)

		require.NoError(t, ledger.SetQuantity("prod-1", 4))
		// 12 * 0.16 = 1.92, rounds to 2
		assert.Equal(t, int64(2), ledger.Totals().TaxCents)
	})

	t.Run("negative discount is rejected", func(t *testing.T) {
		ledger := services.NewPriceLedger()
		err := ledger.ApplyDiscount(-1)
		require.Error(t, err)
		assert.EqualError(t, err, "invalid discount: must not be negative")
	})
}

func TestPriceLedger_SetQuantity(t *testing.T) {
	ledger := services.NewPriceLedger()
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 2, AvailableStock: 10,
	})

	require.NoError(t, ledger.SetQuantity("prod-1", 5))
	assert.Equal(t, 5, ledger.Items()[0].Quantity)
	assert.Equal(t, int64(50000), ledger.Totals().SubtotalCents)

	// Quantity zero removes the line, same as RemoveItem
	require.NoError(t, ledger.SetQuantity("prod-1", 0))
	assert.True(t, ledger.IsEmpty())
	assert.Equal(t, int64(0), ledger.Totals().TotalCents)

	err := ledger.SetQuantity("prod-404", 1)
	require.Error(t, err)
	assert.EqualError(t, err, "invalid product_id: not in cart")
}

func TestPriceLedger_RemoveItem(t *testing.T) {
	ledger := services.NewPriceLedger()
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 1, AvailableStock: 10,
	})
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-2", Name: "Mafuta 1L", UnitPriceCents: 32000, Quantity: 1, AvailableStock: 10,
	})

	ledger.RemoveItem("prod-1")
	items := ledger.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "prod-2", items[0].ProductID)
	assert.Equal(t, int64(32000), ledger.Totals().SubtotalCents)

	// Removing an unknown product is a no-op
	ledger.RemoveItem("prod-404")
	assert.Len(t, ledger.Items(), 1)
}

func TestPriceLedger_Clear(t *testing.T) {
	ledger := services.NewPriceLedger()
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 2, AvailableStock: 10,
	})
	require.NoError(t, ledger.ApplyDiscount(500))

	ledger.Clear()

	assert.True(t, ledger.IsEmpty())
	assert.Equal(t, services.CartTotals{}, ledger.Totals())
}

func TestPriceLedger_SnapshotIsImmutable(t *testing.T) {
	ledger := services.NewPriceLedger()
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 2, AvailableStock: 10,
	})

	snapshot := ledger.Snapshot()
	require.NoError(t, ledger.SetQuantity("prod-1", 9))
	ledger.RemoveItem("prod-1")

	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 2, snapshot.Items[0].Quantity)
	assert.Equal(t, int64(23200), snapshot.Totals.TotalCents)
}

func TestPriceLedger_CustomTaxRate(t *testing.T) {
	ledger := services.NewPriceLedgerWithTaxRate(0)
	mustAddItem(t, ledger, services.AddItemParams{
		ProductID: "prod-1", Name: "Unga 2kg", UnitPriceCents: 10000, Quantity: 1, AvailableStock: 10,
	})

	totals := ledger.Totals()
	assert.Equal(t, int64(0), totals.TaxCents)
	assert.Equal(t, int64(10000), totals.TotalCents)
}
