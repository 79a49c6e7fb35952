package catalog

import (
	"errors"
	"testing"

	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("Instant Noodles", "8991001", decimal.RequireFromString("9.99"), 5)
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, "Instant Noodles", product.Name)
		assert.Equal(t, "8991001", product.Barcode)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("9.99")))
		assert.Equal(t, int64(5), product.Stock)
		assert.NotEmpty(t, product.ID)
		assert.Equal(t, 1, product.Version)
	})

	t.Run("trims name and barcode", func(t *testing.T) {
		product, err := NewProduct("  Coffee  ", " 12345 ", decimal.NewFromInt(3), 0)
		require.NoError(t, err)
		assert.Equal(t, "Coffee", product.Name)
		assert.Equal(t, "12345", product.Barcode)
	})

	t.Run("publishes ProductCreated event", func(t *testing.T) {
		product, err := NewProduct("Tea", "TEA-01", decimal.NewFromInt(2), 10)
		require.NoError(t, err)

		events := product.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())

		event, ok := events[0].(*ProductCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, product.ID, event.ProductID)
		assert.Equal(t, int64(10), event.Stock)
	})

	t.Run("allows zero price", func(t *testing.T) {
		_, err := NewProduct("Free Bag", "BAG-01", decimal.Zero, 100)
		require.NoError(t, err)
	})

	tests := []struct {
		name    string
		pName   string
		barcode string
		price   string
		stock   int64
		wantMsg string
	}{
		{"empty name", "", "123", "1", 1, "name cannot be empty"},
		{"empty barcode", "Milk", "", "1", 1, "Barcode cannot be empty"},
		{"invalid barcode characters", "Milk", "12 34", "1", 1, "letters, digits and hyphens"},
		{"negative price", "Milk", "123", "-0.01", 1, "Price cannot be negative"},
		{"negative stock", "Milk", "123", "1", -1, "Stock cannot be negative"},
	}
	for _, tt := range tests {
		t.Run("fails with "+tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.pName, tt.barcode, decimal.RequireFromString(tt.price), tt.stock)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.True(t, errors.Is(err, shared.ErrInvalidRequest))
		})
	}
}

func TestProduct_Update(t *testing.T) {
	product, err := NewProduct("Bread", "BRD-01", decimal.RequireFromString("1.50"), 4)
	require.NoError(t, err)
	product.DiscardEvents()

	t.Run("updates fields and bumps version", func(t *testing.T) {
		require.NoError(t, product.Update("Whole Bread", "BRD-02", decimal.RequireFromString("1.75")))

		assert.Equal(t, "Whole Bread", product.Name)
		assert.Equal(t, "BRD-02", product.Barcode)
		assert.Equal(t, 2, product.Version)
		assert.Equal(t, int64(4), product.Stock)

		events := product.PendingEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeProductUpdated, events[0].EventType())
		assert.Equal(t, EventTypeProductPriceChanged, events[1].EventType())
	})

	t.Run("skips price event when price unchanged", func(t *testing.T) {
		product.DiscardEvents()
		require.NoError(t, product.Update("Whole Bread", "BRD-02", decimal.RequireFromString("1.7500")))
		require.Len(t, product.PendingEvents(), 1)
	})

	t.Run("rejects invalid price", func(t *testing.T) {
		err := product.Update("Whole Bread", "BRD-02", decimal.NewFromInt(-1))
		require.Error(t, err)
	})
}

func TestProduct_LineTotal(t *testing.T) {
	product, err := NewProduct("Chocolate", "CHOC-1", decimal.RequireFromString("9.99"), 5)
	require.NoError(t, err)

	assert.True(t, product.LineTotal(2).Equal(decimal.RequireFromString("19.98")))
	assert.True(t, product.LineTotal(3).Equal(decimal.RequireFromString("29.97")))
}

func TestProduct_SetImageURL(t *testing.T) {
	product, err := NewProduct("Soap", "SOAP-1", decimal.NewFromInt(1), 1)
	require.NoError(t, err)

	require.NoError(t, product.SetImageURL(" https://cdn.example.com/soap.png "))
	assert.Equal(t, "https://cdn.example.com/soap.png", product.ImageURL)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, product.SetImageURL(string(long)))
}
