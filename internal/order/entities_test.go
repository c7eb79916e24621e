package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/craftycorner/backend/internal/catalog"
)

func TestNewOrder(t *testing.T) {
	// Arrange
	id := "order-123"
	userID := "user-456"
	addressID := "address-789"

	// Act
	o := NewOrder(id, userID, addressID)

	// Assert
	assert.Equal(t, id, o.ID)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, addressID, o.AddressID)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.Total.IsZero())
	assert.Empty(t, o.Items)
	assert.False(t, o.CreatedAt.IsZero())
	assert.False(t, o.UpdatedAt.IsZero())
}

func TestNewItem_FreezesCurrentPrice(t *testing.T) {
	// Arrange
	variant := &catalog.Variant{
		ID:           "variant-1",
		ProductName:  "Clay Mug",
		VariantName:  "Color",
		VariantValue: "Blue",
		Price:        decimal.RequireFromString("19.99"),
		PriceSet:     true,
	}

	// Act
	item := NewItem("item-1", variant, 3)

	// Assert
	assert.Equal(t, "variant-1", item.VariantID)
	assert.Equal(t, "Clay Mug", item.ProductName)
	assert.Equal(t, "Color : Blue", item.VariantDetails)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, item.Total.Equal(decimal.RequireFromString("59.97")))
}

func TestOrder_AddItem_AccumulatesTotal(t *testing.T) {
	// Arrange
	o := NewOrder("order-1", "user-1", "address-1")
	first := Item{ID: "i1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Total: decimal.RequireFromString("20.00")}
	second := Item{ID: "i2", Quantity: 1, UnitPrice: decimal.RequireFromString("5.50"), Total: decimal.RequireFromString("5.50")}

	// Act
	o.AddItem(first)
	o.AddItem(second)

	// Assert
	assert.Len(t, o.Items, 2)
	assert.Equal(t, "order-1", o.Items[0].OrderID)
	assert.Equal(t, "order-1", o.Items[1].OrderID)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("25.50")))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled, StatusPaymentFailed} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("REFUNDED"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("paid"))
}
