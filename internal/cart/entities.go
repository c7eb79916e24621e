package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a user's current selection. Exactly one cart exists per user;
// it is created lazily on first access and its items are deleted, not
// the row itself, when an order is placed from it.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item references a product variant with the unit price snapshotted when
// the item was first added. The snapshot is display-only; placement
// re-prices from the catalog.
type Item struct {
	ID                string          `json:"id"`
	CartID            string          `json:"-"`
	VariantID         string          `json:"product_variant_id"`
	ProductName       string          `json:"product_name"`
	VariantDetails    string          `json:"variant_details"`
	ImageURL          string          `json:"image_url,omitempty"`
	Quantity          int             `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `json:"price"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total sums the snapshot line totals for display.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (i *Item) LineTotal() decimal.Decimal {
	return i.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
