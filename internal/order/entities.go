package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/craftycorner/backend/internal/catalog"
)

// Order statuses. PENDING orders move to PAID or PAYMENT_FAILED through
// payment reconciliation; SHIPPED, DELIVERED and CANCELLED are
// administrative transitions with no preconditions.
const (
	StatusPending       = "PENDING"
	StatusPaid          = "PAID"
	StatusShipped       = "SHIPPED"
	StatusDelivered     = "DELIVERED"
	StatusCancelled     = "CANCELLED"
	StatusPaymentFailed = "PAYMENT_FAILED"
)

var validStatuses = map[string]bool{
	StatusPending:       true,
	StatusPaid:          true,
	StatusShipped:       true,
	StatusDelivered:     true,
	StatusCancelled:     true,
	StatusPaymentFailed: true,
}

// ValidStatus reports whether s names a known order status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// Order is immutable once created except for Status and the linked
// payment. Total is fixed at creation and never recomputed.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	AddressID string          `json:"address_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total_amount"`
	Items     []Item          `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Projection of the one-to-one payment row, when present.
	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// Item is a frozen line item: quantity and unit price at placement time,
// independent of any later catalog change.
type Item struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"-"`
	VariantID      string          `json:"product_variant_id"`
	ProductName    string          `json:"product_name"`
	VariantDetails string          `json:"variant_details"`
	ImageURL       string          `json:"image_url,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"price"`
	Total          decimal.Decimal `json:"total_price"`
}

// NewOrder creates a PENDING order shell with a zero total.
func NewOrder(id, userID, addressID string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        id,
		UserID:    userID,
		AddressID: addressID,
		Status:    StatusPending,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewItem freezes a line item at the variant's current price.
func NewItem(id string, variant *catalog.Variant, quantity int) Item {
	return Item{
		ID:             id,
		VariantID:      variant.ID,
		ProductName:    variant.ProductName,
		VariantDetails: variant.Details(),
		Quantity:       quantity,
		UnitPrice:      variant.Price,
		Total:          variant.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// AddItem appends a frozen line item and accumulates the order total.
func (o *Order) AddItem(item Item) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.Total = o.Total.Add(item.Total)
}
