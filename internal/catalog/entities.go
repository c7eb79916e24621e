package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is a sellable product variant. Price may be unset while a
// vendor is still drafting the product; StockQuantity is nil when the
// variant does not track stock.
type Variant struct {
	ID            string          `json:"id" db:"id"`
	ProductID     string          `json:"product_id" db:"product_id"`
	ProductName   string          `json:"product_name" db:"product_name"`
	VariantName   string          `json:"variant_name" db:"variant_name"`
	VariantValue  string          `json:"variant_value" db:"variant_value"`
	Price         decimal.Decimal `json:"price" db:"price"`
	PriceSet      bool            `json:"-" db:"-"`
	StockQuantity *int            `json:"stock_quantity,omitempty" db:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Details renders the variant label shown on carts and orders.
func (v *Variant) Details() string {
	return v.VariantName + " : " + v.VariantValue
}

// TracksStock reports whether placement must reserve stock for this variant.
func (v *Variant) TracksStock() bool {
	return v.StockQuantity != nil
}
