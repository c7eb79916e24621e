package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses. PENDING moves to PAID or FAILED exactly once, in
// lockstep with the order's status.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusFailed  = "FAILED"
)

// MethodCard is the settlement instrument recorded on a successful
// provider verdict.
const MethodCard = "CARD"

// Payment is the one-to-one settlement record of an order. Amount equals
// the order total at creation and is never recomputed.
type Payment struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderRef is the slice of an order the payment flow needs.
type OrderRef struct {
	ID     string
	UserID string
	Total  decimal.Decimal
	Status string
}

// MinorUnits scales a settlement amount to the provider's integer minor
// units (two implied decimals: 19.99 -> 1999).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
