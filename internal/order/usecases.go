package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/craftycorner/backend/internal/apperror"
	"github.com/craftycorner/backend/internal/catalog"
	"github.com/craftycorner/backend/internal/outbox"
	"github.com/craftycorner/backend/internal/postgres"
)

// Catalog is the slice of the catalog repository placement needs:
// tx-scoped variant reads and atomic stock reservation.
type Catalog interface {
	GetVariantTx(ctx context.Context, tx postgres.Tx, variantID string) (*catalog.Variant, error)
	DecrementStock(ctx context.Context, tx postgres.Tx, variantID string, qty int) (bool, error)
}

// Outbox records the confirmation event inside the settlement transaction.
type Outbox interface {
	InsertTx(ctx context.Context, tx postgres.Tx, aggregateID, eventType string, payload any) error
}

// CartCache invalidates the cached cart after the transaction commits.
type CartCache interface {
	Invalidate(ctx context.Context, userID string)
}

// UseCase is the settlement coordinator: it turns a cart into an
// immutable order plus a pending payment in one database transaction.
//
// Pricing policy: every line is re-priced from the catalog at placement
// time (last price wins); the cart's snapshot price is display-only.
type UseCase struct {
	repo      Repository
	catalog   Catalog
	outbox    Outbox
	cartCache CartCache
	logger    *zap.Logger

	ordersPlaced metric.Int64Counter
	placeFailed  metric.Int64Counter
}

func NewUseCase(repo Repository, cat Catalog, ob Outbox, cache CartCache, logger *zap.Logger, meter metric.Meter) *UseCase {
	ordersPlaced, _ := meter.Int64Counter("orders_placed_total")
	placeFailed, _ := meter.Int64Counter("order_placement_failures_total")
	return &UseCase{
		repo:         repo,
		catalog:      cat,
		outbox:       ob,
		cartCache:    cache,
		logger:       logger,
		ordersPlaced: ordersPlaced,
		placeFailed:  placeFailed,
	}
}

// PlaceOrder consumes the user's cart and creates the order, its frozen
// line items and a PENDING payment, then empties the cart — all in one
// transaction. Either everything commits or nothing does; no partial
// order is ever observable.
func (uc *UseCase) PlaceOrder(ctx context.Context, userID, addressID, paymentMethod string) (*Order, error) {
	o, err := uc.placeOrder(ctx, userID, addressID, paymentMethod)
	if err != nil {
		if uc.placeFailed != nil {
			uc.placeFailed.Add(ctx, 1)
		}
		return nil, err
	}
	if uc.ordersPlaced != nil {
		uc.ordersPlaced.Add(ctx, 1)
	}
	return o, nil
}

func (uc *UseCase) placeOrder(ctx context.Context, userID, addressID, paymentMethod string) (*Order, error) {
	tx, err := uc.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := uc.repo.GetUserContact(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	snapshot, err := uc.repo.GetCartForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Lines) == 0 {
		return nil, apperror.InvalidState("cart_empty", "cart is empty, nothing to order")
	}

	owner, err := uc.repo.AddressOwner(ctx, tx, addressID)
	if err != nil {
		return nil, err
	}
	if owner != userID {
		return nil, apperror.Unauthorized("address_forbidden", "address %s does not belong to the acting user", addressID)
	}

	o := NewOrder(uuid.New().String(), userID, addressID)

	for _, line := range snapshot.Lines {
		variant, err := uc.catalog.GetVariantTx(ctx, tx, line.VariantID)
		if err != nil {
			return nil, err
		}

		if variant.TracksStock() {
			reserved, err := uc.catalog.DecrementStock(ctx, tx, variant.ID, line.Quantity)
			if err != nil {
				return nil, err
			}
			if !reserved {
				return nil, apperror.InvalidState("insufficient_stock", "not enough stock for variant %s", variant.ID)
			}
		}

		if !variant.PriceSet {
			return nil, apperror.InvalidState("price_unavailable", "variant price missing for %s", variant.ID)
		}

		o.AddItem(NewItem(uuid.New().String(), variant, line.Quantity))
	}

	if err := uc.repo.CreateOrder(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := uc.repo.CreatePayment(ctx, tx, o.ID, o.Total, paymentMethod); err != nil {
		return nil, err
	}
	if err := uc.repo.ClearCart(ctx, tx, snapshot.CartID); err != nil {
		return nil, err
	}

	payload := outbox.OrderConfirmationPayload{
		OrderID:  o.ID,
		UserName: user.Name,
		Email:    user.Email,
		Total:    o.Total.StringFixed(2),
	}
	if err := uc.outbox.InsertTx(ctx, tx, o.ID, outbox.EventTypeOrderConfirmation, payload); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement transaction: %w", err)
	}

	// Post-commit side effects only; the order is already durable.
	uc.cartCache.Invalidate(ctx, userID)
	uc.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("items", len(o.Items)))

	o.PaymentMethod = paymentMethod
	o.PaymentStatus = "PENDING"
	return o, nil
}

// GetOrder fetches one order, scoped to its owner unless the actor is
// an administrator.
func (uc *UseCase) GetOrder(ctx context.Context, actorID string, actorAdmin bool, orderID string) (*Order, error) {
	o, err := uc.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actorAdmin && o.UserID != actorID {
		return nil, apperror.Unauthorized("order_forbidden", "order %s does not belong to the acting user", orderID)
	}
	return o, nil
}

// ListOrders returns the acting user's orders, newest first.
func (uc *UseCase) ListOrders(ctx context.Context, userID string) ([]*Order, error) {
	return uc.repo.ListByUser(ctx, userID)
}

// UpdateStatus applies an administrative transition (SHIPPED, DELIVERED,
// CANCELLED, ...). Admin only; fails closed otherwise.
func (uc *UseCase) UpdateStatus(ctx context.Context, actorAdmin bool, orderID, status string) (*Order, error) {
	if !actorAdmin {
		return nil, apperror.Unauthorized("admin_only", "order status updates require an administrator")
	}
	if !ValidStatus(status) {
		return nil, apperror.InvalidState("invalid_status", "unknown order status %q", status)
	}

	updated, err := uc.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperror.NotFound("order_not_found", "order %s not found", orderID)
	}
	return uc.repo.GetOrder(ctx, orderID)
}
