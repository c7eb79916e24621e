package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/craftycorner/backend/internal/apperror"
	"github.com/craftycorner/backend/internal/postgres"
)

// UserContact identifies the buyer for the confirmation notification.
type UserContact struct {
	ID    string
	Name  string
	Email string
}

// CartSnapshot is the locked view of a cart consumed by placement.
type CartSnapshot struct {
	CartID string
	Lines  []CartLine
}

// CartLine is one cart item as seen inside the settlement transaction.
type CartLine struct {
	ItemID    string
	VariantID string
	Quantity  int
}

// Repository is the settlement ledger: it spans the order, payment, cart
// and outbox tables so that placement commits or aborts as one unit.
type Repository interface {
	BeginTx(ctx context.Context) (postgres.Tx, error)

	GetUserContact(ctx context.Context, tx postgres.Tx, userID string) (*UserContact, error)
	// GetCartForUpdate locks the user's cart row for the duration of the
	// transaction and returns its lines in deterministic order.
	GetCartForUpdate(ctx context.Context, tx postgres.Tx, userID string) (*CartSnapshot, error)
	AddressOwner(ctx context.Context, tx postgres.Tx, addressID string) (string, error)
	CreateOrder(ctx context.Context, tx postgres.Tx, o *Order) error
	CreatePayment(ctx context.Context, tx postgres.Tx, orderID string, amount decimal.Decimal, method string) error
	ClearCart(ctx context.Context, tx postgres.Tx, cartID string) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (bool, error)
}

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) BeginTx(ctx context.Context) (postgres.Tx, error) {
	return postgres.BeginTx(ctx, r.db)
}

func (r *PostgresRepository) GetUserContact(ctx context.Context, tx postgres.Tx, userID string) (*UserContact, error) {
	var u UserContact
	err := postgres.Unwrap(tx).QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user_not_found", "user %s not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) GetCartForUpdate(ctx context.Context, tx postgres.Tx, userID string) (*CartSnapshot, error) {
	pgTx := postgres.Unwrap(tx)

	var snapshot CartSnapshot
	err := pgTx.QueryRow(ctx, `
		SELECT id FROM carts WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&snapshot.CartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("cart_not_found", "cart not found for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	rows, err := pgTx.Query(ctx, `
		SELECT id, product_variant_id, qty
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id
	`, snapshot.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line CartLine
		if err := rows.Scan(&line.ItemID, &line.VariantID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		snapshot.Lines = append(snapshot.Lines, line)
	}
	return &snapshot, rows.Err()
}

func (r *PostgresRepository) AddressOwner(ctx context.Context, tx postgres.Tx, addressID string) (string, error) {
	var owner string
	err := postgres.Unwrap(tx).QueryRow(ctx,
		`SELECT user_id FROM addresses WHERE id = $1`, addressID,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperror.NotFound("address_not_found", "address %s not found", addressID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get address: %w", err)
	}
	return owner, nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, tx postgres.Tx, o *Order) error {
	pgTx := postgres.Unwrap(tx)

	_, err := pgTx.Exec(ctx, `
		INSERT INTO orders (id, user_id, address_id, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.UserID, o.AddressID, o.Status, o.Total, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range o.Items {
		_, err := pgTx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_variant_id, qty, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, o.ID, item.VariantID, item.Quantity, item.UnitPrice, item.Total)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) CreatePayment(ctx context.Context, tx postgres.Tx, orderID string, amount decimal.Decimal, method string) error {
	_, err := postgres.Unwrap(tx).Exec(ctx, `
		INSERT INTO payments (id, order_id, amount, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'PENDING', NOW(), NOW())
	`, uuid.New().String(), orderID, amount, method)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearCart(ctx context.Context, tx postgres.Tx, cartID string) error {
	pgTx := postgres.Unwrap(tx)
	if _, err := pgTx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if _, err := pgTx.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	var method, status *string
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.user_id, o.address_id, o.status, o.total_amount,
		       o.created_at, o.updated_at, p.method, p.status
		FROM orders o
		LEFT JOIN payments p ON p.order_id = o.id
		WHERE o.id = $1
	`, orderID).Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.Total,
		&o.CreatedAt, &o.UpdatedAt, &method, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("order_not_found", "order %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if method != nil {
		o.PaymentMethod = *method
	}
	if status != nil {
		o.PaymentStatus = *status
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_variant_id,
		       p.title, v.variant_name || ' : ' || v.variant_value,
		       COALESCE(
		           (SELECT pi.image_url FROM product_images pi
		            WHERE pi.product_id = p.id ORDER BY pi.created_at LIMIT 1),
		           ''),
		       oi.qty, oi.unit_price, oi.total_price
		FROM order_items oi
		JOIN product_variants v ON v.id = oi.product_variant_id
		JOIN products p ON p.id = v.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID,
			&item.ProductName, &item.VariantDetails, &item.ImageURL,
			&item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.id FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orders := make([]*Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID, status string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
