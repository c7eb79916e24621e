package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/craftycorner/backend/internal/apperror"
)

// Repository defines the cart persistence operations.
type Repository interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	Create(ctx context.Context, userID string) (*Cart, error)

	// AddItem inserts the (cart, variant) item or increments its quantity.
	// The price snapshot is taken on first insert and never refreshed.
	AddItem(ctx context.Context, cartID, variantID string, quantity int, unitPrice decimal.Decimal) error

	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (bool, error)
	DeleteItem(ctx context.Context, cartID, itemID string) (bool, error)
	Clear(ctx context.Context, cartID string) error
}

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("cart_not_found", "cart not found for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items, err := r.loadItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_variant_id,
		       p.title, v.variant_name || ' : ' || v.variant_value,
		       COALESCE(
		           (SELECT pi.image_url FROM product_images pi
		            WHERE pi.product_id = p.id ORDER BY pi.created_at LIMIT 1),
		           ''),
		       ci.qty, ci.unit_price_snapshot
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.product_variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID,
			&item.ProductName, &item.VariantDetails, &item.ImageURL,
			&item.Quantity, &item.UnitPriceSnapshot); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, userID string) (*Cart, error) {
	cartID := uuid.New().String()
	_, err := r.db.Exec(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, cartID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return r.GetByUserID(ctx, userID)
}

func (r *PostgresRepository) AddItem(ctx context.Context, cartID, variantID string, quantity int, unitPrice decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_variant_id, qty, unit_price_snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_variant_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty
	`, uuid.New().String(), cartID, variantID, quantity, unitPrice)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE cart_items SET qty = $1
		WHERE id = $2 AND cart_id = $3
	`, quantity, itemID, cartID)
	if err != nil {
		return false, fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, cartID, itemID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2
	`, itemID, cartID)
	if err != nil {
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
