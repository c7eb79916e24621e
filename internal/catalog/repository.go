package catalog

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

// Repository reads variant snapshots and reserves stock.
type Repository interface {
	// GetVariant resolves a variant by id.
	GetVariant(ctx context.Context, variantID string) (*Variant, error)

	// ResolveVariant resolves a variant by id, falling back to the
	// product's first (or a synthesized default) variant when the caller
	// supplied a bare product id. Compatibility shim for older clients.
	ResolveVariant(ctx context.Context, id string) (*Variant, error)

	// GetVariantTx resolves a variant inside the settlement transaction.
	GetVariantTx(ctx context.Context, tx postgres.Tx, variantID string) (*Variant, error)

	// DecrementStock atomically reserves qty units. Returns false when
	// tracked stock is insufficient; variants with untracked stock
	// always succeed.
	DecrementStock(ctx context.Context, tx postgres.Tx, variantID string, qty int) (bool, error)
}

// PostgresRepository implements Repository on pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const variantQuery = `
	SELECT v.id, v.product_id, p.title, v.variant_name, v.variant_value,
	       v.price, v.stock_quantity, v.created_at, v.updated_at
	FROM product_variants v
	JOIN products p ON p.id = v.product_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariant(row rowScanner) (*Variant, error) {
	var v Variant
	var price *decimal.Decimal
	err := row.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.VariantName, &v.VariantValue,
		&price, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if price != nil {
		v.Price = *price
		v.PriceSet = true
	}
	return &v, nil
}

func (r *PostgresRepository) GetVariant(ctx context.Context, variantID string) (*Variant, error) {
	v, err := scanVariant(r.db.QueryRow(ctx, variantQuery+` WHERE v.id = $1`, variantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("variant_not_found", "variant %s not found", variantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetVariantTx(ctx context.Context, tx postgres.Tx, variantID string) (*Variant, error) {
	v, err := scanVariant(postgres.Unwrap(tx).QueryRow(ctx, variantQuery+` WHERE v.id = $1`, variantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("variant_not_found", "variant %s not found", variantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ResolveVariant(ctx context.Context, id string) (*Variant, error) {
	v, err := scanVariant(r.db.QueryRow(ctx, variantQuery+` WHERE v.id = $1`, id))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to resolve variant: %w", err)
	}

	// The id was not a variant; treat it as a product id.
	var productID, productName string
	var basePrice *decimal.Decimal
	err = r.db.QueryRow(ctx,
		`SELECT id, title, base_price FROM products WHERE id = $1`, id,
	).Scan(&productID, &productName, &basePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("variant_not_found", "no variant or product found for id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	v, err = scanVariant(r.db.QueryRow(ctx,
		variantQuery+` WHERE v.product_id = $1 ORDER BY v.created_at LIMIT 1`, productID))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to list product variants: %w", err)
	}

	return r.createDefaultVariant(ctx, productID, productName, basePrice)
}

// createDefaultVariant synthesizes the "Default : Standard" variant for a
// product that has none yet.
func (r *PostgresRepository) createDefaultVariant(ctx context.Context, productID, productName string, basePrice *decimal.Decimal) (*Variant, error) {
	variantID := uuid.New().String()
	defaultStock := 100

	_, err := r.db.Exec(ctx, `
		INSERT INTO product_variants (id, product_id, variant_name, variant_value, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, 'Default', 'Standard', $3, $4, NOW(), NOW())
	`, variantID, productID, basePrice, defaultStock)
	if err != nil {
		return nil, fmt.Errorf("failed to create default variant: %w", err)
	}

	return r.GetVariant(ctx, variantID)
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, tx postgres.Tx, variantID string, qty int) (bool, error) {
	// Conditional decrement: zero rows affected means the tracked stock
	// could not cover qty. NULL stock is untracked and never blocks.
	tag, err := postgres.Unwrap(tx).Exec(ctx, `
		UPDATE product_variants
		SET stock_quantity = stock_quantity - $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND stock_quantity >= $1
	`, qty, variantID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var tracked bool
	err = postgres.Unwrap(tx).QueryRow(ctx,
		`SELECT stock_quantity IS NOT NULL FROM product_variants WHERE id = $1`, variantID,
	).Scan(&tracked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperror.NotFound("variant_not_found", "variant %s not found", variantID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check stock tracking: %w", err)
	}

	// Untracked stock passes; tracked stock that did not decrement is short.
	return !tracked, nil
}
