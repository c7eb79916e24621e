package payment

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

// Repository persists payments and applies reconciled verdicts to the
// payment/order pair.
type Repository interface {
	BeginTx(ctx context.Context) (postgres.Tx, error)

	GetOrderRef(ctx context.Context, orderID string) (*OrderRef, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	CreatePending(ctx context.Context, orderID string, amount decimal.Decimal, method string) (*Payment, error)

	// GetForUpdate locks the payment row so concurrent verdicts for the
	// same order serialize.
	GetForUpdate(ctx context.Context, tx postgres.Tx, orderID string) (*Payment, error)
	ApplyVerdict(ctx context.Context, tx postgres.Tx, paymentID, status, method string) error
	SetOrderStatus(ctx context.Context, tx postgres.Tx, orderID, status string) error
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

func (r *PostgresRepository) GetOrderRef(ctx context.Context, orderID string) (*OrderRef, error) {
	var ref OrderRef
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, total_amount, status FROM orders WHERE id = $1
	`, orderID).Scan(&ref.ID, &ref.UserID, &ref.Total, &ref.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("order_not_found", "order %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &ref, nil
}

const paymentColumns = `id, order_id, amount, method, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("payment_not_found", "payment not found for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) CreatePending(ctx context.Context, orderID string, amount decimal.Decimal, method string) (*Payment, error) {
	// ON CONFLICT keeps the one-payment-per-order invariant under
	// concurrent intent creation.
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (id, order_id, amount, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'PENDING', NOW(), NOW())
		ON CONFLICT (order_id) DO NOTHING
	`, uuid.New().String(), orderID, amount, method)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return r.GetByOrderID(ctx, orderID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, tx postgres.Tx, orderID string) (*Payment, error) {
	p, err := scanPayment(postgres.Unwrap(tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 FOR UPDATE`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("payment_not_found", "payment not found for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ApplyVerdict(ctx context.Context, tx postgres.Tx, paymentID, status, method string) error {
	_, err := postgres.Unwrap(tx).Exec(ctx, `
		UPDATE payments SET status = $1, method = $2, updated_at = NOW() WHERE id = $3
	`, status, method, paymentID)
	if err != nil {
		return fmt.Errorf("failed to apply payment verdict: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetOrderStatus(ctx context.Context, tx postgres.Tx, orderID, status string) error {
	_, err := postgres.Unwrap(tx).Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to set order status: %w", err)
	}
	return nil
}
