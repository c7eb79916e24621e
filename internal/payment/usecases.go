package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/craftycorner/backend/internal/apperror"
	"github.com/craftycorner/backend/internal/order"
)

// IntentResponse is everything the front end needs to run the
// provider's client-side confirmation step. No secret key is included.
type IntentResponse struct {
	ClientSecret   string          `json:"clientSecret"`
	PublishableKey string          `json:"publishableKey"`
	PaymentID      string          `json:"paymentId"`
	OrderID        string          `json:"orderId"`
	Amount         decimal.Decimal `json:"amount"`
}

// UseCase reconciles provider verdicts into the local payment/order
// pair. Provider round trips always happen before a transaction is
// opened, so no row lock is ever held across the network.
type UseCase struct {
	repo           Repository
	provider       Provider
	publishableKey string
	currency       string
	logger         *zap.Logger

	intentsCreated    metric.Int64Counter
	paymentsConfirmed metric.Int64Counter
	paymentsFailed    metric.Int64Counter
}

func NewUseCase(repo Repository, provider Provider, publishableKey, currency string, logger *zap.Logger, meter metric.Meter) *UseCase {
	intentsCreated, _ := meter.Int64Counter("payment_intents_created_total")
	paymentsConfirmed, _ := meter.Int64Counter("payments_confirmed_total")
	paymentsFailed, _ := meter.Int64Counter("payments_failed_total")
	return &UseCase{
		repo:              repo,
		provider:          provider,
		publishableKey:    publishableKey,
		currency:          currency,
		logger:            logger,
		intentsCreated:    intentsCreated,
		paymentsConfirmed: paymentsConfirmed,
		paymentsFailed:    paymentsFailed,
	}
}

// CreateIntent mints a fresh provider intent for the order's total.
// The local payment row is created lazily if placement somehow did not
// leave one; beyond that no local state is mutated, so a provider
// timeout here is safe to retry.
func (uc *UseCase) CreateIntent(ctx context.Context, actorID string, actorAdmin bool, orderID string) (*IntentResponse, error) {
	ref, err := uc.repo.GetOrderRef(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actorAdmin && ref.UserID != actorID {
		return nil, apperror.Unauthorized("order_forbidden", "order %s does not belong to the acting user", orderID)
	}

	pay, err := uc.repo.GetByOrderID(ctx, orderID)
	if apperror.KindOf(err) == apperror.KindNotFound {
		pay, err = uc.repo.CreatePending(ctx, orderID, ref.Total, "STRIPE")
	}
	if err != nil {
		return nil, err
	}

	intent, err := uc.provider.CreateIntent(ctx, MinorUnits(ref.Total), uc.currency, map[string]string{
		"orderId": orderID,
	})
	if err != nil {
		return nil, apperror.Provider(err, "payment intent creation failed for order %s", orderID)
	}

	if uc.intentsCreated != nil {
		uc.intentsCreated.Add(ctx, 1)
	}
	uc.logger.Info("payment intent created",
		zap.String("order_id", orderID),
		zap.String("intent_id", intent.ID))

	return &IntentResponse{
		ClientSecret:   intent.ClientSecret,
		PublishableKey: uc.publishableKey,
		PaymentID:      pay.ID,
		OrderID:        orderID,
		Amount:         ref.Total,
	}, nil
}

// Confirm fetches the provider's current verdict for the intent and
// applies it to the payment and order together. The client-supplied
// status is never trusted; only the provider round trip counts.
//
// Safe to call repeatedly: both target states are absorbing, so
// re-confirming re-applies the same terminal transition.
func (uc *UseCase) Confirm(ctx context.Context, actorID string, actorAdmin bool, intentID, orderID string) (bool, error) {
	ref, err := uc.repo.GetOrderRef(ctx, orderID)
	if apperror.KindOf(err) == apperror.KindNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !actorAdmin && ref.UserID != actorID {
		return false, apperror.Unauthorized("order_forbidden", "order %s does not belong to the acting user", orderID)
	}

	intent, err := uc.provider.RetrieveIntent(ctx, intentID)
	if err != nil {
		// No local state touched; the pair stays PENDING and the call
		// can be retried.
		return false, apperror.Provider(err, "payment confirmation failed for order %s", orderID)
	}

	tx, err := uc.repo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin confirmation transaction: %w", err)
	}
	defer tx.Rollback()

	pay, err := uc.repo.GetForUpdate(ctx, tx, orderID)
	if apperror.KindOf(err) == apperror.KindNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if intent.Succeeded() {
		if err := uc.repo.ApplyVerdict(ctx, tx, pay.ID, StatusPaid, MethodCard); err != nil {
			return false, err
		}
		if err := uc.repo.SetOrderStatus(ctx, tx, orderID, order.StatusPaid); err != nil {
			return false, err
		}
	} else {
		if err := uc.repo.ApplyVerdict(ctx, tx, pay.ID, StatusFailed, pay.Method); err != nil {
			return false, err
		}
		if err := uc.repo.SetOrderStatus(ctx, tx, orderID, order.StatusPaymentFailed); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit confirmation transaction: %w", err)
	}

	if intent.Succeeded() {
		if uc.paymentsConfirmed != nil {
			uc.paymentsConfirmed.Add(ctx, 1)
		}
	} else if uc.paymentsFailed != nil {
		uc.paymentsFailed.Add(ctx, 1)
	}
	uc.logger.Info("payment verdict applied",
		zap.String("order_id", orderID),
		zap.String("intent_id", intentID),
		zap.String("provider_status", intent.Status),
		zap.Bool("settled", intent.Succeeded()))

	return intent.Succeeded(), nil
}
