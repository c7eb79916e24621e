package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Poller drains unprocessed events on a fixed tick and dispatches them.
// An event is marked processed only after its side effect succeeded, so
// delivery is at-least-once.
type Poller struct {
	repo    Repository
	mailer  Mailer
	logger  *zap.Logger
	tick    time.Duration
	timeout time.Duration
	batch   int
}

func NewPoller(repo Repository, mailer Mailer, logger *zap.Logger, tick time.Duration, batch int) *Poller {
	return &Poller{
		repo:    repo,
		mailer:  mailer,
		logger:  logger,
		tick:    tick,
		timeout: 5 * time.Second,
		batch:   batch,
	}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessed(ctx, p.batch)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.dispatch(ctx, event); err != nil {
			p.logger.Warn("failed to dispatch outbox event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			continue
		}

		if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark outbox event processed",
				zap.Int64("event_id", event.ID),
				zap.Error(err))
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, event *Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch event.EventType {
	case EventTypeOrderConfirmation:
		var payload OrderConfirmationPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal confirmation payload: %w", err)
		}
		subject := fmt.Sprintf("Order placed successfully: #%s", payload.OrderID)
		body := fmt.Sprintf(
			"Hello %s,\nYour order #%s has been placed successfully!\nTotal: ₹%s\nWe'll notify you once it's confirmed.",
			payload.UserName, payload.OrderID, payload.Total,
		)
		return p.mailer.Send(ctx, payload.Email, subject, body)
	default:
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
}
