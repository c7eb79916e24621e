package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/craftycorner/backend/internal/postgres"
)

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) InsertTx(ctx context.Context, tx postgres.Tx, aggregateID, eventType string, payload any) error {
	args := m.Called(ctx, tx, aggregateID, eventType, payload)
	return args.Error(0)
}

func (m *mockEventRepository) GetUnprocessed(ctx context.Context, limit int) ([]*Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Event), args.Error(1)
}

func (m *mockEventRepository) MarkProcessed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func confirmationEvent(t *testing.T, id int64) *Event {
	t.Helper()
	payload, err := json.Marshal(OrderConfirmationPayload{
		OrderID:  "order-1",
		UserName: "Asha",
		Email:    "asha@example.com",
		Total:    "39.98",
	})
	assert.NoError(t, err)
	return &Event{ID: id, AggregateID: "order-1", EventType: EventTypeOrderConfirmation, Payload: payload, CreatedAt: time.Now()}
}

func TestPoller_DispatchesAndMarksProcessed(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockEventRepository)
	mailer := new(mockMailer)
	event := confirmationEvent(t, 1)

	repo.On("GetUnprocessed", ctx, 100).Return([]*Event{event}, nil)
	mailer.On("Send", mock.Anything, "asha@example.com",
		"Order placed successfully: #order-1", mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Hello Asha") && strings.Contains(body, "₹39.98")
		})).Return(nil)
	repo.On("MarkProcessed", ctx, int64(1)).Return(nil)

	p := NewPoller(repo, mailer, zap.NewNop(), time.Second, 100)

	// Act
	p.processUnpublishedEvents(ctx)

	// Assert
	repo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestPoller_KeepsEventOnSendFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockEventRepository)
	mailer := new(mockMailer)
	event := confirmationEvent(t, 7)

	repo.On("GetUnprocessed", ctx, 100).Return([]*Event{event}, nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp unreachable"))

	p := NewPoller(repo, mailer, zap.NewNop(), time.Second, 100)

	// Act
	p.processUnpublishedEvents(ctx)

	// Assert
	repo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestPoller_ContinuesPastBadEvent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mockEventRepository)
	mailer := new(mockMailer)
	bad := &Event{ID: 1, EventType: "unknown_type", Payload: []byte(`{}`), CreatedAt: time.Now()}
	good := confirmationEvent(t, 2)

	repo.On("GetUnprocessed", ctx, 100).Return([]*Event{bad, good}, nil)
	mailer.On("Send", mock.Anything, "asha@example.com", mock.Anything, mock.Anything).Return(nil)
	repo.On("MarkProcessed", ctx, int64(2)).Return(nil)

	p := NewPoller(repo, mailer, zap.NewNop(), time.Second, 100)

	// Act
	p.processUnpublishedEvents(ctx)

	// Assert
	repo.AssertNotCalled(t, "MarkProcessed", ctx, int64(1))
	repo.AssertCalled(t, "MarkProcessed", ctx, int64(2))
}

func TestPoller_RunStopsOnContextCancel(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	repo := new(mockEventRepository)
	repo.On("GetUnprocessed", mock.Anything, mock.Anything).Return([]*Event{}, nil).Maybe()

	p := NewPoller(repo, new(mockMailer), zap.NewNop(), 10*time.Millisecond, 100)
	done := make(chan struct{})

	// Act
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	// Assert
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
