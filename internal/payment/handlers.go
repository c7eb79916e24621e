package payment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/craftycorner/backend/internal/httpx"
	"github.com/craftycorner/backend/internal/identity"
)

// UseCaseInterface is the surface the HTTP layer needs from the payment
// use case.
type UseCaseInterface interface {
	CreateIntent(ctx context.Context, actorID string, actorAdmin bool, orderID string) (*IntentResponse, error)
	Confirm(ctx context.Context, actorID string, actorAdmin bool, intentID, orderID string) (bool, error)
}

// Handler exposes the payment HTTP endpoints.
type Handler struct {
	useCase UseCaseInterface
	tracer  trace.Tracer
}

func NewHandler(useCase UseCaseInterface, tracer trace.Tracer) *Handler {
	return &Handler{useCase: useCase, tracer: tracer}
}

// Register mounts the payment routes on an authenticated router group.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/payments/create/:orderId", h.CreateIntent)
	r.POST("/payments/confirm", h.Confirm)
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	OrderID         string `json:"orderId" binding:"required"`
}

func (h *Handler) CreateIntent(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_payment_intent")
	defer span.End()

	actor, _ := identity.FromContext(ctx)
	orderID := c.Param("orderId")
	span.SetAttributes(attribute.String("order_id", orderID))

	resp, err := h.useCase.CreateIntent(ctx, actor.UserID, actor.Admin, orderID)
	if err != nil {
		span.RecordError(err)
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Confirm(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "confirm_payment")
	defer span.End()

	actor, _ := identity.FromContext(ctx)

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
		attribute.String("intent_id", req.PaymentIntentID),
	)

	settled, err := h.useCase.Confirm(ctx, actor.UserID, actor.Admin, req.PaymentIntentID, req.OrderID)
	if err != nil {
		span.RecordError(err)
		httpx.Error(c, err)
		return
	}

	if !settled {
		c.JSON(http.StatusBadRequest, gin.H{"settled": false, "message": "Payment not successful"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settled": true, "message": "Payment confirmed"})
}
