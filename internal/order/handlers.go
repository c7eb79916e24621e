package order

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/craftycorner/backend/internal/httpx"
	"github.com/craftycorner/backend/internal/identity"
)

// UseCaseInterface is the surface the HTTP layer needs from the coordinator.
type UseCaseInterface interface {
	PlaceOrder(ctx context.Context, userID, addressID, paymentMethod string) (*Order, error)
	GetOrder(ctx context.Context, actorID string, actorAdmin bool, orderID string) (*Order, error)
	ListOrders(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, actorAdmin bool, orderID, status string) (*Order, error)
}

// Handler exposes the order HTTP endpoints.
type Handler struct {
	useCase UseCaseInterface
	tracer  trace.Tracer
}

func NewHandler(useCase UseCaseInterface, tracer trace.Tracer) *Handler {
	return &Handler{useCase: useCase, tracer: tracer}
}

// Register mounts the order routes on an authenticated router group.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/orders", h.PlaceOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.PUT("/orders/:id/status", h.UpdateStatus)
}

type placeOrderRequest struct {
	AddressID     string `json:"address_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "place_order")
	defer span.End()

	actor, _ := identity.FromContext(ctx)

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", actor.UserID),
		attribute.String("address_id", req.AddressID),
	)

	o, err := h.useCase.PlaceOrder(ctx, actor.UserID, req.AddressID, req.PaymentMethod)
	if err != nil {
		span.RecordError(err)
		httpx.Error(c, err)
		return
	}

	span.SetAttributes(attribute.String("order_id", o.ID))
	c.JSON(http.StatusOK, o)
}

func (h *Handler) GetOrder(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	o, err := h.useCase.GetOrder(c.Request.Context(), actor.UserID, actor.Admin, c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	orders, err := h.useCase.ListOrders(c.Request.Context(), actor.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}

	o, err := h.useCase.UpdateStatus(c.Request.Context(), actor.Admin, c.Param("id"), req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
