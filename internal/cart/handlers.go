package cart

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftycorner/backend/internal/httpx"
	"github.com/craftycorner/backend/internal/identity"
)

// UseCaseInterface is the surface the HTTP layer needs from the cart use case.
type UseCaseInterface interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	AddItem(ctx context.Context, userID, variantID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error)
	SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*Cart, error)
	Clear(ctx context.Context, userID string) error
}

// Handler exposes the cart HTTP endpoints.
type Handler struct {
	useCase UseCaseInterface
}

func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{useCase: useCase}
}

// Register mounts the cart routes on an authenticated router group.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddItem)
	r.PUT("/cart/items/:itemId", h.UpdateItemQuantity)
	r.DELETE("/cart/items/:itemId", h.RemoveItem)
	r.DELETE("/cart", h.Clear)
}

type addItemRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Items       []Item `json:"items"`
	TotalAmount string `json:"total_amount"`
}

func toResponse(c *Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return cartResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       items,
		TotalAmount: c.Total().StringFixed(2),
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	result, err := h.useCase.GetCart(c.Request.Context(), actor.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

func (h *Handler) AddItem(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}

	result, err := h.useCase.AddItem(c.Request.Context(), actor.UserID, req.VariantID, req.Quantity)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

func (h *Handler) UpdateItemQuantity(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}

	result, err := h.useCase.SetItemQuantity(c.Request.Context(), actor.UserID, c.Param("itemId"), req.Quantity)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

func (h *Handler) RemoveItem(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	result, err := h.useCase.RemoveItem(c.Request.Context(), actor.UserID, c.Param("itemId"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result))
}

func (h *Handler) Clear(c *gin.Context) {
	actor, _ := identity.FromContext(c.Request.Context())

	if err := h.useCase.Clear(c.Request.Context(), actor.UserID); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}
