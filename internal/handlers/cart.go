package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"window_calculator/internal/cache"
	"window_calculator/internal/logger"
	"window_calculator/internal/middleware"
	"window_calculator/internal/models"
	"window_calculator/internal/services"
)

type CartManager interface {
	Get(ctx context.Context, cartID string) (*models.Cart, error)
	AddItem(ctx context.Context, cartID string, in services.AddItemInput) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*models.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type CartHandler struct {
	carts CartManager
	log   *logger.Logger
}

func NewCartHandler(carts CartManager, log *logger.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

func cartBody(cart *models.Cart) gin.H {
	return gin.H{
		"success": true,
		"cartId":  cart.CartID,
		"items":   cart.Items,
		"total":   cart.Total(),
		"count":   cart.Count(),
	}
}

func (h *CartHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidItem):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrItemNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, cache.ErrCartConflict):
		respondError(c, http.StatusConflict, err.Error())
	default:
		h.log.Error("❌ Cart error", zap.String("cart_id", middleware.CartID(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "cart storage error")
	}
}

// 🟢 GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), middleware.CartID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// 🟢 POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var input services.AddItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "invalid cart item payload")
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), middleware.CartID(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// 🟡 PATCH /api/cart/items/:itemId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var input struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "quantity is required")
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), middleware.CartID(c), c.Param("itemId"), *input.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// ❌ DELETE /api/cart/items/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.carts.RemoveItem(c.Request.Context(), middleware.CartID(c), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// 🧹 DELETE /api/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	cartID := middleware.CartID(c)
	if err := h.carts.Clear(c.Request.Context(), cartID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(&models.Cart{CartID: cartID, Items: []models.CartItem{}}))
}
