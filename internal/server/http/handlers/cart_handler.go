package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/grocerymart/internal/server/http/dto"
	"github.com/polkiloo/grocerymart/internal/usecase"
)

// CartHandler manages the buyer cart, buy-now and checkout.
type CartHandler struct {
	facade CartFacade
}

func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// View handles GET /api/cart.
func (h *CartHandler) View(c *gin.Context) {
	view, err := h.facade.Cart(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	ctx := c.Request.Context()
	userID := CurrentUserID(c)
	if _, err := h.facade.AddCartItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	view, err := h.facade.Cart(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartResponse(view))
}

// UpdateItem handles PATCH /api/cart/items/:id.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CartItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	ctx := c.Request.Context()
	userID := CurrentUserID(c)
	if err := h.facade.UpdateCartItem(ctx, userID, id, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	view, err := h.facade.Cart(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

// RemoveItem handles DELETE /api/cart/items/:id.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.facade.RemoveCartItem(c.Request.Context(), CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StartBuyNow handles POST /api/cart/buy-now.
func (h *CartHandler) StartBuyNow(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	view, err := h.facade.StartBuyNow(c.Request.Context(), CurrentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

// CancelBuyNow handles DELETE /api/cart/buy-now and restores the stashed cart.
func (h *CartHandler) CancelBuyNow(c *gin.Context) {
	view, err := h.facade.CancelBuyNow(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

// Checkout handles POST /api/checkout.
func (h *CartHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	order, err := h.facade.Checkout(c.Request.Context(), CurrentUserID(c), usecase.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CartItemIDs:     req.CartItemIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}
