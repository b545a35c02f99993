package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/order"
)

type CartHandler struct {
	carts *cart.CartService
}

func NewCartHandler(carts *cart.CartService) CartHandler {
	return CartHandler{carts: carts}
}

func (h *CartHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ct, err := h.carts.Get(c.Request.Context(), a.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct.View())
}

func (h *CartHandler) AddItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ct, err := h.carts.Add(c.Request.Context(), a.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct.View())
}

func (h *CartHandler) ChangeQuantity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req cart.ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ct, err := h.carts.UpdateQuantity(c.Request.Context(), a.UserID, c.Param("product_id"), req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct.View())
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ct, err := h.carts.Remove(c.Request.Context(), a.UserID, c.Param("product_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct.View())
}

func (h *CartHandler) Clear(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), a.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var details order.DeliveryDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		badRequest(c, err)
		return
	}

	placed, err := h.carts.Checkout(c.Request.Context(), a, details)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placed.VisibleTo(a))
}
