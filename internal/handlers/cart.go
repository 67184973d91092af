package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
)

type addItemInput struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) GetCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.Carts.Load(c.Request.Context(), sess)
	h.cartResponse(c, http.StatusOK, st, err)
}

// AddCartItem goes through the catalog so the quantity is clamped to stock.
func (h *Handler) AddCartItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var in addItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	st, err := h.Catalog.AddToCart(c.Request.Context(), sess, in.ProductID, in.Quantity)
	h.cartResponse(c, http.StatusOK, st, err)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	st, err := h.Carts.Remove(c.Request.Context(), sess, productID)
	h.cartResponse(c, http.StatusOK, st, err)
}

func (h *Handler) ClearCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.Carts.Clear(c.Request.Context(), sess)
	h.cartResponse(c, http.StatusOK, st, err)
}

// DismissCartError drops the error message from the projection.
func (h *Handler) DismissCartError(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.Carts.ClearError(c.Request.Context(), sess.UserID)
	h.cartResponse(c, http.StatusOK, st, err)
}

// cartResponse sends the projection. A failed backend call still returns
// the kept projection alongside its error message.
func (h *Handler) cartResponse(c *gin.Context, status int, st cart.State, err error) {
	switch {
	case err == nil:
		c.JSON(status, st)
	case errors.Is(err, cart.ErrOperationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": st.Error, "cart": st})
	default:
		h.fail(c, err)
	}
}
