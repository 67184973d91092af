package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/catalog"
	"storefront/internal/session"
)

func (h *Handler) ListProducts(c *gin.Context) {
	var q catalog.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	products, err := h.Catalog.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct returns the detail view: the product, related products and
// how many units the signed-in user already has in the cart. Anonymous
// visitors get 0 in cart.
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	d, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	inCart := 0
	if sess, err := session.From(c); err == nil {
		if st, err := h.Carts.Snapshot(c.Request.Context(), sess.UserID); err == nil {
			inCart = catalog.QuantityInCart(st.Cart(), id)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"product": d.Product,
		"related": d.Related,
		"inCart":  inCart,
	})
}
