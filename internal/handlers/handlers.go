// Package handlers exposes the storefront over HTTP. Handlers only bind
// requests and map outcomes to status codes; the work happens in the
// cart, catalog, checkout and profile packages.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/profile"
	"storefront/internal/session"
)

const (
	msgProductsFailed = "Failed to load products. Please try again later."
	msgCartFailed     = "Failed to fetch cart"
)

type Handler struct {
	Auth     *middleware.Auth
	Carts    *cart.Store
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Profile  *profile.Service
	Log      *slog.Logger

	// AllowedOrigins gates websocket upgrades; empty allows any origin.
	AllowedOrigins []string
}

func (h *Handler) session(c *gin.Context) (session.Context, bool) {
	sess, err := session.From(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return session.Context{}, false
	}
	return sess, true
}

// fail maps a service error to its response.
func (h *Handler) fail(c *gin.Context, err error) {
	var pe *profile.Error
	switch {
	case errors.Is(err, session.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.As(err, &pe):
		c.JSON(http.StatusBadGateway, gin.H{"error": pe.Message})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, checkout.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, catalog.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Out of stock"})
	case errors.Is(err, catalog.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": msgProductsFailed})
	case errors.Is(err, cart.ErrOperationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": msgCartFailed})
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, checkout.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrInvalidTransition), errors.Is(err, checkout.ErrPlaced):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.Log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
