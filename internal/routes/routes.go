package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"storefront/internal/cache"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, c cache.Cache, log *slog.Logger) {
	r.GET("/healthz", handlers.Health)

	api := r.Group("/api")

	api.POST("/session", h.Login)
	api.DELETE("/session", h.Logout)

	products := api.Group("/products", h.Auth.OptionalSession())
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)

	authed := api.Group("", h.Auth.RequireSession())

	limit := middleware.CartRateLimit(c, middleware.CartMaxMutations, middleware.CartWindow, log)
	cartGroup := authed.Group("/cart")
	cartGroup.GET("", h.GetCart)
	cartGroup.GET("/ws", h.CartWebSocket)
	cartGroup.POST("/items", limit, h.AddCartItem)
	cartGroup.DELETE("/items/:productId", limit, h.RemoveCartItem)
	cartGroup.DELETE("", limit, h.ClearCart)
	cartGroup.DELETE("/error", h.DismissCartError)

	co := authed.Group("/checkout")
	co.POST("", h.BeginCheckout)
	co.GET("/:id", h.GetCheckout)
	co.PATCH("/:id/shipping", h.EditShipping)
	co.PATCH("/:id/billing", h.EditBilling)
	co.PATCH("/:id/payment", h.EditPayment)
	co.POST("/:id/next", h.NextStep)
	co.POST("/:id/back", h.PreviousStep)
	co.POST("/:id/step", h.GoToStep)
	co.POST("/:id/submit", h.SubmitOrder)
	co.DELETE("/:id", h.AbandonCheckout)

	prof := authed.Group("/profile")
	prof.GET("", h.GetProfile)
	prof.PUT("", h.UpdateProfile)
	prof.GET("/orders", h.ListOrders)
}
