package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/cache"
	"storefront/internal/session"
)

const (
	CartMaxMutations = 20
	CartWindow       = time.Minute
)

// CartRateLimit caps cart mutations per user within a window. When the
// counter cannot be read the request goes through.
func CartRateLimit(c cache.Cache, limit int, window time.Duration, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx *gin.Context) {
		sess, err := session.From(ctx)
		if err != nil {
			ctx.Next()
			return
		}

		n, err := c.IncrementRateLimit(ctx.Request.Context(), "cart_add:"+sess.UserID, window)
		if err != nil {
			log.Warn("cart rate limit unavailable", "user_id", sess.UserID, "error", err)
			ctx.Next()
			return
		}

		ctx.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if n > int64(limit) {
			ctx.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many cart updates, slow down",
				"retry_after": int(window.Seconds()),
			})
			return
		}
		ctx.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int64(limit)-n))
		ctx.Next()
	}
}
