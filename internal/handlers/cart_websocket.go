package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"storefront/internal/cart"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

type cartEvent struct {
	Type  string      `json:"type"`
	Event string      `json:"event,omitempty"`
	Cart  *cart.State `json:"cart,omitempty"`
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(h.AllowedOrigins) == 0 || slices.Contains(h.AllowedOrigins, origin)
		},
	}
}

// CartWebSocket relays the user's cart projection every time it changes.
// Nothing is polled; events come from cart mutations.
func (h *Handler) CartWebSocket(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "user_id", sess.UserID, "error", err)
		return
	}

	ctx := c.Request.Context()
	events, unsubscribe := h.Carts.Subscribe(ctx, sess.UserID)
	defer unsubscribe()

	// the read side only watches for the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-gone
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	if err := write(cartEvent{Type: "connected"}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			st, err := h.Carts.Snapshot(ctx, sess.UserID)
			if err != nil {
				h.Log.Warn("cart snapshot for websocket failed", "user_id", sess.UserID, "error", err)
				continue
			}
			if err := write(cartEvent{Type: "cart_updated", Event: ev, Cart: &st}); err != nil {
				h.Log.Debug("websocket closed", "user_id", sess.UserID, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
