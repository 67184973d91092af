package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/session"
)

type loginInput struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Login stores the token and user id handed over by the auth backend.
func (h *Handler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	sess := session.Context{UserID: in.UserID, Token: in.Token}
	if in.Token == "" && h.Auth.Verifies() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}
	if in.Token != "" {
		userID, err := h.Auth.UserFromToken(in.Token)
		switch {
		case err == nil:
			sess.UserID = userID
		case h.Auth.Verifies():
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
	}
	if !sess.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	if err := h.Auth.Save(c.Writer, c.Request, sess); err != nil {
		h.Log.Error("session not saved", "user_id", sess.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not saved"})
		return
	}
	h.Log.Info("session opened", "user_id", sess.UserID)
	c.JSON(http.StatusOK, gin.H{"userId": sess.UserID})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Clear(c.Writer, c.Request); err != nil {
		h.Log.Warn("session not cleared", "error", err)
	}
	c.Status(http.StatusNoContent)
}
