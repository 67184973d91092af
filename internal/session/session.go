// Package session carries the authenticated user's identity explicitly
// through every storefront operation.
package session

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrNoSession means no user is logged in; callers redirect to login.
var ErrNoSession = errors.New("session: no user")

const contextKey = "session"

type Context struct {
	UserID string `json:"userId"`
	Token  string `json:"-"`
}

func (c Context) Valid() bool {
	return c.UserID != ""
}

// Set stores the resolved session on the gin context.
func Set(c *gin.Context, s Context) {
	c.Set(contextKey, s)
	c.Set("user_id", s.UserID)
}

// From returns the session resolved by the auth middleware.
func From(c *gin.Context) (Context, error) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Context{}, ErrNoSession
	}
	s, ok := v.(Context)
	if !ok || !s.Valid() {
		return Context{}, ErrNoSession
	}
	return s, nil
}
