package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"

	"storefront/internal/session"
)

// CookieName is the gorilla session holding the login hand-off.
const CookieName = "storefront"

const (
	cookieToken  = "token"
	cookieUserID = "user_id"
)

var ErrInvalidToken = errors.New("invalid token")

// Auth resolves the storefront session from a bearer token or the session
// cookie.
type Auth struct {
	store     sessions.Store
	secret    []byte
	loginPath string
	log       *slog.Logger
}

// NewAuth builds the resolver. With an empty jwtSecret tokens are not
// verified and the cookie's user id is trusted.
func NewAuth(store sessions.Store, jwtSecret, loginPath string, log *slog.Logger) *Auth {
	if loginPath == "" {
		loginPath = "/login"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Auth{
		store:     store,
		secret:    []byte(jwtSecret),
		loginPath: loginPath,
		log:       log.With("component", "auth"),
	}
}

// NewCookieStore returns the cookie store used for the storefront session.
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// RequireSession puts the session on the context, or answers 303 to the
// login page when there is none.
func (a *Auth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := a.Resolve(c.Request)
		if err != nil {
			a.log.Debug("no session", "path", c.Request.URL.Path, "error", err)
			c.Redirect(http.StatusSeeOther, a.loginPath)
			c.Abort()
			return
		}
		session.Set(c, sess)
		c.Next()
	}
}

// OptionalSession puts the session on the context when there is one and
// lets anonymous requests through.
func (a *Auth) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, err := a.Resolve(c.Request); err == nil {
			session.Set(c, sess)
		}
		c.Next()
	}
}

// Resolve reads the Authorization header first, then the cookie.
func (a *Auth) Resolve(r *http.Request) (session.Context, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			return session.Context{}, ErrInvalidToken
		}
		userID, err := a.UserFromToken(token)
		if err != nil {
			return session.Context{}, err
		}
		return session.Context{UserID: userID, Token: token}, nil
	}

	s, err := a.store.Get(r, CookieName)
	if err != nil {
		return session.Context{}, fmt.Errorf("read session cookie: %w", err)
	}
	token, _ := s.Values[cookieToken].(string)
	userID, _ := s.Values[cookieUserID].(string)

	if a.Verifies() {
		if token == "" {
			return session.Context{}, fmt.Errorf("%w: session cookie has no token", ErrInvalidToken)
		}
		if userID, err = a.UserFromToken(token); err != nil {
			return session.Context{}, err
		}
	}
	sess := session.Context{UserID: userID, Token: token}
	if !sess.Valid() {
		return session.Context{}, session.ErrNoSession
	}
	return sess, nil
}

// UserFromToken returns the user_id claim of token, verifying the HS256
// signature when a secret is configured.
func (a *Auth) UserFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if len(a.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	} else {
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatInt(int64(v), 10), nil
	}
	return "", fmt.Errorf("%w: user_id claim missing", ErrInvalidToken)
}

// Save stores the login hand-off in the cookie.
func (a *Auth) Save(w http.ResponseWriter, r *http.Request, sess session.Context) error {
	s, _ := a.store.Get(r, CookieName)
	s.Values[cookieToken] = sess.Token
	s.Values[cookieUserID] = sess.UserID
	return s.Save(r, w)
}

// Clear expires the session cookie.
func (a *Auth) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := a.store.Get(r, CookieName)
	s.Values = map[any]any{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// Verifies reports whether token signatures are checked.
func (a *Auth) Verifies() bool { return len(a.secret) > 0 }
