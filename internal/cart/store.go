// Package cart keeps each user's cart projection in step with the backend.
// The backend is the source of truth: every successful call replaces the
// projection with the server's copy, nothing is applied optimistically.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront/internal/backend"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/utils"
)

const CartTTL = 30 * 24 * time.Hour

const (
	EventUpdated = "updated"
	EventCleared = "cleared"
)

var (
	// ErrOperationFailed is what users see for any cart failure, whether the
	// backend was unreachable or refused the change.
	ErrOperationFailed = errors.New("cart operation failed")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

const (
	msgLoadFailed   = "Failed to fetch cart"
	msgAddFailed    = "Failed to add item to cart"
	msgRemoveFailed = "Failed to remove item from cart"
	msgClearFailed  = "Failed to clear cart"
)

type Backend interface {
	GetCart(ctx context.Context, sess session.Context) (models.Cart, error)
	AddToCart(ctx context.Context, sess session.Context, productID int64, quantity int) (models.Cart, error)
	RemoveFromCart(ctx context.Context, sess session.Context, productID int64) (models.Cart, error)
	ClearCart(ctx context.Context, sess session.Context) error
}

type Store struct {
	backend Backend
	cache   cache.Cache
	log     *slog.Logger
	now     func() time.Time

	locks *utils.KeyedMutex
	loads singleflight.Group
}

func NewStore(b Backend, c cache.Cache, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		backend: b,
		cache:   c,
		log:     log.With("component", "cart"),
		now:     time.Now,
		locks:   utils.NewKeyedMutex(),
	}
}

func key(userID string) string { return "cart:" + userID }

// Snapshot returns the cached projection without calling the backend.
func (s *Store) Snapshot(ctx context.Context, userID string) (State, error) {
	var st State
	err := s.cache.GetJSON(ctx, key(userID), &st)
	if errors.Is(err, cache.ErrMiss) {
		return emptyState(userID), nil
	}
	if err != nil {
		return emptyState(userID), err
	}
	if st.Items == nil {
		st.Items = []models.CartItem{}
	}
	return st, nil
}

// ClearError drops the error flag of the projection.
func (s *Store) ClearError(ctx context.Context, userID string) (State, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	st, err := s.Snapshot(ctx, userID)
	if err != nil {
		return st, err
	}
	st.Error = ""
	return st, s.save(ctx, st)
}

// Load fetches the cart. Concurrent loads for one user share one request,
// which runs detached from any single caller; each caller stops waiting
// when its own ctx ends. The backend client bounds the shared call.
func (s *Store) Load(ctx context.Context, sess session.Context) (State, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(sess.UserID, func() (any, error) {
		return s.mutate(shared, sess, "load", msgLoadFailed, EventUpdated, func(ctx context.Context) (models.Cart, error) {
			return s.backend.GetCart(ctx, sess)
		})
	})
	select {
	case <-ctx.Done():
		return State{}, ctx.Err()
	case res := <-ch:
		st, _ := res.Val.(State)
		return st, res.Err
	}
}

func (s *Store) Add(ctx context.Context, sess session.Context, productID int64, quantity int) (State, error) {
	if quantity <= 0 {
		st, _ := s.Snapshot(ctx, sess.UserID)
		return st, ErrInvalidQuantity
	}
	return s.mutate(ctx, sess, "add", msgAddFailed, EventUpdated, func(ctx context.Context) (models.Cart, error) {
		return s.backend.AddToCart(ctx, sess, productID, quantity)
	})
}

func (s *Store) Remove(ctx context.Context, sess session.Context, productID int64) (State, error) {
	return s.mutate(ctx, sess, "remove", msgRemoveFailed, EventUpdated, func(ctx context.Context) (models.Cart, error) {
		return s.backend.RemoveFromCart(ctx, sess, productID)
	})
}

func (s *Store) Clear(ctx context.Context, sess session.Context) (State, error) {
	return s.mutate(ctx, sess, "clear", msgClearFailed, EventCleared, func(ctx context.Context) (models.Cart, error) {
		return models.Cart{UserID: sess.UserID}, s.backend.ClearCart(ctx, sess)
	})
}

// Subscribe relays change events for userID's cart.
func (s *Store) Subscribe(ctx context.Context, userID string) (<-chan string, func() error) {
	return s.cache.Subscribe(ctx, key(userID))
}

// mutate runs one backend call under the user's lock, so responses are
// applied in the order requests were made.
func (s *Store) mutate(ctx context.Context, sess session.Context, op, failMsg, event string, call func(context.Context) (models.Cart, error)) (State, error) {
	if !sess.Valid() {
		return State{}, session.ErrNoSession
	}

	unlock := s.locks.Lock(sess.UserID)
	defer unlock()

	st, err := s.Snapshot(ctx, sess.UserID)
	if err != nil {
		s.log.Warn("cart projection unreadable, starting empty", "user_id", sess.UserID, "error", err)
	}
	st.Loading = true
	st.Error = ""
	if err := s.save(ctx, st); err != nil {
		s.log.Warn("cart projection not saved", "user_id", sess.UserID, "error", err)
	}

	c, callErr := call(ctx)
	// the terminal state is written even if the caller went away, so the
	// projection never stays loading
	ctx = context.WithoutCancel(ctx)
	if callErr != nil {
		st.fail(failMsg)
		if err := s.save(ctx, st); err != nil {
			s.log.Warn("cart projection not saved", "user_id", sess.UserID, "error", err)
		}
		s.log.Error("cart operation failed",
			"op", op,
			"user_id", sess.UserID,
			"kind", backend.KindOf(callErr).String(),
			"status", backend.StatusOf(callErr),
			"error", callErr,
		)
		return st, fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, callErr)
	}

	if event == EventCleared {
		st.reset(s.now())
	} else {
		st.replace(c, s.now())
	}
	if err := s.save(ctx, st); err != nil {
		return st, fmt.Errorf("save cart projection: %w", err)
	}
	if err := s.cache.Publish(ctx, key(sess.UserID), event); err != nil {
		s.log.Warn("cart notification not published", "user_id", sess.UserID, "error", err)
	}

	s.log.Debug("cart replaced", "op", op, "user_id", sess.UserID, "items", st.TotalItems, "version", st.Version)
	return st, nil
}

func (s *Store) save(ctx context.Context, st State) error {
	return s.cache.SetJSON(ctx, key(st.UserID), st, CartTTL)
}
