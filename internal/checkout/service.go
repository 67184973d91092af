package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront/internal/backend"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/utils"
)

const (
	SessionTTL    = 30 * time.Minute
	placedGrace   = time.Minute
	DefaultTarget = "/order-confirmation"
	DefaultDelay  = 2 * time.Second
)

var (
	ErrNotFound  = errors.New("checkout: not found")
	ErrEmptyCart = errors.New("checkout: cart is empty")
	ErrSubmit    = errors.New("checkout: order not placed")
)

type CartStore interface {
	Load(ctx context.Context, sess session.Context) (cart.State, error)
	Snapshot(ctx context.Context, userID string) (cart.State, error)
	Clear(ctx context.Context, sess session.Context) (cart.State, error)
}

type Backend interface {
	GetUser(ctx context.Context, sess session.Context) (models.UserProfile, error)
	CreateOrder(ctx context.Context, sess session.Context, req models.OrderRequest) (models.Order, error)
}

type Config struct {
	RedirectTo    string
	RedirectDelay time.Duration
}

type Service struct {
	carts   CartStore
	backend Backend
	cache   cache.Cache
	log     *slog.Logger
	now     func() time.Time
	cfg     Config
	locks   *utils.KeyedMutex
}

func NewService(carts CartStore, b Backend, c cache.Cache, cfg Config, log *slog.Logger) *Service {
	if cfg.RedirectTo == "" {
		cfg.RedirectTo = DefaultTarget
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		carts:   carts,
		backend: b,
		cache:   c,
		log:     log.With("component", "checkout"),
		now:     time.Now,
		cfg:     cfg,
		locks:   utils.NewKeyedMutex(),
	}
}

func key(id string) string { return "checkout:" + id }

// Begin opens a checkout for the user: the cart is loaded and shipping is
// pre-filled from the profile. A profile failure only costs the pre-fill.
func (s *Service) Begin(ctx context.Context, sess session.Context) (*Checkout, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}

	co := newCheckout(uuid.NewString(), sess.UserID, s.now())

	st, err := s.carts.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	co.Cart = st.Cart()

	profile, err := s.backend.GetUser(ctx, sess)
	if err != nil {
		s.log.Warn("profile pre-fill skipped", "user_id", sess.UserID, "kind", backend.KindOf(err).String(), "error", err)
	} else {
		prefill(&co.Form, profile)
	}

	if err := s.save(ctx, co, SessionTTL); err != nil {
		return nil, err
	}
	s.log.Info("checkout started", "checkout_id", co.ID, "user_id", sess.UserID, "items", co.Cart.TotalItems)
	return co, nil
}

func prefill(f *Form, p models.UserProfile) {
	for name, value := range map[string]string{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"email":     p.Email,
		"phone":     p.Phone,
		"address":   p.Address,
	} {
		_ = f.SetShippingField(name, value)
	}
}

func (s *Service) Get(ctx context.Context, sess session.Context, id string) (*Checkout, error) {
	return s.load(ctx, sess, id)
}

// Edit applies fn to the stored checkout and saves the result. Placed
// checkouts are read-only.
func (s *Service) Edit(ctx context.Context, sess session.Context, id string, fn func(*Checkout) error) (*Checkout, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	co, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if co.Placed() {
		return co, ErrPlaced
	}

	fnErr := fn(co)
	if fnErr != nil && !errors.Is(fnErr, ErrValidation) {
		return co, fnErr
	}
	co.UpdatedAt = s.now()
	if err := s.save(ctx, co, SessionTTL); err != nil {
		return nil, err
	}
	return co, fnErr
}

func (s *Service) EditShipping(ctx context.Context, sess session.Context, id string, fields map[string]string) (*Checkout, error) {
	return s.Edit(ctx, sess, id, func(co *Checkout) error {
		for name, value := range fields {
			if err := co.Form.SetShippingField(name, value); err != nil {
				return fmt.Errorf("%w: shipping %q", err, name)
			}
		}
		return nil
	})
}

// EditBilling applies billing field edits. sameAsShipping, when non-nil,
// only flips the flag; fields already copied stay as they are.
func (s *Service) EditBilling(ctx context.Context, sess session.Context, id string, sameAsShipping *bool, fields map[string]string) (*Checkout, error) {
	return s.Edit(ctx, sess, id, func(co *Checkout) error {
		if sameAsShipping != nil {
			co.Form.BillingInfo.SameAsShipping = *sameAsShipping
		}
		for name, value := range fields {
			if err := co.Form.SetBillingField(name, value); err != nil {
				return fmt.Errorf("%w: billing %q", err, name)
			}
		}
		return nil
	})
}

func (s *Service) EditPayment(ctx context.Context, sess session.Context, id string, fields map[string]string) (*Checkout, error) {
	return s.Edit(ctx, sess, id, func(co *Checkout) error {
		if len(fields) > 0 && co.PaymentValidated {
			co.PaymentValidated = false
			co.Form.PaymentInfo = PaymentInfo{}
		}
		for name, value := range fields {
			if err := co.Form.SetPaymentField(name, value); err != nil {
				return fmt.Errorf("%w: payment %q", err, name)
			}
		}
		return nil
	})
}

func (s *Service) Next(ctx context.Context, sess session.Context, id string) (*Checkout, error) {
	return s.Edit(ctx, sess, id, (*Checkout).Next)
}

func (s *Service) Back(ctx context.Context, sess session.Context, id string) (*Checkout, error) {
	return s.Edit(ctx, sess, id, (*Checkout).Back)
}

// GoTo moves to an adjacent step, as the step indicator allows.
func (s *Service) GoTo(ctx context.Context, sess session.Context, id string, step Step) (*Checkout, error) {
	return s.Edit(ctx, sess, id, func(co *Checkout) error { return co.GoTo(step) })
}

// Submit places the order from the review step: one order-creation call,
// then a cart clear. A failed order keeps the checkout on review with a
// submit error and is never retried here.
func (s *Service) Submit(ctx context.Context, sess session.Context, id string) (*Checkout, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	co, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if co.Placed() {
		return co, ErrPlaced
	}
	if co.Step != StepReview {
		return co, ErrInvalidTransition
	}

	if errs := co.validateAll(); len(errs) > 0 {
		co.Errors = errs
		return co, s.saveWith(ctx, co, ErrValidation)
	}

	if st, err := s.carts.Snapshot(ctx, sess.UserID); err == nil {
		co.Cart = st.Cart()
	}
	if len(co.Cart.Items) == 0 {
		co.Errors = map[string]string{SubmitErrorKey: MsgSubmitFailed}
		return co, s.saveWith(ctx, co, ErrEmptyCart)
	}

	order, err := s.backend.CreateOrder(ctx, sess, co.orderRequest())
	if err != nil {
		s.log.Error("order creation failed",
			"checkout_id", co.ID,
			"user_id", sess.UserID,
			"kind", backend.KindOf(err).String(),
			"status", backend.StatusOf(err),
			"error", err,
		)
		co.Errors = map[string]string{SubmitErrorKey: MsgSubmitFailed}
		return co, s.saveWith(ctx, co, fmt.Errorf("%w: %w", ErrSubmit, err))
	}

	// The order exists from here on; a failed clear must not send the user
	// back to review and invite a duplicate order.
	if _, err := s.carts.Clear(ctx, sess); err != nil {
		s.log.Error("cart not cleared after order", "checkout_id", co.ID, "order_id", order.ID, "error", err)
	}

	now := s.now()
	co.Order = &order
	co.Step = StepPlaced
	co.Errors = map[string]string{}
	co.Cart = models.Cart{UserID: sess.UserID, Items: []models.CartItem{}}
	co.Redirect = &Redirect{
		To:      s.cfg.RedirectTo,
		DelayMs: s.cfg.RedirectDelay.Milliseconds(),
		At:      now.Add(s.cfg.RedirectDelay),
	}
	co.UpdatedAt = now

	s.log.Info("order placed", "checkout_id", co.ID, "user_id", sess.UserID, "order_id", order.ID)
	if err := s.save(ctx, co, s.cfg.RedirectDelay+placedGrace); err != nil {
		s.log.Warn("placed checkout not saved", "checkout_id", co.ID, "error", err)
	}
	return co, nil
}

// Abandon discards the checkout, as when the user navigates away.
func (s *Service) Abandon(ctx context.Context, sess session.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, sess, id); err != nil {
		return err
	}
	return s.cache.Delete(ctx, key(id))
}

func (s *Service) load(ctx context.Context, sess session.Context, id string) (*Checkout, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	var co Checkout
	err := s.cache.GetJSON(ctx, key(id), &co)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout %s: %w", id, err)
	}
	// another user's checkout is reported as missing
	if co.UserID != sess.UserID {
		return nil, ErrNotFound
	}
	if co.Errors == nil {
		co.Errors = map[string]string{}
	}
	return &co, nil
}

func (s *Service) save(ctx context.Context, co *Checkout, ttl time.Duration) error {
	if err := s.cache.SetJSON(ctx, key(co.ID), co, ttl); err != nil {
		return fmt.Errorf("save checkout %s: %w", co.ID, err)
	}
	return nil
}

// saveWith stores co and returns cause, or the save error if saving failed.
func (s *Service) saveWith(ctx context.Context, co *Checkout, cause error) error {
	co.UpdatedAt = s.now()
	if err := s.save(ctx, co, SessionTTL); err != nil {
		return err
	}
	return cause
}
