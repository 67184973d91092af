// Package profile reads and edits the signed-in user's profile and lists
// their past orders.
package profile

import (
	"context"
	"errors"
	"log/slog"

	"storefront/internal/backend"
	"storefront/internal/models"
	"storefront/internal/session"
)

const (
	MsgFetchProfile  = "Failed to fetch profile"
	MsgUpdateProfile = "Failed to update profile"
	MsgFetchOrders   = "Failed to fetch orders"
)

var ErrFailed = errors.New("profile: request failed")

// Error carries the one message the view shows for a failed call.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrFailed }

type Backend interface {
	GetUser(ctx context.Context, sess session.Context) (models.UserProfile, error)
	UpdateUser(ctx context.Context, sess session.Context, p models.UserProfile) (models.UserProfile, error)
	ListOrders(ctx context.Context, sess session.Context) ([]models.Order, error)
}

// Order is an order as the history view renders it.
type Order struct {
	models.Order
	StatusTag string `json:"statusTag"`
}

type Service struct {
	backend Backend
	log     *slog.Logger
}

func NewService(b Backend, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{backend: b, log: log.With("component", "profile")}
}

func (s *Service) Get(ctx context.Context, sess session.Context) (models.UserProfile, error) {
	p, err := s.backend.GetUser(ctx, sess)
	if err != nil {
		return models.UserProfile{}, s.fail(sess, MsgFetchProfile, err)
	}
	return p, nil
}

// Update sends the whole edited profile and returns the backend's copy.
func (s *Service) Update(ctx context.Context, sess session.Context, edited models.UserProfile) (models.UserProfile, error) {
	p, err := s.backend.UpdateUser(ctx, sess, edited)
	if err != nil {
		return models.UserProfile{}, s.fail(sess, MsgUpdateProfile, err)
	}
	return p, nil
}

func (s *Service) Orders(ctx context.Context, sess session.Context) ([]Order, error) {
	orders, err := s.backend.ListOrders(ctx, sess)
	if err != nil {
		return nil, s.fail(sess, MsgFetchOrders, err)
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, Order{Order: o, StatusTag: o.Status.Tag()})
	}
	return out, nil
}

func (s *Service) fail(sess session.Context, msg string, err error) error {
	s.log.Error(msg, "user_id", sess.UserID, "kind", backend.KindOf(err).String(), "status", backend.StatusOf(err), "error", err)
	return &Error{Message: msg, Err: err}
}
