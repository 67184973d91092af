// Package cache stores the storefront's per-user client state (cart
// projections, checkout sessions) and relays change notifications.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by GetJSON when the key does not exist or expired.
var ErrMiss = errors.New("cache: miss")

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	Publish(ctx context.Context, channel, message string) error
	// Subscribe delivers messages published on channel until the returned
	// close function is called or ctx ends.
	Subscribe(ctx context.Context, channel string) (<-chan string, func() error)

	// IncrementRateLimit bumps the counter at key, starting a new window when
	// it is first created, and returns the new count.
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
}
