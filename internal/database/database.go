// Package database opens the storefront's storage connections.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/cache"
	"storefront/internal/config"
)

const connectTimeout = 30 * time.Second

// ConnectRedis dials redis and checks it answers.
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisHost, err)
	}
	return client, nil
}

// OpenCache returns the redis-backed cache, or the in-process one when no
// redis host is configured. The close function releases the connection.
func OpenCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Cache, func() error, error) {
	if cfg.RedisHost == "" {
		log.Warn("REDIS_HOST not set, using in-memory cache")
		return cache.NewMemory(), func() error { return nil }, nil
	}
	client, err := ConnectRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to redis", "addr", cfg.RedisHost)
	return cache.NewRedis(client), client.Close, nil
}
