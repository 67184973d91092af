package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/profile"
	"storefront/internal/routes"
	"storefront/pkg/logger"
	"storefront/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "storefront",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: !cfg.Production(),
	})

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	store, closeCache, err := database.OpenCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	sessionKey := []byte(cfg.SessionSecret)
	if len(sessionKey) == 0 {
		if cfg.Production() {
			return errors.New("SESSION_SECRET is required in production")
		}
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
		sessionKey = securecookie.GenerateRandomKey(32)
	}

	client := backend.New(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout))
	carts := cart.NewStore(client, store, log)

	h := &handlers.Handler{
		Auth:     middleware.NewAuth(middleware.NewCookieStore(sessionKey, cfg.Production()), cfg.JWTSecret, cfg.LoginPath, log),
		Carts:    carts,
		Catalog:  catalog.NewService(client, carts, log),
		Checkout: checkout.NewService(carts, client, store, checkout.Config{RedirectTo: cfg.OrderRedirectPath, RedirectDelay: cfg.OrderRedirectDelay}, log),
		Profile:  profile.NewService(client, log),
		Log:      log,

		AllowedOrigins: cfg.CORSOrigins,
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigins))
	if !cfg.Production() {
		r.Use(gin.Logger())
	}
	routes.RegisterRoutes(r, h, store, log)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", addr, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}
