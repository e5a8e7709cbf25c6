// Package app wires configuration, the store, the entity service and the
// authentication pair into a running server. Everything is constructed
// once here and passed by reference; no package keeps ambient singletons.
package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"chatdb/internal/sweeper"
	"chatdb/pkg/auth"
	"chatdb/pkg/config"
	"chatdb/pkg/entities"
	"chatdb/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg *config.Config

	st       *store.Store
	entities *entities.Service
	auth     *auth.Authenticator
	sessions *auth.SessionIssuer
	limiter  *auth.Limiter
}

// New validates the config and initializes everything that does not need a
// running context. Call Run to start the sweeper and HTTP server.
func New(cfg *config.Config) (*App, error) {
	_ = godotenv.Load(".env")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Server.DBPath, err)
	}

	svc := entities.New(st)
	sessions, err := auth.NewSessionIssuer([]byte(cfg.Auth.SessionSecret), cfg.Auth.SessionTTL.Std())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		st:       st,
		entities: svc,
		auth:     auth.NewAuthenticator(svc, cfg.Auth.BcryptCost),
		sessions: sessions,
		limiter:  auth.NewLimiter(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst),
	}, nil
}

// Run starts the TTL sweeper and the HTTP server and blocks until ctx is
// canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopSweeper, err := sweeper.Start(ctx, a.st, a.cfg.Sweeper)
	if err != nil {
		return err
	}
	defer stopSweeper()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the store.
func (a *App) Close() error {
	return a.st.Close()
}
