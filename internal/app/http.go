package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chatdb/pkg/api"
	"chatdb/pkg/logger"
)

// startHTTP starts the HTTP server and returns a channel that yields the
// fatal server error, if any. Shutdown is driven by ctx.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	router := api.NewRouter(api.Deps{
		Entities: a.entities,
		Auth:     a.auth,
		Sessions: a.sessions,
		Limiter:  a.limiter,
	})
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http_shutdown_failed", "error", err)
		} else {
			logger.Info("http_shutdown_done")
		}
	}()
	return errCh
}
