// Package sweeper reclaims expired TTL items on a cron schedule. Expiry is
// already enforced on the read path; the sweep only deletes the dead keys.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"chatdb/pkg/config"
	"chatdb/pkg/logger"
	"chatdb/pkg/store"
)

// Start starts the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, st *store.Store, cfg config.SweeperConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("sweeper_disabled")
		return func() {}, nil
	}

	// default: hourly at minute 0
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cfg.Cron)
	}

	logger.Info("sweeper_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, st, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the configured cron expression
// with gronx and sleeps until then.
func runScheduler(ctx context.Context, st *store.Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("sweeper_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if removed, err := st.PurgeExpired(); err != nil {
				logger.Error("sweeper_run_error", "error", err)
			} else if removed > 0 {
				logger.Info("sweeper_run_done", "removed", removed)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}
