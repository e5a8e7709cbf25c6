package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chatdb/internal/app"
	"chatdb/pkg/config"
	"chatdb/pkg/logger"
)

func main() {
	_ = godotenv.Load(".env")
	fl := config.ParseFlags()

	cfg, err := config.Load(fl.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	config.Resolve(cfg, fl)

	logger.Init(cfg.Logging.Level)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_exit", "error", err)
	}
}
