package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/doodad-labs/throwaway-email-checker/internal/app"
	"github.com/doodad-labs/throwaway-email-checker/internal/config"
	"github.com/doodad-labs/throwaway-email-checker/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadService()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("app error")
	}
}
