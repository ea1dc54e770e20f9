package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/app"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/config"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "syncd start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("syncd starting", "config", cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon, err := app.NewDaemon(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize daemon", "error", err)
		return err
	}

	if err := daemon.Run(ctx); err != nil {
		return fmt.Errorf("syncd run: %w", err)
	}

	return nil
}
