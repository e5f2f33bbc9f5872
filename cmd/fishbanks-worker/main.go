package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fishbanks/internal/config"
	"fishbanks/internal/db"
	"fishbanks/internal/game"
)

// The worker settles ticks without serving HTTP. Deployments that keep the
// API scheduler enabled do not need it; it exists for setups that scale the
// API horizontally and want exactly one settlement driver.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	svc := game.NewService(pool, logger)
	if cfg.StartupSeed {
		if err := svc.SeedDefaults(ctx); err != nil {
			logger.Error("seed defaults failed", "err", err)
			os.Exit(1)
		}
	}

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("FISHBANKS_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if _, err := svc.RunTick(ctx, game.TickManual); err != nil {
			logger.Error("tick failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.TickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.TickEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			summary, err := svc.RunTick(ctx, game.TickScheduled)
			if err != nil {
				logger.Error("tick failed", "err", err)
				continue
			}
			logger.Info("tick complete", "tick_id", summary.TickID, "ships", summary.ShipsProcessed)
		}
	}
}
