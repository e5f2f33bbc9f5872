package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fishbanks/internal/api"
	"fishbanks/internal/auth"
	"fishbanks/internal/config"
	"fishbanks/internal/db"
	"fishbanks/internal/game"
	"fishbanks/internal/notify"
)

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

	authMgr := auth.NewManager(pool, logger)
	gameSvc := game.NewService(pool, logger)

	if err := authMgr.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
		logger.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}
	if cfg.StartupSeed {
		if err := gameSvc.SeedDefaults(ctx); err != nil {
			logger.Error("seed defaults failed", "err", err)
			os.Exit(1)
		}
	}

	server := api.New(cfg, logger, authMgr, gameSvc)

	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discord, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannelID, logger)
		if err != nil {
			logger.Error("discord init failed", "err", err)
			os.Exit(1)
		}
		server.AddTickListener(discord)
	}

	if cfg.SchedulerEnabled {
		go runScheduler(ctx, cfg, logger, server)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("fishbanks api listening", "addr", cfg.Addr, "tick_every", cfg.TickEvery.String())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// runScheduler drives settlements on the configured interval. The settlement
// itself serializes on a database lock, so running the headless worker next
// to this scheduler is safe, just redundant.
func runScheduler(ctx context.Context, cfg config.APIConfig, logger *slog.Logger, server *api.Server) {
	ticker := time.NewTicker(cfg.TickEvery)
	defer ticker.Stop()

	server.Hub().SetTickSchedule(time.Now().Add(cfg.TickEvery), cfg.TickEvery)
	logger.Info("tick scheduler started", "every", cfg.TickEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("tick scheduler stopped")
			return
		case <-ticker.C:
			if _, err := server.SettleTick(ctx, game.TickScheduled); err != nil {
				logger.Error("scheduled tick failed", "err", err)
			}
			server.Hub().SetTickSchedule(time.Now().Add(cfg.TickEvery), cfg.TickEvery)
		}
	}
}
