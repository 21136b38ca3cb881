package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/diamondsy/diamond-store/internal/catalog"
	"github.com/diamondsy/diamond-store/internal/config"
	"github.com/diamondsy/diamond-store/internal/storage"
	"github.com/diamondsy/diamond-store/internal/sweeper"
	"github.com/diamondsy/diamond-store/internal/telegram"
)

func main() {
	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	// Load config
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	// Initialize storage (retried connect, schema ensure, backup)
	store, err := storage.Open(cfg.DBPath, log)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	// Load product catalog
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Error("load catalog", "error", err)
		os.Exit(1)
	}
	log.Info("catalog loaded", "path", cfg.CatalogPath)

	// Runtime-editable settings (rates, payment destinations)
	settings := config.NewSettings(cfg.EnvPath)

	// Initialize telegram bot
	bot, err := telegram.New(cfg, settings, store, cat, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized")

	// Start the expiry sweeper
	sweep := sweeper.New(store, cfg.SweepHorizon, log)
	if err := sweep.Start(cfg.SweepSchedule); err != nil {
		log.Error("start sweeper", "error", err)
		os.Exit(1)
	}
	defer sweep.Stop()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	bot.Start(ctx)
}
