package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"website/internal/bot"
	"website/internal/config"
	"website/internal/scheduler"
	"website/internal/site"
	"website/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := cfg.NewLogger()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	reg, err := site.Setup(site.Deps{Filters: store, Entries: store, Snips: store})
	if err != nil {
		log.Error("set up pages", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The site binary polls the feed; the bot only imports on /import.
	var importer bot.Importer
	if cfg.NewsFeedURL != "" {
		importer = scheduler.New(store, cfg.NewsFeedURL, cfg.NewsFeedInterval, log)
	}

	b, err := bot.New(cfg.TelegramBotToken, store, reg, cfg, importer, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	log.Info("starting bot")

	b.Run(ctx)

	log.Info("bot stopped")
}
