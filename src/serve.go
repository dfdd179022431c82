package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contre95/vinylshelf/src/features/catalog"
	"github.com/contre95/vinylshelf/src/features/hosting"
	"github.com/contre95/vinylshelf/src/infra/artwork"
	"github.com/contre95/vinylshelf/src/infra/watcher"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog web UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.catalog.StartSweeper(ctx, time.Minute)

	configWatcher, err := watcher.NewWatcher(configPath, watcher.DefaultDebounce, func(path string) {
		_ = a.cfg.Reload(path)
	})
	if err != nil {
		slog.Warn("Config hot reload disabled", "error", err)
	} else if err := configWatcher.Start(ctx); err != nil {
		slog.Warn("Config hot reload disabled", "error", err)
	} else {
		defer configWatcher.Stop()
	}

	var covers catalog.CoverRenderer
	if coverService, err := artwork.NewService(a.cfg); err != nil {
		slog.Warn("Cover thumbnails disabled", "error", err)
	} else {
		covers = coverService
	}

	var telegramBot *hosting.TelegramBot
	if a.cfg.Get().Telegram.Enabled {
		telegramBot, err = hosting.NewTelegramBot(a.cfg, a.catalog, a.metrics)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			go telegramBot.Start()
			slog.Info("Telegram bot started")
		}
	}

	server := hosting.NewServer(a.cfg, a.catalog, a.metrics, a.collectors, covers)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server started. Press Ctrl+C to shut down.", "port", a.cfg.Get().Server.Port)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server stopped", "error", err)
		}
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down server...")

	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}
	if err := server.Shutdown(); err != nil {
		slog.Error("Failed to shutdown server", "error", err)
		return err
	}
	slog.Info("Server gracefully shut down.")
	return nil
}

// commandContext bounds one-shot commands.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	return ctx, func() {
		cancel()
		stop()
	}
}
