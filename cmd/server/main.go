package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cgseong/emp/internal/config"
	"github.com/cgseong/emp/internal/dataset"
	"github.com/cgseong/emp/internal/logging"
	"github.com/cgseong/emp/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"dataset_path", cfg.Dataset.Path,
		"allow_reload", cfg.Dataset.AllowReload,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Load the survey file once; without it there is nothing to serve
	dataset.MaxFileSize = cfg.Dataset.MaxFileSize
	store, err := dataset.NewStore(cfg.Dataset.Path)
	if err != nil {
		slog.Error("failed to load dataset", "path", cfg.Dataset.Path, "error", err)
		os.Exit(1)
	}

	ds := store.Current()
	slog.Info("dataset loaded",
		"snapshot_id", ds.ID,
		"encoding", ds.Encoding,
		"eligible", len(ds.Eligible),
		"employed", len(ds.Employed),
		"employment_rate", ds.Stats.Rate,
	)

	server := web.NewServer(store, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
