// statswatch subscribes to an agent's stats stream and archives every
// snapshot into Postgres.
// Usage: go run ./cmd/statswatch --config configs/statswatch.local.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/serverdeck/serverdeck-go/internal/config"
	"github.com/serverdeck/serverdeck-go/internal/database"
	"github.com/serverdeck/serverdeck-go/internal/recorder"
	"github.com/serverdeck/serverdeck-go/internal/sdk"
	"github.com/serverdeck/serverdeck-go/internal/stream"
	"github.com/serverdeck/serverdeck-go/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/statswatch.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting statswatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Host == "" {
		logger.Error("database.host is required for statswatch")
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"agent", cfg.Agent.Origin,
		"database", cfg.Database.Name,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Start the snapshot recorder
	rec := recorder.New(cfg.Recorder, pool, logger)
	if err := rec.Start(ctx); err != nil {
		logger.Error("failed to start recorder", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		rec.Stop(shutdownCtx)
	}()

	// Open the stats stream
	client, err := sdk.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	stats, err := client.Stats()
	if err != nil {
		logger.Error("failed to create stats stream", "error", err)
		os.Exit(1)
	}

	stats.On(stream.EventStats, func(ev stream.Event) {
		rec.Record(stats.ID(), ev.Snapshot)
	})
	stats.On(stream.EventReconnecting, func(ev stream.Event) {
		logger.Warn("stats stream reconnecting", "attempt", ev.Attempt)
	})
	stats.On(stream.EventError, func(ev stream.Event) {
		logger.Error("stats stream error", "error", ev.Err)
	})
	stats.On(stream.EventClose, func(ev stream.Event) {
		// Terminal close means the retry budget is spent; stop the process.
		logger.Info("stats stream closed", "reason", ev.Reason)
		cancel()
	})

	stats.Connect(ctx)
	logger.Info("statswatch running", "stream", stats.ID())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return stats.Close()
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				m := rec.Stats()
				logger.Info("recorder metrics",
					"inserts", m.Inserts,
					"duplicates", m.Duplicates,
					"errors", m.Errors,
					"flushes", m.Flushes,
					"dropped", m.Dropped,
				)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("statswatch stopped")
}
