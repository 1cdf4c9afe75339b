// streamtest connects to an agent stream and prints every event to the
// console.
// Usage: go run ./cmd/streamtest --config configs/statswatch.local.yaml --stream stats
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/serverdeck/serverdeck-go/internal/config"
	"github.com/serverdeck/serverdeck-go/internal/sdk"
	"github.com/serverdeck/serverdeck-go/internal/stream"
)

func main() {
	configPath := flag.String("config", "configs/statswatch.local.yaml", "path to config file")
	kind := flag.String("stream", "stats", "stream to open: terminal or stats")
	cwd := flag.String("cwd", "", "working directory for terminal streams")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	client, err := sdk.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	switch *kind {
	case "terminal":
		size := &stream.TerminalSize{Cols: 80, Rows: 24}
		term, err := client.Terminal(*cwd, size)
		if err != nil {
			logger.Error("failed to create terminal stream", "error", err)
			os.Exit(1)
		}
		watch(term.Manager, logger, cancel)
		term.On(stream.EventData, func(ev stream.Event) {
			fmt.Print(ev.Text)
		})
		term.Connect(ctx)
		defer term.Close()

	case "stats":
		stats, err := client.Stats()
		if err != nil {
			logger.Error("failed to create stats stream", "error", err)
			os.Exit(1)
		}
		watch(stats.Manager, logger, cancel)
		stats.On(stream.EventStats, func(ev stream.Event) {
			fmt.Printf("snapshot: %s\n", ev.Snapshot)
		})
		stats.Connect(ctx)
		defer stats.Close()

	default:
		logger.Error("unknown stream kind", "stream", *kind)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("streamtest stopped")
}

// watch logs lifecycle events and stops the process on terminal close.
func watch(m *stream.Manager, logger *slog.Logger, cancel context.CancelFunc) {
	m.On(stream.EventOpen, func(ev stream.Event) {
		logger.Info("stream open", "stream", m.ID())
	})
	m.On(stream.EventReconnecting, func(ev stream.Event) {
		logger.Warn("reconnecting", "attempt", ev.Attempt)
	})
	m.On(stream.EventReconnected, func(ev stream.Event) {
		logger.Info("reconnected")
	})
	m.On(stream.EventError, func(ev stream.Event) {
		logger.Error("stream error", "error", ev.Err)
	})
	m.On(stream.EventClose, func(ev stream.Event) {
		logger.Info("stream closed", "reason", ev.Reason)
		cancel()
	})
}
