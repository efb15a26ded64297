package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/threadpages/internal/aggregator"
	"github.com/MikeSquared-Agency/threadpages/internal/api"
	"github.com/MikeSquared-Agency/threadpages/internal/config"
	"github.com/MikeSquared-Agency/threadpages/internal/events"
	"github.com/MikeSquared-Agency/threadpages/internal/generator"
	"github.com/MikeSquared-Agency/threadpages/internal/ingester"
	"github.com/MikeSquared-Agency/threadpages/internal/publisher"
	"github.com/MikeSquared-Agency/threadpages/internal/slack"
	"github.com/MikeSquared-Agency/threadpages/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("threadpages starting",
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"publish_backend", cfg.PublishBackend,
		"target_channel", cfg.SlackTargetChannel,
		"model", cfg.GeminiModel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Open the page store.
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.SlackSigningSecret == "" {
		slog.Warn("SLACK_SIGNING_SECRET is not set, every webhook will be refused")
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open page store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("page store ready")

	// Step 2: Open the broadcast broker.
	broker, err := openBroker(cfg)
	if err != nil {
		slog.Error("failed to connect broadcast broker", "error", err)
		os.Exit(1)
	}
	slog.Info("broadcast broker ready", "backend", cfg.PublishBackend)

	// Step 3: Build the pipeline.
	gemini, err := generator.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	if err != nil {
		slog.Error("failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	gen := generator.NewAdapter(gemini, cfg.GenerationTimeout)
	ing := ingester.New(gen, aggregator.New(db), publisher.New(broker))

	if cfg.NotifierEnabled() {
		ing.SetNotifier(slack.NewNotifier(cfg.SlackBotToken, cfg.PageBaseURL))
		slog.Info("Slack page link notifier enabled", "page_base_url", cfg.PageBaseURL)
	}

	// Step 4: Start HTTP API.
	srv := api.NewServer(api.Deps{
		Store:      db,
		Verifier:   slack.NewVerifier(cfg.SlackSigningSecret, cfg.SlackMaxSkew),
		Classifier: events.NewClassifier(cfg.SlackTargetChannel),
		Processor:  ing,
		Broker:     broker,
	}, cfg.Port)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("threadpages ready", "port", cfg.Port)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		slog.Info("shutting down after server failure")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := broker.Close(); err != nil {
		slog.Warn("broker close failed", "error", err)
	}
	slog.Info("threadpages stopped")
}

func openStore(ctx context.Context, cfg config.Config) (store.PageStore, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return store.New(ctx, cfg.DatabaseURL)
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openBroker(cfg config.Config) (publisher.Broker, error) {
	switch cfg.PublishBackend {
	case "nats":
		return publisher.ConnectNATS(cfg.NatsURL)
	case "redis":
		return publisher.ConnectRedis(cfg.RedisURL)
	case "memory":
		return publisher.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown PUBLISH_BACKEND %q", cfg.PublishBackend)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
