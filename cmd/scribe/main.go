package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/scribe/internal/api"
	"github.com/MikeSquared-Agency/scribe/internal/config"
	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/llm"
	"github.com/MikeSquared-Agency/scribe/internal/pipeline"
	"github.com/MikeSquared-Agency/scribe/internal/servicenow"
	"github.com/MikeSquared-Agency/scribe/internal/summarizer"
	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("scribe starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OpenRouterAPIKey == "" {
		slog.Error("OPENROUTER_API_KEY is required")
		os.Exit(1)
	}
	if cfg.SNInstance == "" {
		slog.Error("SN_INSTANCE is required")
		os.Exit(1)
	}

	// LLM client and summarizer
	llmClient := llm.NewClient(llm.Config{
		APIKey:   cfg.OpenRouterAPIKey,
		Endpoint: cfg.OpenRouterURL,
		Model:    cfg.Model,
	})
	slog.Info("llm client ready", "model", cfg.Model)

	agent := summarizer.New(llmClient, slog.Default())

	// ServiceNow client
	snClient := servicenow.NewClient(servicenow.Config{
		InstanceURL: cfg.SNInstance,
		Username:    cfg.SNUser,
		Password:    cfg.SNPassword,
	}, slog.Default())
	slog.Info("servicenow client ready", "instance", cfg.SNInstance)

	// Transcript store — Postgres when configured, in-memory otherwise
	var store transcript.Store
	if cfg.DatabaseURL != "" {
		pg, err := transcript.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.Init(ctx); err != nil {
			slog.Error("failed to init transcripts table", "error", err)
			os.Exit(1)
		}
		store = pg
		slog.Info("database connected")
	} else {
		store = transcript.NewMemoryStore()
		slog.Warn("no DATABASE_URL — transcripts held in memory, lost on restart")
	}

	// NATS/Hermes (optional — scribe works without it, just no swarm events)
	var events api.Publisher
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)

		if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	} else {
		slog.Warn("NATS not configured — running without swarm events")
	}

	// Pipeline: summarize, then resolve the requestor
	pipe := pipeline.New(agent, snClient, slog.Default())

	srv := api.NewServer(cfg.Port, store, pipe, snClient, events, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("scribe ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("scribe stopped")
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
