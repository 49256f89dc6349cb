package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"policybot/internal/config"
	"policybot/internal/http"
	"policybot/internal/index"
	"policybot/internal/models"
	"policybot/internal/rag"
	"policybot/internal/service"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// PolicyBot answers questions about company policies from a prebuilt policy index.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: PolicyBot API
//   description: |
//     Retrieves the policy passages closest to a question and summarizes the best match.
//     Build the index with the ingest command before starting the API.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
//   - application/x-www-form-urlencoded
// produces:
//   - application/json

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	factoryCfg := models.FactoryConfig{
		EmbeddingProvider:  cfg.EmbeddingProvider,
		SummarizerProvider: cfg.SummarizerProvider,
		EmbeddingBaseURL:   cfg.EmbeddingBaseURL,
		LLMBaseURL:         cfg.LLMBaseURL,
		APIKey:             cfg.LLMAPIKey,
		EmbeddingDimension: cfg.EmbeddingDimension,
		Preload:            cfg.PreloadModels,
	}
	embedFactory, err := models.NewEmbedderFactory(factoryCfg)
	if err != nil {
		log.Fatalf("Failed to configure embeddings: %v", err)
	}
	summarizeFactory, err := models.NewSummarizerFactory(factoryCfg)
	if err != nil {
		log.Fatalf("Failed to configure summarizer: %v", err)
	}
	registry := models.NewRegistry(embedFactory, summarizeFactory, models.DefaultEmbedderCapacity, models.DefaultSummarizerCapacity)

	engine := rag.NewEngine(registry, rag.Options{
		IndexPath:      cfg.IndexPath,
		EmbeddingModel: cfg.EmbeddingModel,
		Store:          index.StoreOptions{QdrantURL: cfg.QdrantURL},
	})
	policyService := service.NewPolicyService(engine, registry, service.Defaults{
		IndexPath:       cfg.IndexPath,
		EmbeddingModel:  cfg.EmbeddingModel,
		SummarizerModel: cfg.SummarizerModel,
	})

	if dir, err := index.ResolvePath(cfg.IndexPath); err != nil || !index.Exists(dir) {
		slog.Warn("Policy index not found; /ask will fail until the ingest command has run", "path", cfg.IndexPath)
	}

	router := http.NewRouter(&http.Deps{
		PolicyService: policyService,
		IndexPath:     cfg.IndexPath,
		DefaultTopK:   cfg.DefaultTopK,
		MaxTopK:       cfg.MaxTopK,
		Logger:        logger,
	})

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr, "index_path", cfg.IndexPath,
		"embedding_model", cfg.EmbeddingModel, "summarizer_model", cfg.SummarizerModel)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
