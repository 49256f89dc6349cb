package models

import (
	"context"
	"fmt"

	"policybot/internal/contextutil"
	"policybot/internal/llm"
)

// Providers.
const (
	ProviderLocal = "local"
	ProviderHTTP  = "http"
)

// FactoryConfig selects how model handles are built.
type FactoryConfig struct {
	EmbeddingProvider  string
	SummarizerProvider string
	EmbeddingBaseURL   string
	LLMBaseURL         string
	APIKey             string
	// EmbeddingDimension is the vector size of every embedding model.
	EmbeddingDimension int
	// Preload asks the model server to load a model before its handle is returned.
	Preload bool
}

// NewEmbedderFactory returns a factory for cfg.EmbeddingProvider.
func NewEmbedderFactory(cfg FactoryConfig) (EmbedderFactory, error) {
	switch cfg.EmbeddingProvider {
	case ProviderLocal, "":
		return func(_ context.Context, model string) (llm.Embedder, error) {
			return llm.NewHashEmbedder(model, cfg.EmbeddingDimension), nil
		}, nil
	case ProviderHTTP:
		loader := llm.NewModelLoader(cfg.EmbeddingBaseURL)
		return func(ctx context.Context, model string) (llm.Embedder, error) {
			if cfg.Preload {
				preload(ctx, loader, model)
			}
			return llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.APIKey, model, cfg.EmbeddingDimension), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// NewSummarizerFactory returns a factory for cfg.SummarizerProvider.
func NewSummarizerFactory(cfg FactoryConfig) (SummarizerFactory, error) {
	switch cfg.SummarizerProvider {
	case ProviderLocal, "":
		return func(context.Context, string) (llm.Summarizer, error) {
			return llm.NewExtractiveSummarizer(), nil
		}, nil
	case ProviderHTTP:
		client := llm.NewClient(cfg.LLMBaseURL, cfg.APIKey, "")
		loader := llm.NewModelLoader(cfg.LLMBaseURL)
		return func(ctx context.Context, model string) (llm.Summarizer, error) {
			if cfg.Preload {
				preload(ctx, loader, model)
			}
			return llm.NewChatSummarizer(client, model), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.SummarizerProvider)
	}
}

// preload is best effort: a server without the router endpoints still serves requests.
func preload(ctx context.Context, loader *llm.ModelLoader, model string) {
	logger := contextutil.LoggerFromContext(ctx)
	if err := loader.LoadModel(ctx, model, nil); err != nil {
		logger.WarnContext(ctx, "model preload failed", "model", model, "error", err)
		return
	}
	logger.InfoContext(ctx, "model preloaded", "model", model)
}
