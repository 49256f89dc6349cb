package models

import (
	"context"
	"fmt"

	"policybot/internal/contextutil"
	"policybot/internal/llm"
)

// Default cache capacities.
const (
	DefaultEmbedderCapacity   = 4
	DefaultSummarizerCapacity = 2
)

// EmbedderFactory builds an embedding handle for a model id.
type EmbedderFactory func(ctx context.Context, model string) (llm.Embedder, error)

// SummarizerFactory builds a summarization handle for a model id.
type SummarizerFactory func(ctx context.Context, model string) (llm.Summarizer, error)

// Registry hands out model handles, building each at most once while it stays cached.
// Two concurrent misses for the same id may both build; the last one is kept.
type Registry struct {
	newEmbedder   EmbedderFactory
	newSummarizer SummarizerFactory
	embedders     *Cache[llm.Embedder]
	summarizers   *Cache[llm.Summarizer]
}

// NewRegistry creates a registry with the given factories and cache capacities.
func NewRegistry(embed EmbedderFactory, summarize SummarizerFactory, embedCap, sumCap int) *Registry {
	return &Registry{
		newEmbedder:   embed,
		newSummarizer: summarize,
		embedders:     NewCache[llm.Embedder](embedCap),
		summarizers:   NewCache[llm.Summarizer](sumCap),
	}
}

// Embedder returns the embedding handle for model, building it on a cache miss.
func (r *Registry) Embedder(ctx context.Context, model string) (llm.Embedder, error) {
	if e, ok := r.embedders.Get(model); ok {
		return e, nil
	}

	e, err := r.newEmbedder(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model %s: %w", model, err)
	}
	if evicted := r.embedders.Add(model, e); evicted {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "embedding model evicted from cache", "cached", r.embedders.Keys())
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "embedding model loaded", "model", model, "dimension", e.Dimension())
	return e, nil
}

// Summarizer returns the summarization handle for model, building it on a cache miss.
func (r *Registry) Summarizer(ctx context.Context, model string) (llm.Summarizer, error) {
	if s, ok := r.summarizers.Get(model); ok {
		return s, nil
	}

	s, err := r.newSummarizer(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load summarization model %s: %w", model, err)
	}
	if evicted := r.summarizers.Add(model, s); evicted {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "summarization model evicted from cache", "cached", r.summarizers.Keys())
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "summarization model loaded", "model", model)
	return s, nil
}
