package rag

import (
	"context"
	"fmt"
	"strings"

	"policybot/internal/contextutil"
	"policybot/internal/index"
	"policybot/internal/service"
)

// Options configure an Engine.
type Options struct {
	// IndexPath is searched when a request names no index.
	IndexPath string
	// EmbeddingModel embeds queries when a request names no model.
	// When empty too, the model the index was built with is used.
	EmbeddingModel string
	// Store locates remote vector backends.
	Store index.StoreOptions
}

// Engine retrieves the policy chunks closest to a query.
type Engine struct {
	embedders EmbedderSource
	opts      Options
}

// NewEngine creates a new retrieval engine.
func NewEngine(embedders EmbedderSource, opts Options) *Engine {
	return &Engine{embedders: embedders, opts: opts}
}

// Retrieve opens the index, embeds the query and returns up to req.TopK chunks,
// best first, ranked from 1. The index is opened read-only for every call.
func (e *Engine) Retrieve(ctx context.Context, req RetrieveRequest) ([]RetrievedChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		return nil, &service.ValidationError{Field: "query", Message: service.ErrInvalidQuery.Error(), Err: service.ErrInvalidQuery}
	}
	if req.TopK < 1 {
		return nil, &service.ValidationError{Field: "top_k", Message: service.ErrInvalidTopK.Error(), Err: service.ErrInvalidTopK}
	}

	path := req.IndexPath
	if path == "" {
		path = e.opts.IndexPath
	}
	dir, err := index.ResolvePath(path)
	if err != nil {
		return nil, err
	}

	reader, err := index.Open(ctx, dir, e.opts.Store)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	manifest := reader.Manifest()

	model := req.EmbeddingModel
	if model == "" {
		model = e.opts.EmbeddingModel
	}
	if model == "" {
		model = manifest.EmbeddingModel
	}
	if model != manifest.EmbeddingModel {
		logger.WarnContext(ctx, "query embedding model differs from the index",
			"query_model", model, "index_model", manifest.EmbeddingModel)
	}

	embedder, err := e.embedders.Embedder(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrExternalService, err)
	}
	vectors, err := embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "model", model, "error", err)
		return nil, fmt.Errorf("%w: failed to embed query: %w", service.ErrExternalService, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query embedding, got %d", service.ErrExternalService, len(vectors))
	}

	hits, err := reader.Search(ctx, vectors[0], req.TopK)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search index", "dir", dir, "error", err)
		return nil, fmt.Errorf("%w: failed to search index: %w", service.ErrExternalService, err)
	}

	chunks := make([]RetrievedChunk, len(hits))
	for i, hit := range hits {
		chunks[i] = RetrievedChunk{
			ChunkID: hit.ChunkID,
			Source:  hit.Source,
			Text:    hit.Text,
			Score:   hit.Score,
			Rank:    i + 1,
		}
		logger.DebugContext(ctx, "retrieved chunk",
			"rank", i+1,
			"score", hit.Score,
			"source", hit.Source,
			"text_preview", preview(hit.Text, 100),
		)
	}

	logger.InfoContext(ctx, "retrieval completed", "dir", dir, "k_requested", req.TopK, "results", len(chunks))
	return chunks, nil
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
