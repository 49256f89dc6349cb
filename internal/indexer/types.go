package indexer

import (
	"context"

	"policybot/internal/index"
	"policybot/internal/llm"
)

// EmbedderSource hands out embedding models by id.
type EmbedderSource interface {
	Embedder(ctx context.Context, model string) (llm.Embedder, error)
}

// ProgressFunc is called after every embedded batch with the number of chunks done so far.
type ProgressFunc func(done, total int)

// BuildOptions describes one index build.
type BuildOptions struct {
	Output         string // index directory, "~" is expanded
	ChunkSize      int    // in runes
	ChunkOverlap   int    // in runes
	EmbeddingModel string // falls back to Config.EmbeddingModel
	StripMarkdown  bool
}

// Result describes a finished build.
type Result struct {
	Path     string
	Manifest index.Manifest
	Stats    BuildStats
}

// document is a cleaned source split into chunks.
type document struct {
	path   string
	chunks []string
}
