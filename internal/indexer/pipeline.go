package indexer

import (
	"context"
	"fmt"

	"policybot/internal/contextutil"
	"policybot/internal/corpus"
	"policybot/internal/index"
	"policybot/internal/llm"
	"policybot/internal/service"
)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 32

// Config holds the settings shared by every build of a pipeline.
type Config struct {
	Backend        string // index.BackendBolt or index.BackendQdrant
	Collection     string
	Store          index.StoreOptions
	EmbeddingModel string // used when BuildOptions.EmbeddingModel is empty
	BatchSize      int
}

// Pipeline turns policy documents into a persisted index:
// load, clean, chunk, embed, then write.
type Pipeline struct {
	embedders EmbedderSource
	cfg       Config
	progress  ProgressFunc
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedders EmbedderSource, cfg Config) *Pipeline {
	if cfg.Backend == "" {
		cfg.Backend = index.BackendBolt
	}
	if cfg.Collection == "" {
		cfg.Collection = index.DefaultCollection
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Pipeline{embedders: embedders, cfg: cfg}
}

// OnProgress registers fn to be called after every embedded batch.
func (p *Pipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// BuildIndex builds an index from source and returns its canonical location.
// An empty source uses the built-in sample policies; otherwise source is a .txt/.md
// file or a directory searched recursively.
func (p *Pipeline) BuildIndex(ctx context.Context, source string, opts BuildOptions) (string, error) {
	var docs []corpus.RawDocument
	if source == "" {
		docs = corpus.SamplePolicies()
	} else {
		loaded, err := corpus.LoadDocuments(source, corpus.LoadOptions{StripMarkdown: opts.StripMarkdown})
		if err != nil {
			return "", err
		}
		docs = loaded
	}

	res, err := p.BuildFromDocuments(ctx, docs, opts)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// BuildFromDocuments cleans, chunks and embeds docs, then replaces whatever index
// exists at opts.Output. Nothing on disk changes until every chunk is embedded.
func (p *Pipeline) BuildFromDocuments(ctx context.Context, docs []corpus.RawDocument, opts BuildOptions) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if opts.Output == "" {
		return nil, &service.ValidationError{Field: "output", Message: "cannot be empty", Err: service.ErrInvalidInput}
	}
	splitter, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	model := opts.EmbeddingModel
	if model == "" {
		model = p.cfg.EmbeddingModel
	}
	if model == "" {
		return nil, &service.ValidationError{Field: "embedding_model", Message: "cannot be empty", Err: service.ErrInvalidInput}
	}

	cleaned, err := corpus.CleanDocuments(docs)
	if err != nil {
		return nil, err
	}

	chunked := make([]document, len(cleaned))
	var texts []string
	for i, doc := range cleaned {
		chunked[i] = document{path: doc.Path, chunks: splitter.Split(doc.Text)}
		texts = append(texts, chunked[i].chunks...)
	}
	logger.InfoContext(ctx, "corpus chunked", "documents", len(chunked), "chunks", len(texts),
		"chunk_size", opts.ChunkSize, "chunk_overlap", opts.ChunkOverlap)

	embedder, err := p.embedders.Embedder(ctx, model)
	if err != nil {
		return nil, err
	}
	vectors, err := p.embed(ctx, embedder, texts)
	if err != nil {
		return nil, err
	}

	dir, err := index.ResolvePath(opts.Output)
	if err != nil {
		return nil, err
	}
	manifest, err := p.write(ctx, dir, index.Manifest{
		EmbeddingModel: model,
		VectorSize:     embedder.Dimension(),
		Backend:        p.cfg.Backend,
		Collection:     p.cfg.Collection,
		ChunkSize:      opts.ChunkSize,
		ChunkOverlap:   opts.ChunkOverlap,
	}, chunked, vectors)
	if err != nil {
		return nil, err
	}

	stats := computeBuildStats(chunked, manifest.Version)
	logger.InfoContext(ctx, "index built", "path", dir, "documents", stats.DocsProcessed,
		"chunks", stats.ChunksEmbedded, "tokens_p95", stats.ChunkTokenStats.P95, "version", stats.IndexVersion)

	return &Result{Path: dir, Manifest: manifest, Stats: stats}, nil
}

// embed embeds texts in batches of cfg.BatchSize, reporting progress after each batch.
func (p *Pipeline) embed(ctx context.Context, embedder llm.Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(texts))

		batch, err := embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: failed to embed chunks %d-%d: %w", service.ErrExternalService, start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: embedding count mismatch: expected %d, got %d", service.ErrExternalService, end-start, len(batch))
		}
		vectors = append(vectors, batch...)

		if p.progress != nil {
			p.progress(end, len(texts))
		}
	}
	return vectors, nil
}

func (p *Pipeline) write(ctx context.Context, dir string, m index.Manifest, docs []document, vectors [][]float32) (index.Manifest, error) {
	w, err := index.Create(ctx, dir, m, p.cfg.Store)
	if err != nil {
		return index.Manifest{}, err
	}
	defer func() {
		_ = w.Close()
	}()

	next := 0
	for _, doc := range docs {
		inputs := make([]index.ChunkInput, len(doc.chunks))
		for i, text := range doc.chunks {
			inputs[i] = index.ChunkInput{Text: text, Vector: vectors[next]}
			next++
		}
		if err := w.AddSource(ctx, doc.path, inputs); err != nil {
			return index.Manifest{}, fmt.Errorf("failed to store %q: %w", doc.path, err)
		}
	}

	return w.Commit(ctx)
}
