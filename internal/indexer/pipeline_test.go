package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"policybot/internal/corpus"
	"policybot/internal/index"
	"policybot/internal/llm"
	"policybot/internal/llm/mocks"
	"policybot/internal/service"
)

type embedderFunc func(ctx context.Context, model string) (llm.Embedder, error)

func (f embedderFunc) Embedder(ctx context.Context, model string) (llm.Embedder, error) {
	return f(ctx, model)
}

func localEmbedders(dim int) EmbedderSource {
	return embedderFunc(func(_ context.Context, model string) (llm.Embedder, error) {
		return llm.NewHashEmbedder(model, dim), nil
	})
}

func buildOptions(dir string) BuildOptions {
	return BuildOptions{
		Output:         dir,
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		EmbeddingModel: "test-model",
	}
}

func openIndex(t *testing.T, path string) *index.Reader {
	t.Helper()
	r, err := index.Open(context.Background(), path, index.StoreOptions{})
	if err != nil {
		t.Fatalf("index.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline(localEmbedders(8), Config{})

	if p.cfg.Backend != index.BackendBolt {
		t.Errorf("Backend = %q, want %q", p.cfg.Backend, index.BackendBolt)
	}
	if p.cfg.Collection != index.DefaultCollection {
		t.Errorf("Collection = %q, want %q", p.cfg.Collection, index.DefaultCollection)
	}
	if p.cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", p.cfg.BatchSize, DefaultBatchSize)
	}
}

func TestPipeline_BuildIndex_SampleCorpus(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "policy_index")

	p := NewPipeline(localEmbedders(256), Config{BatchSize: 2})
	var calls [][2]int
	p.OnProgress(func(done, total int) { calls = append(calls, [2]int{done, total}) })

	path, err := p.BuildIndex(ctx, "", buildOptions(dir))
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	want, err := index.ResolvePath(dir)
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if path != want {
		t.Errorf("BuildIndex() path = %q, want %q", path, want)
	}
	if !index.Exists(path) {
		t.Fatalf("index not found at %s", path)
	}
	if wantCalls := [][2]int{{2, 3}, {3, 3}}; !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("progress calls = %v, want %v", calls, wantCalls)
	}

	r := openIndex(t, path)
	m := r.Manifest()
	if m.EmbeddingModel != "test-model" || m.VectorSize != 256 {
		t.Errorf("manifest model = %q/%d, want test-model/256", m.EmbeddingModel, m.VectorSize)
	}
	if m.Documents != 3 || m.Chunks != 3 {
		t.Errorf("manifest documents/chunks = %d/%d, want 3/3", m.Documents, m.Chunks)
	}
	if m.ChunkSize != DefaultChunkSize {
		t.Errorf("manifest chunk size = %d, want %d", m.ChunkSize, DefaultChunkSize)
	}

	query, err := llm.NewHashEmbedder("test-model", 256).EmbedTexts(ctx, []string{"parental leave"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	hits, err := r.Search(ctx, query[0], 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || !strings.Contains(hits[0].Text, "parental leave") {
		t.Errorf("Search() = %+v, want the parental leave policy", hits)
	}
}

func TestPipeline_BuildIndex_Directory(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	files := map[string]string{
		"hr.md":           "# HR\n\nEmployees get **12 weeks** leave.",
		"it/security.txt": "Passwords rotate every 90 days.",
		"notes.pdf":       "ignored",
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	opts := buildOptions(filepath.Join(t.TempDir(), "idx"))
	opts.StripMarkdown = true

	path, err := NewPipeline(localEmbedders(16), Config{}).BuildIndex(ctx, src, opts)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	r := openIndex(t, path)
	if got := r.Manifest().Documents; got != 2 {
		t.Errorf("manifest documents = %d, want 2", got)
	}

	vec, err := llm.NewHashEmbedder("test-model", 16).EmbedTexts(ctx, []string{"x"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	hits, err := r.Search(ctx, vec[0], 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() returned %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		if strings.Contains(h.Text, "**") {
			t.Errorf("chunk %q still carries markdown", h.Text)
		}
	}
}

func TestPipeline_BuildFromDocuments_Chunking(t *testing.T) {
	docs := []corpus.RawDocument{
		{Path: "long.txt", Text: "aaaa bbbb cccc dddd"},
		{Path: "short.txt", Text: "eeee"},
	}
	opts := buildOptions(filepath.Join(t.TempDir(), "idx"))
	opts.ChunkSize = 10
	opts.ChunkOverlap = 5

	res, err := NewPipeline(localEmbedders(8), Config{}).BuildFromDocuments(context.Background(), docs, opts)
	if err != nil {
		t.Fatalf("BuildFromDocuments() error = %v", err)
	}

	if res.Stats.DocsProcessed != 2 {
		t.Errorf("DocsProcessed = %d, want 2", res.Stats.DocsProcessed)
	}
	if res.Stats.ChunksEmbedded != 4 || res.Manifest.Chunks != 4 {
		t.Errorf("chunks embedded/stored = %d/%d, want 4/4", res.Stats.ChunksEmbedded, res.Manifest.Chunks)
	}
	if res.Stats.IndexVersion != res.Manifest.Version {
		t.Errorf("IndexVersion = %q, want %q", res.Stats.IndexVersion, res.Manifest.Version)
	}
}

func TestPipeline_BuildFromDocuments_DefaultModel(t *testing.T) {
	var got string
	embedders := embedderFunc(func(_ context.Context, model string) (llm.Embedder, error) {
		got = model
		return llm.NewHashEmbedder(model, 4), nil
	})
	opts := buildOptions(filepath.Join(t.TempDir(), "idx"))
	opts.EmbeddingModel = ""

	res, err := NewPipeline(embedders, Config{EmbeddingModel: "configured"}).
		BuildFromDocuments(context.Background(), corpus.SamplePolicies(), opts)
	if err != nil {
		t.Fatalf("BuildFromDocuments() error = %v", err)
	}
	if got != "configured" || res.Manifest.EmbeddingModel != "configured" {
		t.Errorf("model requested = %q, manifest = %q, want configured", got, res.Manifest.EmbeddingModel)
	}
}

func TestPipeline_BuildFromDocuments_Errors(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "idx")
	failing := embedderFunc(func(context.Context, string) (llm.Embedder, error) {
		return nil, errors.New("model not installed")
	})

	tests := []struct {
		name    string
		build   func(p *Pipeline) error
		wantErr error
	}{
		{
			name: "empty corpus",
			build: func(p *Pipeline) error {
				_, err := p.BuildFromDocuments(ctx, []corpus.RawDocument{{Text: "  "}, {Text: "\n"}}, buildOptions(dir))
				return err
			},
			wantErr: service.ErrEmptyCorpus,
		},
		{
			name: "overlap above chunk size",
			build: func(p *Pipeline) error {
				opts := buildOptions(dir)
				opts.ChunkOverlap = opts.ChunkSize + 1
				_, err := p.BuildFromDocuments(ctx, corpus.SamplePolicies(), opts)
				return err
			},
			wantErr: service.ErrInvalidInput,
		},
		{
			name: "empty output",
			build: func(p *Pipeline) error {
				_, err := p.BuildFromDocuments(ctx, corpus.SamplePolicies(), buildOptions(""))
				return err
			},
			wantErr: service.ErrInvalidInput,
		},
		{
			name: "missing source",
			build: func(p *Pipeline) error {
				_, err := p.BuildIndex(ctx, filepath.Join(t.TempDir(), "missing"), buildOptions(dir))
				return err
			},
			wantErr: service.ErrSourceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(NewPipeline(localEmbedders(4), Config{}))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if index.Exists(dir) {
		t.Error("failed builds should not leave an index behind")
	}

	_, err := NewPipeline(failing, Config{}).BuildFromDocuments(ctx, corpus.SamplePolicies(), buildOptions(dir))
	if err == nil || !strings.Contains(err.Error(), "model not installed") {
		t.Errorf("error = %v, want model not installed", err)
	}
}

func TestPipeline_EmbeddingFailureKeepsPreviousIndex(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "idx")

	first, err := NewPipeline(localEmbedders(8), Config{}).BuildFromDocuments(ctx, corpus.SamplePolicies(), buildOptions(dir))
	if err != nil {
		t.Fatalf("BuildFromDocuments() error = %v", err)
	}

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	p := NewPipeline(embedderFunc(func(context.Context, string) (llm.Embedder, error) {
		return embedder, nil
	}), Config{})
	if _, err := p.BuildFromDocuments(ctx, corpus.SamplePolicies(), buildOptions(dir)); !errors.Is(err, service.ErrExternalService) {
		t.Fatalf("BuildFromDocuments() error = %v, want ErrExternalService", err)
	}

	if got := openIndex(t, dir).Manifest().Version; got != first.Manifest.Version {
		t.Errorf("index version = %q, want previous %q", got, first.Manifest.Version)
	}
}

func TestPipeline_EmbeddingCountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)

	p := NewPipeline(embedderFunc(func(context.Context, string) (llm.Embedder, error) {
		return embedder, nil
	}), Config{})
	_, err := p.BuildFromDocuments(context.Background(), corpus.SamplePolicies(), buildOptions(filepath.Join(t.TempDir(), "idx")))
	if !errors.Is(err, service.ErrExternalService) {
		t.Errorf("BuildFromDocuments() error = %v, want ErrExternalService", err)
	}
}
