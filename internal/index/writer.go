package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"policybot/internal/contextutil"
	"policybot/internal/storage"
	"policybot/internal/vectorstore"
)

// ChunkInput is a chunk ready to be persisted.
type ChunkInput struct {
	ID     string // generated when empty
	Text   string
	Vector []float32
}

// Writer builds a fresh index. Anything previously stored at the location is replaced.
type Writer struct {
	dir      string
	manifest Manifest
	db       *sql.DB
	sources  *storage.SourceRepo
	chunks   storage.ChunkStore
	meta     *storage.MetaRepo
	vectors  vectorstore.VectorStore
}

// Create prepares dir for a new index described by m. Backend, Collection and
// VectorSize must be set; Version and BuiltAt are filled in.
func Create(ctx context.Context, dir string, m Manifest, opts StoreOptions) (*Writer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if m.VectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}
	if m.Backend == "" {
		m.Backend = BackendBolt
	}
	if m.Collection == "" {
		m.Collection = DefaultCollection
	}
	m.Version = uuid.New().String()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory %s: %w", dir, err)
	}
	for _, name := range []string{DatabaseFile, VectorsFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove previous index file %s: %w", name, err)
		}
	}

	db, err := storage.New(filepath.Join(dir, DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create index database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate index database: %w", err)
	}

	vectors, err := openVectors(dir, m.Backend, opts, false)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := vectors.DropCollection(ctx, m.Collection); err != nil {
		_ = db.Close()
		_ = vectors.Close()
		return nil, fmt.Errorf("failed to clear collection %s: %w", m.Collection, err)
	}
	if err := vectors.EnsureCollection(ctx, m.Collection, m.VectorSize); err != nil {
		_ = db.Close()
		_ = vectors.Close()
		return nil, fmt.Errorf("failed to create collection %s: %w", m.Collection, err)
	}

	logger.InfoContext(ctx, "index created", "dir", dir, "backend", m.Backend, "collection", m.Collection, "version", m.Version)
	return &Writer{
		dir:      dir,
		manifest: m,
		db:       db,
		sources:  storage.NewSourceRepo(db),
		chunks:   storage.NewChunkRepo(db),
		meta:     storage.NewMetaRepo(db),
		vectors:  vectors,
	}, nil
}

// AddSource stores one document's chunks and their vectors.
func (w *Writer) AddSource(ctx context.Context, path string, chunks []ChunkInput) error {
	src := &storage.SourceRecord{
		Path:       path,
		Position:   w.manifest.Documents,
		ChunkCount: len(chunks),
	}
	if err := w.sources.Insert(ctx, src); err != nil {
		return err
	}

	records := make([]storage.ChunkRecord, len(chunks))
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) != w.manifest.VectorSize {
			return fmt.Errorf("chunk %d of %q has %d dimensions, index expects %d", i, path, len(c.Vector), w.manifest.VectorSize)
		}
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		records[i] = storage.ChunkRecord{ID: id, SourceID: src.ID, ChunkIndex: i, Text: c.Text}
		points[i] = vectorstore.Point{
			ID:  id,
			Vec: c.Vector,
			Meta: map[string]any{
				"source":      path,
				"chunk_index": i,
			},
		}
	}

	if err := w.chunks.InsertBatch(ctx, records); err != nil {
		return err
	}
	if err := w.vectors.Upsert(ctx, w.manifest.Collection, points); err != nil {
		return err
	}

	w.manifest.Documents++
	w.manifest.Chunks += len(chunks)
	return nil
}

// Commit writes the manifest. An index without a manifest cannot be opened.
func (w *Writer) Commit(ctx context.Context) (Manifest, error) {
	w.manifest.BuiltAt = time.Now().UTC().Truncate(time.Second)
	if err := w.meta.SetAll(ctx, w.manifest.values()); err != nil {
		return Manifest{}, fmt.Errorf("failed to write index manifest: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index committed",
		"dir", w.dir, "documents", w.manifest.Documents, "chunks", w.manifest.Chunks)
	return w.manifest, nil
}

// Close releases the database and vector store.
func (w *Writer) Close() error {
	return errors.Join(w.db.Close(), w.vectors.Close())
}
