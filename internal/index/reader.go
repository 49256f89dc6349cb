package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"policybot/internal/contextutil"
	"policybot/internal/service"
	"policybot/internal/storage"
	"policybot/internal/vectorstore"
)

// Hit is a search result hydrated with its chunk text.
type Hit struct {
	ChunkID string
	Text    string
	Score   float32
	Source  string
}

// Reader queries an existing index. It never writes.
type Reader struct {
	dir      string
	manifest Manifest
	db       *sql.DB
	chunks   storage.ChunkStore
	sources  map[int64]string
	vectors  vectorstore.VectorStore
}

// pointCounter is implemented by vector stores that can count stored points.
type pointCounter interface {
	Count(collection string) (int, error)
}

// Open opens the index in dir. A missing index yields service.ErrIndexNotFound.
func Open(ctx context.Context, dir string, opts StoreOptions) (*Reader, error) {
	if !Exists(dir) {
		return nil, service.IndexNotFoundError(dir)
	}

	db, err := storage.NewReadOnly(filepath.Join(dir, DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	values, err := storage.NewMetaRepo(db).All(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	manifest, err := manifestFromValues(values)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("corrupt index at %s: %w", dir, err)
	}

	if manifest.Backend == BackendBolt && opts.Vectors == nil {
		if _, err := os.Stat(filepath.Join(dir, VectorsFile)); errors.Is(err, fs.ErrNotExist) {
			_ = db.Close()
			return nil, service.IndexNotFoundError(dir)
		}
	}

	chunks := storage.NewChunkRepo(db)
	if err := checkChunkCount(ctx, chunks, manifest.Chunks); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("corrupt index at %s: %w", dir, err)
	}

	sourceList, err := storage.NewSourceRepo(db).List(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if len(sourceList) != manifest.Documents {
		_ = db.Close()
		return nil, fmt.Errorf("corrupt index at %s: %d sources stored, manifest records %d", dir, len(sourceList), manifest.Documents)
	}
	sources := make(map[int64]string, len(sourceList))
	for _, src := range sourceList {
		sources[src.ID] = src.Path
	}

	vectors, err := openVectors(dir, manifest.Backend, opts, true)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if counter, ok := vectors.(pointCounter); ok {
		n, err := counter.Count(manifest.Collection)
		if err == nil && n != manifest.Chunks {
			err = fmt.Errorf("vector store holds %d points, manifest records %d chunks", n, manifest.Chunks)
		}
		if err != nil {
			_ = db.Close()
			_ = vectors.Close()
			return nil, fmt.Errorf("corrupt index at %s: %w", dir, err)
		}
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "index opened", "dir", dir, "version", manifest.Version, "chunks", manifest.Chunks)
	return &Reader{
		dir:      dir,
		manifest: manifest,
		db:       db,
		chunks:   chunks,
		sources:  sources,
		vectors:  vectors,
	}, nil
}

func checkChunkCount(ctx context.Context, chunks storage.ChunkStore, want int) error {
	n, err := chunks.Count(ctx)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("chunk table holds %d rows, manifest records %d chunks", n, want)
	}
	return nil
}

// Manifest returns how the index was built.
func (r *Reader) Manifest() Manifest {
	return r.manifest
}

// Search returns up to k chunks most similar to vec, best first.
func (r *Reader) Search(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(vec) != r.manifest.VectorSize {
		return nil, fmt.Errorf("query vector has %d dimensions, index expects %d", len(vec), r.manifest.VectorSize)
	}

	results, err := r.vectors.Search(ctx, r.manifest.Collection, vec, k)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.PointID
	}
	records, err := r.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		rec, ok := records[res.PointID]
		if !ok {
			logger.WarnContext(ctx, "vector has no stored chunk, skipping", "point_id", res.PointID)
			continue
		}
		source, ok := r.sources[rec.SourceID]
		if !ok {
			source, _ = res.Meta["source"].(string)
		}
		hits = append(hits, Hit{
			ChunkID: rec.ID,
			Text:    rec.Text,
			Score:   res.Score,
			Source:  source,
		})
	}
	return hits, nil
}

// Close releases the database and vector store.
func (r *Reader) Close() error {
	return errors.Join(r.db.Close(), r.vectors.Close())
}
