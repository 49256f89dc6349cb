// Package index reads and writes the persisted policy index: a directory holding
// the SQLite chunk database and, for the bolt backend, the vector file.
package index

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// DatabaseFile holds sources, chunk texts and the manifest.
	DatabaseFile = "policy.db"
	// VectorsFile holds the vectors when the bolt backend is used.
	VectorsFile = "vectors.db"

	// BackendBolt stores vectors in VectorsFile next to the database.
	BackendBolt = "bolt"
	// BackendQdrant stores vectors in a Qdrant collection.
	BackendQdrant = "qdrant"

	// DefaultCollection is the vector collection name used when none is configured.
	DefaultCollection = "policies"
)

// Manifest describes how an index was built.
type Manifest struct {
	Version        string
	EmbeddingModel string
	VectorSize     int
	Backend        string
	Collection     string
	ChunkSize      int
	ChunkOverlap   int
	Documents      int
	Chunks         int
	BuiltAt        time.Time
}

const (
	keyVersion        = "index_version"
	keyEmbeddingModel = "embedding_model"
	keyVectorSize     = "vector_size"
	keyBackend        = "backend"
	keyCollection     = "collection"
	keyChunkSize      = "chunk_size"
	keyChunkOverlap   = "chunk_overlap"
	keyDocuments      = "documents"
	keyChunks         = "chunks"
	keyBuiltAt        = "built_at"
)

func (m Manifest) values() map[string]string {
	return map[string]string{
		keyVersion:        m.Version,
		keyEmbeddingModel: m.EmbeddingModel,
		keyVectorSize:     strconv.Itoa(m.VectorSize),
		keyBackend:        m.Backend,
		keyCollection:     m.Collection,
		keyChunkSize:      strconv.Itoa(m.ChunkSize),
		keyChunkOverlap:   strconv.Itoa(m.ChunkOverlap),
		keyDocuments:      strconv.Itoa(m.Documents),
		keyChunks:         strconv.Itoa(m.Chunks),
		keyBuiltAt:        m.BuiltAt.UTC().Format(time.RFC3339),
	}
}

func manifestFromValues(values map[string]string) (Manifest, error) {
	var m Manifest
	for _, key := range []string{keyVersion, keyEmbeddingModel, keyVectorSize, keyBackend, keyCollection} {
		if values[key] == "" {
			return Manifest{}, fmt.Errorf("index manifest is missing %s", key)
		}
	}

	m.Version = values[keyVersion]
	m.EmbeddingModel = values[keyEmbeddingModel]
	m.Backend = values[keyBackend]
	m.Collection = values[keyCollection]

	ints := []struct {
		key string
		dst *int
	}{
		{keyVectorSize, &m.VectorSize},
		{keyChunkSize, &m.ChunkSize},
		{keyChunkOverlap, &m.ChunkOverlap},
		{keyDocuments, &m.Documents},
		{keyChunks, &m.Chunks},
	}
	for _, f := range ints {
		raw, ok := values[f.key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Manifest{}, fmt.Errorf("index manifest has invalid %s %q: %w", f.key, raw, err)
		}
		*f.dst = n
	}

	if raw := values[keyBuiltAt]; raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Manifest{}, fmt.Errorf("index manifest has invalid %s %q: %w", keyBuiltAt, raw, err)
		}
		m.BuiltAt = t
	}
	return m, nil
}
