package index

import (
	"fmt"
	"path/filepath"

	"policybot/internal/vectorstore"
)

// StoreOptions selects where vectors live.
type StoreOptions struct {
	// QdrantURL is the Qdrant HTTP address used by the qdrant backend.
	QdrantURL string
	// Vectors, when set, is used instead of opening a backend. The index closes it.
	Vectors vectorstore.VectorStore
}

func openVectors(dir, backend string, opts StoreOptions, readOnly bool) (vectorstore.VectorStore, error) {
	if opts.Vectors != nil {
		return opts.Vectors, nil
	}

	switch backend {
	case BackendBolt, "":
		return vectorstore.OpenBoltStore(filepath.Join(dir, VectorsFile), readOnly)
	case BackendQdrant:
		if opts.QdrantURL == "" {
			return nil, fmt.Errorf("qdrant backend requires a Qdrant URL")
		}
		return vectorstore.NewQdrantStore(opts.QdrantURL)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", backend)
	}
}
