package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"policybot/internal/contextutil"
)

// upsertBatchSize bounds the points sent in one gRPC upsert.
const upsertBatchSize = 256

// QdrantStore keeps index vectors in a Qdrant collection.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to Qdrant over gRPC.
// urlStr is the HTTP address ("http://localhost:6333"); the gRPC port is the HTTP port + 1.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

// grpcAddress derives the gRPC host and port from a Qdrant HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	if u.Port() == "" {
		return host, 6334, nil
	}
	httpPort, err := strconv.Atoi(u.Port())
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant port %q: %w", u.Port(), err)
	}
	return host, httpPort + 1, nil
}

// Upsert writes points in batches and waits until Qdrant has applied each batch,
// so a search issued right after ingestion sees every chunk.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)
	wait := true

	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			ps := &qdrant.PointStruct{
				Id:      qdrant.NewID(p.ID),
				Vectors: qdrant.NewVectors(p.Vec...),
			}
			if len(p.Meta) > 0 {
				ps.Payload = qdrant.NewValueMap(p.Meta)
			}
			batch = append(batch, ps)
		}

		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           &wait,
			Points:         batch,
		}); err != nil {
			logger.ErrorContext(ctx, "qdrant upsert failed", "collection", collection, "offset", start, "error", err)
			return fmt.Errorf("failed to upsert points: %w", err)
		}
	}

	if len(points) > 0 {
		logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	}
	return nil
}

// Search returns the k points closest to query by cosine similarity.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "qdrant query failed", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, p := range scored {
		results = append(results, SearchResult{
			PointID: p.GetId().GetUuid(),
			Score:   p.GetScore(),
			Meta:    payloadToMeta(p.GetPayload()),
		})
	}
	return results, nil
}

// EnsureCollection creates the collection with cosine distance, or checks that an
// existing one stores vectors of vectorSize.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		logger.InfoContext(ctx, "qdrant collection created", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	actual := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if actual == 0 {
		return fmt.Errorf("could not determine vector size of collection %s", collection)
	}
	if int(actual) != vectorSize {
		return fmt.Errorf("collection %s stores %d-dimensional vectors, index expects %d", collection, actual, vectorSize)
	}
	return nil
}

// DropCollection deletes the collection if it exists.
func (s *QdrantStore) DropCollection(ctx context.Context, collection string) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "qdrant collection dropped", "collection", collection)
	return nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// payloadToMeta converts the flat payload the index writes. Nested values are skipped.
func payloadToMeta(payload map[string]*qdrant.Value) map[string]any {
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		switch val := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			meta[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			meta[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			meta[k] = val.DoubleValue
		case *qdrant.Value_BoolValue:
			meta[k] = val.BoolValue
		}
	}
	return meta
}
