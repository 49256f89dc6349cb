package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"policybot/internal/contextutil"
)

var (
	bucketPoints = []byte("points")
	bucketIDs    = []byte("ids")
	keyDimension = []byte("dimension")
)

// BoltStore implements VectorStore on a local bbolt file.
// Each collection is a top-level bucket; points are keyed by insertion sequence
// so that equal scores come back in insertion order. Search is brute force.
type BoltStore struct {
	db *bbolt.DB
}

type storedPoint struct {
	ID   string         `json:"id"`
	Vec  []float32      `json:"v"`
	Meta map[string]any `json:"m,omitempty"`
}

// OpenBoltStore opens (creating if needed) the vector file at path.
// With readOnly set the file must already exist and writes fail.
func OpenBoltStore(path string, readOnly bool) (*BoltStore, error) {
	mode := "read-write"
	if readOnly {
		mode = "read-only"
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:  time.Second,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s vector store %s: %w", mode, path, err)
	}
	return &BoltStore{db: db}, nil
}

// EnsureCollection creates the collection bucket or validates its vector size.
func (s *BoltStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
		if _, err := b.CreateBucketIfNotExists(bucketPoints); err != nil {
			return err
		}
		if _, err := b.CreateBucketIfNotExists(bucketIDs); err != nil {
			return err
		}

		if raw := b.Get(keyDimension); raw != nil {
			existing, err := strconv.Atoi(string(raw))
			if err != nil {
				return fmt.Errorf("corrupt dimension for collection %s: %w", collection, err)
			}
			if existing != vectorSize {
				return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, existing)
			}
			return nil
		}

		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
		return b.Put(keyDimension, []byte(strconv.Itoa(vectorSize)))
	})
}

// DropCollection removes the collection bucket.
func (s *BoltStore) DropCollection(_ context.Context, collection string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(collection))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// Upsert stores points. An existing ID keeps its original position.
func (s *BoltStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, dim, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}
		pts, ids := b.Bucket(bucketPoints), b.Bucket(bucketIDs)

		for _, p := range points {
			if len(p.Vec) != dim {
				return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", p.ID, dim, len(p.Vec))
			}

			key := ids.Get([]byte(p.ID))
			if key == nil {
				seq, err := pts.NextSequence()
				if err != nil {
					return err
				}
				key = sequenceKey(seq)
				if err := ids.Put([]byte(p.ID), key); err != nil {
					return err
				}
			}

			data, err := json.Marshal(storedPoint{ID: p.ID, Vec: p.Vec, Meta: p.Meta})
			if err != nil {
				return fmt.Errorf("failed to encode point %s: %w", p.ID, err)
			}
			if err := pts.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search scores every point by cosine similarity and returns the best k.
func (s *BoltStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	var results []SearchResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, dim, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}
		if len(query) != dim {
			return fmt.Errorf("query dimension mismatch: expected %d, got %d", dim, len(query))
		}

		return b.Bucket(bucketPoints).ForEach(func(_, v []byte) error {
			var p storedPoint
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("failed to decode point: %w", err)
			}
			results = append(results, SearchResult{
				PointID: p.ID,
				Score:   float32(cosineSimilarity(query, p.Vec)),
				Meta:    p.Meta,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Count returns the number of points in the collection.
func (s *BoltStore) Count(collection string) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _, err := collectionBucket(tx, collection)
		if err != nil {
			return err
		}
		n = b.Bucket(bucketPoints).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the bbolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func collectionBucket(tx *bbolt.Tx, collection string) (*bbolt.Bucket, int, error) {
	b := tx.Bucket([]byte(collection))
	if b == nil {
		return nil, 0, fmt.Errorf("collection %s does not exist", collection)
	}
	dim, err := strconv.Atoi(string(b.Get(keyDimension)))
	if err != nil {
		return nil, 0, fmt.Errorf("corrupt dimension for collection %s: %w", collection, err)
	}
	return b, dim, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
