package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SourceRepo provides methods for source document operations.
type SourceRepo struct {
	db *sql.DB
}

// NewSourceRepo creates a new SourceRepo.
func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Insert stores a source and sets its generated ID.
func (r *SourceRepo) Insert(ctx context.Context, source *SourceRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO sources (path, position, chunk_count) VALUES (?, ?, ?)",
		source.Path, source.Position, source.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get source id: %w", err)
	}
	source.ID = id
	return nil
}

// List returns all sources in ingestion order.
func (r *SourceRepo) List(ctx context.Context) ([]SourceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, path, position, chunk_count FROM sources ORDER BY position, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sources []SourceRecord
	for rows.Next() {
		var s SourceRecord
		if err := rows.Scan(&s.ID, &s.Path, &s.Position, &s.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sources, nil
}
