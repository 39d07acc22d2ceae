package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	insertEntrySQL = `INSERT INTO post_events
	(post_id, origin_chat, status, fire_at, recorded_at, lateness_ms, preview, error)
	VALUES (:post_id, :origin_chat, :status, :fire_at, :recorded_at, :lateness_ms, :preview, :error)`

	recentEntriesSQL = `SELECT id, post_id, origin_chat, status, fire_at, recorded_at, lateness_ms, preview, error
	FROM post_events ORDER BY id DESC LIMIT $1`
)

// PostgresStore keeps the journal in the post_events table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert appends e.
func (s *PostgresStore) Insert(ctx context.Context, e Entry) error {
	if _, err := s.db.NamedExecContext(ctx, insertEntrySQL, e); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, recentEntriesSQL, limit); err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	return out, nil
}
