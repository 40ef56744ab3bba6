package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FrenchMajesty/veracious/pkg/types"
	_ "modernc.org/sqlite"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS feed_snapshot (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	tweet_count INTEGER NOT NULL,
	last_updated INTEGER NOT NULL,
	feed_analysis TEXT NOT NULL
);`

// SQLiteStore implements Store as a single-row SQLite table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn and prepares the schema
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dsn, err)
	}
	// A single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open database and creates the snapshot table if needed
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save overwrites the stored snapshot
func (s *SQLiteStore) Save(ctx context.Context, snapshot types.Snapshot) error {
	analysis, err := json.Marshal(snapshot.FeedAnalysis)
	if err != nil {
		return fmt.Errorf("failed to marshal feed analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feed_snapshot (id, tweet_count, last_updated, feed_analysis)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tweet_count = excluded.tweet_count,
			last_updated = excluded.last_updated,
			feed_analysis = excluded.feed_analysis`,
		snapshot.TweetCount, snapshot.LastUpdated, string(analysis),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or ErrNotFound
func (s *SQLiteStore) Load(ctx context.Context) (*types.Snapshot, error) {
	var (
		snapshot types.Snapshot
		analysis string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT tweet_count, last_updated, feed_analysis FROM feed_snapshot WHERE id = 1`,
	).Scan(&snapshot.TweetCount, &snapshot.LastUpdated, &analysis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(analysis), &snapshot.FeedAnalysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed analysis: %w", err)
	}
	return &snapshot, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
