// Package metastore persists lightweight history metadata in a local SQLite
// database. The whole history lives as one JSON document under a fixed key,
// so the store stays small; image bytes belong in the blob store and appear
// here only as id references.
package metastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrUnavailable wraps storage failures (locked database, bad permissions,
// full disk). History is a convenience feature, so callers degrade rather
// than abort on it.
var ErrUnavailable = errors.New("metadata store unavailable")

const (
	historyKey = "history"
	usageKey   = "usage"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`

// Record is the persisted, metadata-only form of a generated result. URL must
// already be in reference form (equal to ID) when handed to SaveAll; the
// reconciler owns that projection.
type Record struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Prompt    string `json:"prompt"`
	Title     string `json:"title,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Usage tracks cumulative model spend across sessions.
type Usage struct {
	SpentUSD float64 `json:"spent_usd"`
	Images   int     `json:"images"`
}

type Store struct {
	db *sql.DB
}

// NewWithPath opens (and if needed creates) the database at dbPath.
func NewWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAll returns the persisted history records in stored order. A missing
// key or an unparseable document yields an empty list, never an error; only
// database failures are reported.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	raw, err := s.get(ctx, historyKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		// Corrupt metadata is treated as no history at all.
		return nil, nil
	}
	return records, nil
}

// SaveAll serializes records and overwrites the history key. Records must
// already carry reference-form URLs.
func (s *Store) SaveAll(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.set(ctx, historyKey, raw)
}

// Clear removes the history key.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, historyKey); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// LoadUsage returns the cumulative spend counters. Missing or corrupt data
// counts as zero usage.
func (s *Store) LoadUsage(ctx context.Context) (Usage, error) {
	var usage Usage
	raw, err := s.get(ctx, usageKey)
	if err != nil {
		return usage, err
	}
	if raw == nil {
		return usage, nil
	}
	if err := json.Unmarshal(raw, &usage); err != nil {
		return Usage{}, nil
	}
	return usage, nil
}

// SaveUsage overwrites the spend counters.
func (s *Store) SaveUsage(ctx context.Context, usage Usage) error {
	raw, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("encode usage: %w", err)
	}
	return s.set(ctx, usageKey, raw)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
