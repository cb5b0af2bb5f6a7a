// Package history records successful resolutions in a small SQLite
// database so operators can see what the instance has been asked to
// resolve. Recording is best-effort; a store failure never fails a
// request.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"riptide/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL,
	format_count INTEGER NOT NULL,
	resolved_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolutions_resolved_at ON resolutions(resolved_at);
`

// Store is a SQLite-backed resolution log. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one resolution to the log.
func (s *Store) Record(url, title string, formatCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO resolutions (url, title, format_count, resolved_at) VALUES (?, ?, ?, ?)`,
		url, title, formatCount, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording resolution: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]media.HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT url, title, format_count, resolved_at FROM resolutions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var e media.HistoryEntry
		if err := rows.Scan(&e.URL, &e.Title, &e.FormatCount, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
