// Package store persists the history of sent announcements.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/announcement-agent/internal/model"
)

// SQLiteStore keeps send history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sent_emails (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	subject       TEXT    NOT NULL,
	body          TEXT    NOT NULL,
	recipients    TEXT    NOT NULL DEFAULT '[]',
	sent_at       TEXT    NOT NULL,
	success_count INTEGER NOT NULL DEFAULT 0,
	total_count   INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record stores one send and sets rec.ID.
func (s *SQLiteStore) Record(ctx context.Context, rec *model.RecentEmail) error {
	recipients, err := json.Marshal(rec.Recipients)
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sent_emails (subject, body, recipients, sent_at, success_count, total_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Subject, rec.Body, string(recipients), rec.SentAt.UTC().Format(time.RFC3339Nano), rec.SuccessCount, rec.TotalCount)
	if err != nil {
		return fmt.Errorf("insert sent email: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.RecentEmail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, body, recipients, sent_at, success_count, total_count
		FROM sent_emails
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RecentEmail, 0, limit)
	for rows.Next() {
		var (
			rec        model.RecentEmail
			recipients string
			sentAt     string
		)
		if err := rows.Scan(&rec.ID, &rec.Subject, &rec.Body, &recipients, &sentAt, &rec.SuccessCount, &rec.TotalCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(recipients), &rec.Recipients); err != nil {
			return nil, fmt.Errorf("decode recipients of %d: %w", rec.ID, err)
		}
		if rec.SentAt, err = time.Parse(time.RFC3339Nano, sentAt); err != nil {
			return nil, fmt.Errorf("decode sent_at of %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
