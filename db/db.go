// Package db provides database connection helpers, schema migration, and the thread
// history audit log. History is write-mostly; nothing here is read back into the
// in-memory dedup ledger.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// ErrNoDSN is returned by Connect when history is not configured.
var ErrNoDSN = errors.New("db: empty DSN")

// Connect opens a Postgres connection for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	dbx, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	dbx.SetMaxOpenConns(5)
	dbx.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbx.PingContext(pingCtx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return dbx, nil
}

// Migrate applies idempotent schema changes for all required tables and indices.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS threads (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			message_id TEXT NOT NULL,
			channel_id TEXT,
			thread_id TEXT,
			title TEXT,
			provider TEXT,
			outcome TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`ALTER TABLE threads ADD COLUMN IF NOT EXISTS channel_id TEXT`,
		`CREATE INDEX IF NOT EXISTS idx_threads_url ON threads(url)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_created_at ON threads(created_at)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// ThreadRecord is one row of the history table.
type ThreadRecord struct {
	URL       string    `json:"url"`
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Provider  string    `json:"provider"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordThread appends rec to the history table.
func RecordThread(ctx context.Context, dbx *sql.DB, rec ThreadRecord) error {
	_, err := dbx.ExecContext(ctx,
		`INSERT INTO threads(url, message_id, channel_id, thread_id, title, provider, outcome, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,NOW())`,
		rec.URL, rec.MessageID, rec.ChannelID, rec.ThreadID, rec.Title, rec.Provider, rec.Outcome)
	if err != nil {
		return fmt.Errorf("insert thread history: %w", err)
	}
	return nil
}

// RecentThreads returns up to limit history rows, newest first.
func RecentThreads(ctx context.Context, dbx *sql.DB, limit int) ([]ThreadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := dbx.QueryContext(ctx,
		`SELECT url, message_id, COALESCE(channel_id,''), COALESCE(thread_id,''), COALESCE(title,''),
		        COALESCE(provider,''), outcome, created_at
		 FROM threads ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ThreadRecord
	for rows.Next() {
		var r ThreadRecord
		if err := rows.Scan(&r.URL, &r.MessageID, &r.ChannelID, &r.ThreadID, &r.Title, &r.Provider, &r.Outcome, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HistoryStore adapts the package functions to the pipeline's history recorder.
type HistoryStore struct{ DB *sql.DB }

// Record implements pipeline.History.
func (h *HistoryStore) Record(ctx context.Context, rec ThreadRecord) error {
	return RecordThread(ctx, h.DB, rec)
}

// Recent returns the newest limit rows.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]ThreadRecord, error) {
	return RecentThreads(ctx, h.DB, limit)
}
