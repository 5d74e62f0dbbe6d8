package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"villagefeed/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		trigger TEXT,
		forced BOOLEAN DEFAULT FALSE,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		error_message TEXT,
		duration_ms INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *models.SyncRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, trigger, forced, started_at, finished_at, status,
			listings_found, errors_count, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			status = excluded.status,
			listings_found = excluded.listings_found,
			errors_count = excluded.errors_count,
			error_message = excluded.error_message,
			duration_ms = excluded.duration_ms
	`, run.ID.String(), string(run.Trigger), run.Forced, run.StartedAt, run.FinishedAt, string(run.Status),
		run.ListingsFound, run.ErrorsCount, run.ErrorMessage, run.DurationMS)
	return err
}

func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger, forced, started_at, finished_at, status,
			listings_found, errors_count, COALESCE(error_message, ''), duration_ms
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		var id, trigger, status string
		var finished sql.NullTime
		if err := rows.Scan(&id, &trigger, &r.Forced, &r.StartedAt, &finished, &status,
			&r.ListingsFound, &r.ErrorsCount, &r.ErrorMessage, &r.DurationMS); err != nil {
			return nil, err
		}
		if err := r.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, err
		}
		r.Trigger = models.Trigger(trigger)
		r.Status = models.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
