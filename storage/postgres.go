package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"villagefeed/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS villagefeed_kv (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS villagefeed_sync_runs (
			id UUID PRIMARY KEY,
			trigger TEXT NOT NULL,
			forced BOOLEAN NOT NULL DEFAULT FALSE,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			status TEXT NOT NULL,
			listings_found INTEGER NOT NULL DEFAULT 0,
			errors_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL DEFAULT 0
		);
	`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM villagefeed_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO villagefeed_kv (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, string(value))
	return err
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *models.SyncRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO villagefeed_sync_runs (id, trigger, forced, started_at, finished_at, status,
			listings_found, errors_count, error_message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status,
			listings_found = EXCLUDED.listings_found,
			errors_count = EXCLUDED.errors_count,
			error_message = EXCLUDED.error_message,
			duration_ms = EXCLUDED.duration_ms
	`, run.ID, string(run.Trigger), run.Forced, run.StartedAt, run.FinishedAt, string(run.Status),
		run.ListingsFound, run.ErrorsCount, run.ErrorMessage, run.DurationMS)
	return err
}

func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, trigger, forced, started_at, finished_at, status,
			listings_found, errors_count, error_message, duration_ms
		FROM villagefeed_sync_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		var trigger, status string
		if err := rows.Scan(&r.ID, &trigger, &r.Forced, &r.StartedAt, &r.FinishedAt, &status,
			&r.ListingsFound, &r.ErrorsCount, &r.ErrorMessage, &r.DurationMS); err != nil {
			return nil, err
		}
		r.Trigger = models.Trigger(trigger)
		r.Status = models.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
