package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"villagefeed/config"
	"villagefeed/models"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key/value cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// RunRecorder is implemented by stores that keep sync run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.SyncRun) error
	RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// New opens the backend named by cfg.Backend. apiClient is used by the
// REST-backed stores and may be nil.
func New(ctx context.Context, cfg config.CacheConfig, apiClient *http.Client) (Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return NewSQLiteStore(cfg.DBPath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 backend requires S3_BUCKET")
		}
		return NewS3Store(ctx, cfg.S3)
	case "edgeconfig":
		if cfg.EdgeConfig.ID == "" || cfg.EdgeConfig.Token == "" {
			return nil, fmt.Errorf("edgeconfig backend requires EDGE_CONFIG and VERCEL_TOKEN")
		}
		return NewEdgeConfigStore(cfg.EdgeConfig, apiClient), nil
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// LoadCache reads the property cache. A missing cache returns nil, nil.
func LoadCache(ctx context.Context, s Store) (*models.PropertyCache, error) {
	data, err := s.Get(ctx, models.CacheKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	var cache models.PropertyCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return &cache, nil
}

// SaveCache writes the property cache under the fixed cache key.
func SaveCache(ctx context.Context, s Store, cache *models.PropertyCache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := s.Set(ctx, models.CacheKey, data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
