package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"villagefeed/models"
)

const (
	redisKeyPrefix   = "villagefeed:"
	redisRunsKey     = redisKeyPrefix + "runs"
	redisMaxRuns     = 100
	redisDialTimeout = 5 * time.Second
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()

	if _, err := client.Ping(dialCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores without expiry; the cache is replaced by each successful sync.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

// RecordRun keeps the run history as a capped list, newest first. A run is
// recorded twice (start and finish), so the earlier copy is removed.
func (s *RedisStore) RecordRun(ctx context.Context, run *models.SyncRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	existing, err := s.client.LRange(ctx, redisRunsKey, 0, redisMaxRuns).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, raw := range existing {
		var r models.SyncRun
		if json.Unmarshal([]byte(raw), &r) == nil && r.ID == run.ID {
			pipe.LRem(ctx, redisRunsKey, 1, raw)
		}
	}
	pipe.LPush(ctx, redisRunsKey, data)
	pipe.LTrim(ctx, redisRunsKey, 0, redisMaxRuns-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	raws, err := s.client.LRange(ctx, redisRunsKey, 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	runs := make([]models.SyncRun, 0, len(raws))
	for _, raw := range raws {
		var r models.SyncRun
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}
