package storage

import (
	"context"
	"sort"
	"sync"

	"villagefeed/models"
)

// MemoryStore keeps everything in process. Used for tests and one-shot runs.
type MemoryStore struct {
	mu   sync.RWMutex
	kv   map[string][]byte
	runs []models.SyncRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.kv[key] = v
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// RecordRun inserts or replaces the run with the same id.
func (s *MemoryStore) RecordRun(ctx context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = *run
			return nil
		}
	}
	s.runs = append(s.runs, *run)
	return nil
}

func (s *MemoryStore) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	s.mu.RLock()
	runs := make([]models.SyncRun, len(s.runs))
	copy(runs, s.runs)
	s.mu.RUnlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
