// Package syncer refreshes the durable property cache from the extractor and
// serves filtered reads from it.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"villagefeed/logging"
	"villagefeed/models"
	"villagefeed/storage"
)

const DefaultMinInterval = 4 * time.Hour

var (
	ErrExtractionFailed = errors.New("property extraction failed")
	ErrNoListings       = errors.New("no listings extracted")
	ErrStoreFailed      = errors.New("failed to store properties")
	ErrNoData           = errors.New("no properties data available")
)

// Extractor is the part of extractor.Extractor the sync service uses.
type Extractor interface {
	ExtractAll(ctx context.Context) models.SyncResult
	Locations() []models.Location
}

// Recorder receives every finished or skipped sync, e.g. for metrics.
type Recorder interface {
	RecordSync(o *models.SyncOutcome, status models.RunStatus)
}

type Service struct {
	extractor   Extractor
	store       storage.Store
	log         *logging.Logger
	recorder    Recorder
	minInterval time.Duration
	now         func() time.Time
	running     atomic.Bool
}

func New(ext Extractor, store storage.Store, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewLogger(string(models.LogLevelInfo))
	}
	return &Service{
		extractor:   ext,
		store:       store,
		log:         log,
		minInterval: DefaultMinInterval,
		now:         time.Now,
	}
}

func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetMinInterval sets how recent the last sync must be for an automated run
// to be skipped. Zero disables the guard.
func (s *Service) SetMinInterval(d time.Duration) {
	s.minInterval = d
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Run performs one sync. Automated runs that are not forced are skipped when
// the stored cache is younger than the minimum interval. A skipped run is a
// success. The returned error is non-nil exactly when the outcome failed.
func (s *Service) Run(ctx context.Context, force bool, trigger models.Trigger) (*models.SyncOutcome, error) {
	start := s.now()
	outcome := &models.SyncOutcome{Timestamp: start, Trigger: trigger}

	if !s.running.CompareAndSwap(false, true) {
		outcome.Success = true
		outcome.Skipped = true
		outcome.Message = "Sync already in progress"
		s.log.Log(models.LogLevelWarn, "sync", outcome.Message)
		return outcome, nil
	}
	defer s.running.Store(false)

	s.log.Logf(models.LogLevelInfo, "sync", "Starting %s property sync (force=%t)", trigger, force)

	prev, err := storage.LoadCache(ctx, s.store)
	if err != nil {
		s.log.Logf(models.LogLevelWarn, "sync", "Could not read previous cache: %v", err)
		prev = nil
	}

	if trigger == models.TriggerAutomated && !force && prev != nil && s.minInterval > 0 {
		last := prev.Metadata.LastSync
		if start.Sub(last) < s.minInterval {
			outcome.Success = true
			outcome.Skipped = true
			outcome.Message = "Sync skipped - recent sync detected"
			outcome.LastSync = &last
			s.log.Logf(models.LogLevelInfo, "sync", "Skipping sync, last sync was %s", last.Format(time.RFC3339))
			s.recordMetrics(outcome, models.RunStatusSkipped)
			return outcome, nil
		}
	}

	run := &models.SyncRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Forced:    force,
		StartedAt: start,
		Status:    models.RunStatusRunning,
	}
	outcome.RunID = run.ID
	s.recordRun(ctx, run)

	result := s.extractor.ExtractAll(ctx)
	outcome.Errors = result.Errors
	if !result.Success {
		return s.fail(ctx, run, outcome, fmt.Errorf("%w: %s", ErrExtractionFailed, result.Error))
	}
	if result.Unavailable() {
		return s.fail(ctx, run, outcome, fmt.Errorf("%w: %d locations failed", ErrNoListings, len(result.Errors)))
	}
	if len(result.Errors) > 0 {
		s.log.Logf(models.LogLevelWarn, "sync", "Extraction completed with %d errors", len(result.Errors))
	}

	cache := BuildCache(result, start, s.now())
	if err := storage.SaveCache(ctx, s.store, cache); err != nil {
		return s.fail(ctx, run, outcome, fmt.Errorf("%w: %v", ErrStoreFailed, err))
	}

	changes := Diff(prev, cache)
	outcome.Changes = &changes
	if !changes.Empty() {
		s.log.Logf(models.LogLevelInfo, "sync", "Cache changes: %d added, %d removed, %d updated",
			changes.Added, changes.Removed, changes.Updated)
	}

	outcome.Success = true
	outcome.Count = cache.Metadata.TotalCount
	outcome.Locations = result.LocationSlugs
	outcome.Duration = s.now().Sub(start).Milliseconds()

	status := models.RunStatusCompleted
	if len(result.Errors) > 0 {
		status = models.RunStatusPartial
	}
	s.finishRun(ctx, run, outcome, status, "")

	s.log.Logf(models.LogLevelInfo, "sync", "Sync completed in %dms: %d listings across %d locations",
		outcome.Duration, outcome.Count, len(outcome.Locations))
	return outcome, nil
}

func (s *Service) fail(ctx context.Context, run *models.SyncRun, outcome *models.SyncOutcome, err error) (*models.SyncOutcome, error) {
	outcome.Success = false
	outcome.Error = err.Error()
	outcome.Duration = s.now().Sub(outcome.Timestamp).Milliseconds()
	s.log.Logf(models.LogLevelError, "sync", "Sync failed: %v", err)
	s.finishRun(ctx, run, outcome, models.RunStatusFailed, err.Error())
	return outcome, err
}

func (s *Service) finishRun(ctx context.Context, run *models.SyncRun, outcome *models.SyncOutcome, status models.RunStatus, errMsg string) {
	finished := s.now()
	run.FinishedAt = &finished
	run.Status = status
	run.ListingsFound = outcome.Count
	run.ErrorsCount = len(outcome.Errors)
	run.ErrorMessage = errMsg
	run.DurationMS = outcome.Duration
	s.recordRun(ctx, run)
	s.recordMetrics(outcome, status)
}

func (s *Service) recordRun(ctx context.Context, run *models.SyncRun) {
	rr, ok := s.store.(storage.RunRecorder)
	if !ok {
		return
	}
	if err := rr.RecordRun(ctx, run); err != nil {
		s.log.Logf(models.LogLevelWarn, "sync", "Failed to record run %s: %v", run.ID, err)
	}
}

func (s *Service) recordMetrics(outcome *models.SyncOutcome, status models.RunStatus) {
	if s.recorder != nil {
		s.recorder.RecordSync(outcome, status)
	}
}

// RecentRuns returns the run history when the store keeps one.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	rr, ok := s.store.(storage.RunRecorder)
	if !ok {
		return nil, nil
	}
	return rr.RecentRuns(ctx, limit)
}

// BuildCache organizes a successful extraction by location. Every location
// of the run gets an entry, even when it produced nothing.
func BuildCache(result models.SyncResult, lastSync, finished time.Time) *models.PropertyCache {
	byLocation := make(map[string][]models.Listing, len(result.LocationSlugs))
	for _, slug := range result.LocationSlugs {
		byLocation[slug] = []models.Listing{}
	}
	for _, l := range result.Properties {
		byLocation[l.LocationSlug] = append(byLocation[l.LocationSlug], l)
	}
	return &models.PropertyCache{
		Properties: byLocation,
		Metadata: models.CacheMetadata{
			LastSync:     lastSync,
			TotalCount:   len(result.Properties),
			SyncDuration: finished.Sub(lastSync).Milliseconds(),
			Version:      models.CacheVersion,
		},
	}
}
