package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"villagefeed/config"
	"villagefeed/logging"
	"villagefeed/models"
)

// Runner performs one sync.
type Runner interface {
	Run(ctx context.Context, force bool, trigger models.Trigger) (*models.SyncOutcome, error)
}

type Scheduler struct {
	cfg      config.SchedulerConfig
	runner   Runner
	log      *logging.Logger
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(cfg config.SchedulerConfig, runner Runner, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewLogger(string(models.LogLevelInfo))
	}
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		log:    log,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// Start registers the automated sync. Cron takes precedence over the interval.
// Automated runs are subject to the sync service's minimum interval.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		s.log.Logf(models.LogLevelInfo, "scheduler", "Starting scheduler with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			s.run(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		s.log.Logf(models.LogLevelInfo, "scheduler", "Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.run(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		s.log.Log(models.LogLevelInfo, "scheduler", "No schedule configured, syncs run only on request")
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

// run starts an unforced automated sync; the runner's own interval guard
// decides whether it does any work.
func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.runner.Run(ctx, false, models.TriggerAutomated); err != nil {
		s.log.Logf(models.LogLevelError, "scheduler", "Scheduled run error: %v", err)
	}
}
