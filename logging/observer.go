package logging

import (
	"errors"
	"strings"
	"time"

	"villagefeed/extractor"
	"villagefeed/models"
)

// Observer logs extraction events.
type Observer struct {
	log *Logger
}

func NewObserver(l *Logger) *Observer {
	return &Observer{log: l}
}

func (o *Observer) FetchStart(loc models.Location) {
	o.log.Logf(models.LogLevelInfo, loc.Slug, "Fetching %s", loc.URL)
}

func (o *Observer) FetchFailed(loc models.Location, err error) {
	o.log.Logf(models.LogLevelError, loc.Slug, "Fetch failed: %v", err)
}

func (o *Observer) CandidateFound(loc models.Location, c extractor.Candidate) {
	o.log.Logf(models.LogLevelDebug, loc.Slug, "Candidate at %s", c.Path)
}

func (o *Observer) CandidateRejected(loc models.Location, c extractor.Candidate, reason error) {
	var cerr *extractor.CandidateError
	if errors.As(reason, &cerr) {
		o.log.Logf(models.LogLevelWarn, loc.Slug, "Skipped candidate: %v", reason)
		return
	}
	o.log.Logf(models.LogLevelDebug, loc.Slug, "Rejected candidate at %s: %v", c.Path, reason)
}

func (o *Observer) StrategyFailed(loc models.Location, strategy string, err error) {
	o.log.Logf(models.LogLevelWarn, loc.Slug, "Strategy %s failed: %v", strategy, err)
}

func (o *Observer) LocationDone(loc models.Location, r extractor.LocationReport) {
	strategy := r.Strategy
	if strategy == "" {
		strategy = "none"
	}
	o.log.Logf(models.LogLevelInfo, loc.Slug, "Found %d listings in %s via %s (%dKB page, %s)",
		r.Count, loc.Name, strategy, r.PageBytes/1024, r.Duration.Round(time.Millisecond))
}

func (o *Observer) RunSummary(s extractor.RunSummary) {
	if s.Failed > 0 {
		o.log.Logf(models.LogLevelWarn, "extractor", "Extraction completed with %d/%d locations failed: %s",
			s.Failed, s.Locations, strings.Join(s.Errors, "; "))
	}
	o.log.Logf(models.LogLevelInfo, "extractor", "Extraction completed in %s. Total listings: %d",
		s.Duration.Round(time.Millisecond), s.Listings)
}
