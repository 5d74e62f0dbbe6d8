package extractor

import (
	"time"

	"villagefeed/models"
)

// Observer receives extraction events. Locations run concurrently, so
// implementations must be safe for concurrent use.
type Observer interface {
	FetchStart(loc models.Location)
	FetchFailed(loc models.Location, err error)
	CandidateFound(loc models.Location, c Candidate)
	CandidateRejected(loc models.Location, c Candidate, reason error)
	StrategyFailed(loc models.Location, strategy string, err error)
	LocationDone(loc models.Location, report LocationReport)
	RunSummary(summary RunSummary)
}

// LocationReport describes one location's successful extraction.
type LocationReport struct {
	Strategy  string
	Count     int
	PageBytes int
	Duration  time.Duration
}

// RunSummary describes a finished ExtractAll.
type RunSummary struct {
	Locations int
	Failed    int
	Listings  int
	Errors    []string
	Duration  time.Duration
}

type NopObserver struct{}

func (NopObserver) FetchStart(models.Location) {}
func (NopObserver) FetchFailed(models.Location, error) {}
func (NopObserver) CandidateFound(models.Location, Candidate) {}
func (NopObserver) CandidateRejected(models.Location, Candidate, error) {}
func (NopObserver) StrategyFailed(models.Location, string, error) {}
func (NopObserver) LocationDone(models.Location, LocationReport) {}
func (NopObserver) RunSummary(RunSummary) {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) FetchStart(loc models.Location) {
	for _, obs := range o {
		obs.FetchStart(loc)
	}
}

func (o Observers) FetchFailed(loc models.Location, err error) {
	for _, obs := range o {
		obs.FetchFailed(loc, err)
	}
}

func (o Observers) CandidateFound(loc models.Location, c Candidate) {
	for _, obs := range o {
		obs.CandidateFound(loc, c)
	}
}

func (o Observers) CandidateRejected(loc models.Location, c Candidate, reason error) {
	for _, obs := range o {
		obs.CandidateRejected(loc, c, reason)
	}
}

func (o Observers) StrategyFailed(loc models.Location, strategy string, err error) {
	for _, obs := range o {
		obs.StrategyFailed(loc, strategy, err)
	}
}

func (o Observers) LocationDone(loc models.Location, report LocationReport) {
	for _, obs := range o {
		obs.LocationDone(loc, report)
	}
}

func (o Observers) RunSummary(summary RunSummary) {
	for _, obs := range o {
		obs.RunSummary(summary)
	}
}
