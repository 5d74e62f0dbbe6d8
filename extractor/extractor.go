package extractor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"villagefeed/models"
)

// Extractor runs the strategy chain over every configured location.
type Extractor struct {
	fetcher     Fetcher
	locations   []models.Location
	strategies  []Strategy
	observer    Observer
	concurrency int
	now         func() time.Time
}

func NewExtractor(fetcher Fetcher, locations []models.Location) *Extractor {
	return &Extractor{
		fetcher:    fetcher,
		locations:  locations,
		strategies: DefaultStrategies(DefaultHeuristics()),
		observer:   NopObserver{},
		now:        time.Now,
	}
}

func (e *Extractor) SetObserver(obs Observer) {
	if obs == nil {
		obs = NopObserver{}
	}
	e.observer = obs
}

func (e *Extractor) SetStrategies(strategies ...Strategy) {
	e.strategies = strategies
}

// SetConcurrency caps how many locations are fetched at once. Zero means
// all of them.
func (e *Extractor) SetConcurrency(n int) {
	e.concurrency = n
}

func (e *Extractor) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Extractor) Locations() []models.Location {
	return e.locations
}

func (e *Extractor) Location(slug string) (models.Location, bool) {
	for _, loc := range e.locations {
		if loc.Slug == slug {
			return loc, true
		}
	}
	return models.Location{}, false
}

// ExtractOne extracts a single location and fails on that location's own
// error.
func (e *Extractor) ExtractOne(ctx context.Context, slug string) ([]models.Listing, error) {
	loc, ok := e.Location(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, slug)
	}
	return e.extractLocation(ctx, loc)
}

func (e *Extractor) extractLocation(ctx context.Context, loc models.Location) (listings []models.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			listings = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	start := e.now()
	e.observer.FetchStart(loc)

	html, err := e.fetcher.Fetch(ctx, loc.URL)
	if err != nil {
		e.observer.FetchFailed(loc, err)
		return nil, err
	}

	page := Page{Location: loc, HTML: html, FetchedAt: e.now()}
	listings, strategy, err := runChain(ctx, e.strategies, page, e.observer)
	if err != nil {
		return nil, err
	}

	listings = Dedupe(listings)
	e.observer.LocationDone(loc, LocationReport{
		Strategy:  strategy,
		Count:     len(listings),
		PageBytes: len(html),
		Duration:  e.now().Sub(start),
	})
	return listings, nil
}

type locationOutcome struct {
	listings []models.Listing
	err      error
}

// ExtractAll extracts every location concurrently and waits for all of them.
// A location's failure is recorded in Errors and never affects the others.
// Success is false only when the run itself broke.
func (e *Extractor) ExtractAll(ctx context.Context) (result models.SyncResult) {
	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			result = models.SyncResult{
				Success:   false,
				Error:     fmt.Sprintf("extraction run failed: %v", r),
				Timestamp: start,
			}
		}
	}()

	outcomes := make([]locationOutcome, len(e.locations))

	// No WithContext: one location failing must not cancel the rest.
	var g errgroup.Group
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, loc := range e.locations {
		g.Go(func() error {
			listings, err := e.extractLocation(ctx, loc)
			outcomes[i] = locationOutcome{listings: listings, err: err}
			return nil
		})
	}
	g.Wait()

	all := []models.Listing{}
	slugs := make([]string, 0, len(e.locations))
	var errs []string
	for i, loc := range e.locations {
		slugs = append(slugs, loc.Slug)
		if err := outcomes[i].err; err != nil {
			errs = append(errs, (&LocationError{Slug: loc.Slug, Name: loc.Name, Err: err}).Error())
			continue
		}
		all = append(all, outcomes[i].listings...)
	}
	all = Dedupe(all)

	e.observer.RunSummary(RunSummary{
		Locations: len(e.locations),
		Failed:    len(errs),
		Listings:  len(all),
		Errors:    errs,
		Duration:  e.now().Sub(start),
	})

	return models.SyncResult{
		Success:       true,
		Count:         len(all),
		Properties:    all,
		LocationSlugs: slugs,
		Timestamp:     start,
		Errors:        errs,
	}
}

// Dedupe drops every listing whose (location, title) pair was already seen.
// The first occurrence wins.
func Dedupe(listings []models.Listing) []models.Listing {
	seen := make(map[[2]string]bool, len(listings))
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		key := [2]string{l.LocationSlug, l.Title}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
