package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"villagefeed/jsonv"
	"villagefeed/models"
)

// Page is a fetched location page handed to each strategy.
type Page struct {
	Location  models.Location
	HTML      string
	FetchedAt time.Time
}

// Strategy is one way of getting listings out of a page. Strategies are tried
// in order until one returns listings.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, page Page, obs Observer) ([]models.Listing, error)
}

func DefaultStrategies(h Heuristics) []Strategy {
	return []Strategy{
		NewNextDataStrategy(h),
		HTMLCardStrategy{},
	}
}

// StrategiesByName builds a chain from strategy names, in order. No names
// means the default chain.
func StrategiesByName(names []string, h Heuristics) ([]Strategy, error) {
	if len(names) == 0 {
		return DefaultStrategies(h), nil
	}
	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case "next_data":
			strategies = append(strategies, NewNextDataStrategy(h))
		case "html_cards":
			strategies = append(strategies, HTMLCardStrategy{})
		default:
			return nil, fmt.Errorf("unknown extraction strategy %q", name)
		}
	}
	return strategies, nil
}

// runChain returns the first non-empty result. When every strategy comes up
// empty, their errors are joined; an empty page with no errors is not a
// failure.
func runChain(ctx context.Context, strategies []Strategy, page Page, obs Observer) ([]models.Listing, string, error) {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		listings, err := s.Extract(ctx, page, obs)
		if err != nil {
			obs.StrategyFailed(page.Location, s.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(listings) > 0 {
			return listings, s.Name(), nil
		}
	}
	return []models.Listing{}, "", errors.Join(errs...)
}

// NextDataStrategy searches the embedded __NEXT_DATA__ payload.
type NextDataStrategy struct {
	h          Heuristics
	normalizer *Normalizer
}

func NewNextDataStrategy(h Heuristics) *NextDataStrategy {
	h = h.withDefaults()
	return &NextDataStrategy{h: h, normalizer: NewNormalizer(h)}
}

func (s *NextDataStrategy) Name() string { return "next_data" }

type region struct {
	value *jsonv.Value
	path  string
}

func (s *NextDataStrategy) Extract(ctx context.Context, page Page, obs Observer) ([]models.Listing, error) {
	text, err := LocateNextData(page.HTML)
	if err != nil {
		return nil, err
	}
	doc, err := ParseNextData(text)
	if err != nil {
		return nil, err
	}

	r, err := s.region(doc)
	if err != nil {
		return nil, err
	}

	listings := []models.Listing{}
	for _, c := range searchFrom(r, s.h) {
		obs.CandidateFound(page.Location, c)
		l, reason, err := s.normalizer.normalize(c, page.Location, page.FetchedAt)
		switch {
		case err != nil:
			obs.CandidateRejected(page.Location, c, err)
		case reason != nil:
			obs.CandidateRejected(page.Location, c, reason)
		default:
			listings = append(listings, *l)
		}
	}
	return listings, nil
}

// region picks the subtree to search. The urql cache keeps its query results
// in the largest entry's data member, either as a JSON string or as that
// string spread over a character array. Pages without a urql cache are
// searched whole.
func (s *NextDataStrategy) region(doc *jsonv.Value) (region, error) {
	urql := doc.Path("props", "urqlState")
	if urql.Len() == 0 || !urql.IsObject() {
		return region{value: doc}, nil
	}

	var largest jsonv.Member
	size := -1
	for _, m := range urql.Members {
		if n := len(m.Value.Text()); n > size {
			largest, size = m, n
		}
	}

	path := "props.urqlState." + largest.Key + ".data"
	data := largest.Value.Get("data")
	switch {
	case data == nil:
		return region{value: doc}, nil
	case data.IsString():
		v, err := parseReconstructed(data.Str)
		if err != nil {
			return region{}, err
		}
		return region{value: v, path: path}, nil
	case IsCharacterArray(data, s.h):
		v, err := ReconstructValue(data)
		if err != nil {
			return region{}, err
		}
		return region{value: v, path: path}, nil
	}
	return region{value: data, path: path}, nil
}

func searchFrom(r region, h Heuristics) []Candidate {
	cands := Search(r.value, h)
	if r.path == "" {
		return cands
	}
	for i := range cands {
		if cands[i].Path == "" {
			cands[i].Path = r.path
		} else if cands[i].Path[0] == '[' {
			cands[i].Path = r.path + cands[i].Path
		} else {
			cands[i].Path = r.path + "." + cands[i].Path
		}
	}
	return cands
}

// HTMLCardStrategy reads rendered listing cards. It is the recovery path when
// the payload is missing, undecodable or holds no listings.
type HTMLCardStrategy struct{}

func (HTMLCardStrategy) Name() string { return "html_cards" }

func (HTMLCardStrategy) Extract(ctx context.Context, page Page, obs Observer) ([]models.Listing, error) {
	return ParseFromHTML(page.HTML, page.Location, page.FetchedAt)
}
