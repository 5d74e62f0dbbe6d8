package syncer

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"villagefeed/models"
	"villagefeed/storage"
)

// Filters narrows a properties read. Nil fields do not filter. A non-nil but
// empty Locations matches nothing.
type Filters struct {
	Locations []string               `json:"village,omitempty"`
	Statuses  []models.ListingStatus `json:"status,omitempty"`
	Types     []models.ListingType   `json:"type,omitempty"`
	MinPrice  *int                   `json:"minPrice,omitempty"`
	MaxPrice  *int                   `json:"maxPrice,omitempty"`
	Bedrooms  []int                  `json:"bedrooms,omitempty"`
	Bathrooms []int                  `json:"bathrooms,omitempty"`
}

// ParseFilters reads filters from query parameters. The location may be given
// as village or location, as a single slug, a comma list, or "all". A single
// unknown slug means all locations; unknown slugs in a list are dropped.
func ParseFilters(q url.Values, known []string) Filters {
	var f Filters

	loc := q.Get("village")
	if loc == "" {
		loc = q.Get("location")
	}
	if loc != "" && loc != "all" {
		if strings.Contains(loc, ",") {
			f.Locations = []string{}
			for _, slug := range splitList(loc) {
				if slices.Contains(known, slug) {
					f.Locations = append(f.Locations, slug)
				}
			}
		} else if slices.Contains(known, loc) {
			f.Locations = []string{loc}
		}
	}

	if v := q.Get("status"); v != "" {
		for _, s := range splitList(v) {
			f.Statuses = append(f.Statuses, models.ListingStatus(s))
		}
	}
	if v := q.Get("type"); v != "" {
		for _, t := range splitList(v) {
			f.Types = append(f.Types, models.ListingType(t))
		}
	}

	if n, ok := leadingInt(q.Get("minPrice")); ok {
		f.MinPrice = &n
	}
	if n, ok := leadingInt(q.Get("maxPrice")); ok {
		f.MaxPrice = &n
	}

	f.Bedrooms = intList(q.Get("beds"))
	f.Bathrooms = intList(q.Get("baths"))
	return f
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func intList(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, p := range splitList(s) {
		if n, ok := leadingInt(p); ok {
			out = append(out, n)
		}
	}
	return out
}

// leadingInt parses the leading decimal digits of s, so "3bed" is 3.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Match reports whether l passes every filter except location.
func (f Filters) Match(l *models.Listing) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, l.Status) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, l.ListingType) {
		return false
	}
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if len(f.Bedrooms) > 0 && !slices.Contains(f.Bedrooms, l.Bedrooms) {
		return false
	}
	if len(f.Bathrooms) > 0 && !slices.Contains(f.Bathrooms, l.Bathrooms) {
		return false
	}
	return true
}

// Apply returns the listings passing f, sorted by price ascending. Equal
// prices keep their input order.
func (f Filters) Apply(listings []models.Listing) []models.Listing {
	out := []models.Listing{}
	for i := range listings {
		l := &listings[i]
		if f.Locations != nil && !slices.Contains(f.Locations, l.LocationSlug) {
			continue
		}
		if f.Match(l) {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

type PropertiesMetadata struct {
	LastSync       time.Time `json:"lastSync"`
	TotalAvailable int       `json:"totalAvailable"`
	SyncDuration   int64     `json:"syncDuration"`
}

type PropertiesResult struct {
	Success    bool               `json:"success"`
	Properties []models.Listing   `json:"properties"`
	Total      int                `json:"total"`
	Filters    Filters            `json:"filters"`
	Metadata   PropertiesMetadata `json:"metadata"`
	Source     string             `json:"source"`
	Errors     []string           `json:"errors,omitempty"`
}

// Unavailable reports an empty answer caused by extraction failures.
func (r *PropertiesResult) Unavailable() bool {
	return len(r.Properties) == 0 && len(r.Errors) > 0
}

// Properties serves listings from the stored cache. When nothing is stored yet
// (or the cache cannot be read) it extracts directly; that result is not
// written back.
func (s *Service) Properties(ctx context.Context, f Filters) (*PropertiesResult, error) {
	res := &PropertiesResult{Filters: f, Source: "cache"}

	cache, err := storage.LoadCache(ctx, s.store)
	if err != nil {
		s.log.Logf(models.LogLevelWarn, "properties", "Cache read failed, extracting directly: %v", err)
		cache = nil
	}

	if cache == nil {
		s.log.Log(models.LogLevelWarn, "properties", "No stored properties, extracting directly")
		result := s.extractor.ExtractAll(ctx)
		if !result.Success {
			return nil, fmt.Errorf("%w: %s", ErrNoData, result.Error)
		}
		now := s.now()
		cache = BuildCache(result, now, now)
		res.Source = "direct"
		res.Errors = result.Errors
	}

	order := make([]string, 0)
	for _, loc := range s.extractor.Locations() {
		order = append(order, loc.Slug)
	}

	res.Properties = f.Apply(cache.All(order))
	res.Total = len(res.Properties)
	res.Success = true
	res.Metadata = PropertiesMetadata{
		LastSync:       cache.Metadata.LastSync,
		TotalAvailable: cache.Metadata.TotalCount,
		SyncDuration:   cache.Metadata.SyncDuration,
	}

	s.log.Logf(models.LogLevelInfo, "properties", "Returning %d properties (%d total available)",
		res.Total, res.Metadata.TotalAvailable)
	return res, nil
}
