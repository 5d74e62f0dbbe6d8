package models

import (
	"sort"
	"time"
)

// SyncResult is the outcome of extracting every configured location.
// Success is false only when the run itself failed; per-location failures
// are reported in Errors while Properties stays authoritative.
type SyncResult struct {
	Success       bool      `json:"success"`
	Count         int       `json:"count"`
	Properties    []Listing `json:"properties"`
	LocationSlugs []string  `json:"locationSlugs"`
	Timestamp     time.Time `json:"timestamp"`
	Errors        []string  `json:"errors,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Unavailable reports whether the run produced nothing usable but did record
// location failures. Callers should present a retryable state.
func (r *SyncResult) Unavailable() bool {
	return r.Success && len(r.Properties) == 0 && len(r.Errors) > 0
}

// CacheKey is the fixed key the property cache is stored under.
const CacheKey = "properties"

// CacheVersion is written into every cache metadata block.
const CacheVersion = "1.0.0"

// PropertyCache is the durable form of the last successful sync.
type PropertyCache struct {
	Properties map[string][]Listing `json:"properties"`
	Metadata   CacheMetadata        `json:"metadata"`
}

type CacheMetadata struct {
	LastSync     time.Time `json:"lastSync"`
	TotalCount   int       `json:"totalCount"`
	SyncDuration int64     `json:"syncDuration"` // milliseconds
	Version      string    `json:"version"`
}

// All flattens the cache in location order.
func (c *PropertyCache) All(order []string) []Listing {
	var out []Listing
	seen := make(map[string]bool)
	for _, slug := range order {
		out = append(out, c.Properties[slug]...)
		seen[slug] = true
	}
	var rest []string
	for slug := range c.Properties {
		if !seen[slug] {
			rest = append(rest, slug)
		}
	}
	sort.Strings(rest)
	for _, slug := range rest {
		out = append(out, c.Properties[slug]...)
	}
	return out
}
